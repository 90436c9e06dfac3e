// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

// Package scripted implements a Processor whose program is a Lua script. It
// is useful for modelling simple sequencer devices, such as the sound command
// processors of many arcade boards, without writing an instruction set
// interpreter. It is also the processor used by board description files.
//
// The script must define a step() function, which returns the number of
// cycles taken by the step. It can also define:
//
//	interrupt(line)  called instead of step() when an interrupt is taken.
//	                 returns the number of cycles taken
//	accept(line)     returns true if the interrupt can be taken now. if not
//	                 defined, an interrupt is accepted if interrupt() is
//	                 defined
//	reset()          called when the machine is reset
//
// The following functions are available to the script. Functions beginning
// with resync stop the device until all other devices have caught up with the
// local time of the device plus the delay, and then perform the action.
//
//	read(class, address, width)
//	write(class, address, width, value)
//	resync(delay)
//	resync_write(delay, class, address, width, value)
//	resync_line(delay, device, line, mode)
//	resync_bank(delay, name, page)
//	assert_line(device, line, mode)
//	clear_line(device, line)
//	bank(name, page)
//	halt(device)
//	resume(device)
//	now()
//	log(message)
//
// Class is one of "program", "io" or "data". Width is 1, 2 or 4. Line is a
// line name such as "NMI" or "IRQ0" and mode is "hold" or "pulse".
//
// The global table named "state" is saved and restored with the state of the
// machine. Only number, string and boolean values in the table are saved.
// Other globals are not saved so a script that is to be saved should keep all
// of its variables in the state table.
package scripted
