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

package debugger

var help = map[string]string{
	cmdStep:    "STEP [n]\nRun the machine for n timeslices. The default is one timeslice.",
	cmdRun:     "RUN <ticks>\nRun the machine for a number of ticks of the reference clock.",
	cmdBack:    "BACK\nReturn the machine to the previous entry in the rewind history.",
	cmdGoto:    "GOTO <time>\nReturn the machine to a time in the rewind history. Times later than the\nhistory are reached by running the machine.",
	cmdCompare: "COMPARE\nSet the comparison point for the DIFF command to the most recent entry in\nthe rewind history.",
	cmdDiff:    "DIFF\nList bytes in every store that have changed since the comparison point.",
	cmdDevices: "DEVICES\nList the devices of the machine and their states.",
	cmdPeek:    "PEEK <device> <class> <address> [width]\nRead from the address space of the device. Class is one of program, data\nor io. Width is 1, 2 or 4.",
	cmdPoke:    "POKE <device> <class> <address> <value> [width]\nWrite to the address space of the device.",
	cmdTimers:  "TIMERS\nNumber of pending timer events.",
	cmdStats:   "STATS\nScheduler statistics.",
	cmdSummary: "SUMMARY\nConfiguration and memory map of the machine.",
	cmdLog:     "LOG [n]\nThe last n entries of the machine log. The default is ten entries.",
	cmdSave:    "SAVE <file>\nSave the state of the machine.",
	cmdLoad:    "LOAD <file>\nLoad state previously saved with SAVE. The rewind history is reset.",
	cmdHelp:    "HELP [command]\nList commands or show help for a command.",
	cmdQuit:    "QUIT\nLeave the debugger.",
}
