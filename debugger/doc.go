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

// Package debugger implements the STEP mode of Lockstep. The machine is
// controlled from a command line: it can be run one timeslice at a time, run
// for a number of ticks, or returned to an earlier time using the rewind
// history. Memory can be inspected and changed with the PEEK and POKE
// commands.
//
// Commands are read from a terminal.Terminal implementation. The colorterm
// implementation provides line editing, command history and tab completion.
// Command names are case insensitive. The HELP command lists all commands.
package debugger
