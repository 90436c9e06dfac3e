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

// Package peripherals contains reusable memory mapped peripherals. Each
// peripheral implements the bus.Handler interface and can be installed into
// one or more address spaces with AddressSpace.InstallHandler(). Peripherals
// with state also implement the Snapshotter interface of the device package
// and should be added to the machine with Machine.AddStateful().
package peripherals

// Available is the list of peripherals that can be named in a board
// description.
var Available = []string{"latch", "dac"}
