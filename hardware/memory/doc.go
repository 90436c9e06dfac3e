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

// Package memory implements the address spaces of the devices in a machine.
//
// Each device has one address space for each memory class it uses (program,
// io and data). An address space is an ordered list of non-overlapping
// ranges. A range refers to a backing store, to a bank or to a handler:
//
//	                          ---- storage ---- store
//	                         |
//	                         |---- banked ---- bank ---- store
//	    DEVICE ---- space ---*
//	                         |---- callback ---- handler (peripheral)
//	                         |
//	                          ---- unmapped ---- sentinel + fault
//
// The same store or bank can be referred to by ranges in more than one
// address space. An address space can also be shared by more than one device.
//
// Ranges are installed while the machine is being configured. When a range is
// installed inside an existing range it splits the existing range in two:
//
//	before:   0000-ffff storage ram
//	install:  8000-80ff callback latch
//	after:    0000-7fff storage ram
//	          8000-80ff callback latch
//	          8100-ffff storage ram+0x8100
//
// Any other overlap is a configuration error. Once the machine has started the
// address space is sealed and no more ranges can be installed.
//
// Accesses that can not be satisfied (unmapped addresses, writes to read-only
// ranges, reads of write-only ranges and accesses through a bank with the
// open page selected) return the sentinel value and are recorded in the
// faults log. A diagnostic is also written to the log of the instance.
package memory
