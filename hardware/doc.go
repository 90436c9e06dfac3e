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

// Package hardware is the base package of the execution kernel. It and its
// sub-packages contain everything required to run a machine made of several
// independently clocked devices that share memory mapped peripherals.
//
// The Machine type is the root of the emulation. A Machine is first
// configured, with the Add*() functions, and then started. Once started the
// configuration is sealed and the runtime API becomes available to the
// processors and handlers of the machine:
//
//	m, _ := hardware.NewMachine(nil)
//	m.Instance.Prefs.Quantum.Set(100)
//	m.AddDevice("main", 4000000, cpu)
//	m.AddAddressSpace("main", memory.Program, 16, bus.Width8)
//	...
//	m.Start()
//	m.RunFor(context.Background(), 4000000)
//
// Machine time is measured in ticks of the reference clock, which by default
// is the clock of the fastest device. Time only ever moves forward.
//
// The state of a started machine can be captured with Snapshot() and restored
// with Plumb(). The same state can be saved to and loaded from a stream with
// Save() and Load(). State can only be restored into a machine that has been
// configured in exactly the same way as the machine it was taken from.
package hardware
