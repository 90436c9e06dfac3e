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

// Package random provides random numbers for scripted devices. The numbers
// depend only on a seed, the local time of the device and the name of the
// device. This means that a machine run twice from the same state produces
// the same numbers no matter how the devices were scheduled.
//
// The seed is chosen when the program starts, unless the ZeroSeed field is
// set. Normalised instances always use the zero seed so that saved states
// can be replayed by another process.
package random
