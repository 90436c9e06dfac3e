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

// Package modalflag wraps the flag package from the standard library and adds
// program modes, each with its own set of flags. The lockstep command uses it
// to select between the RUN, VERIFY, STEP and DUMP modes.
//
// Arguments are given with NewArgs() and then Parse() is called without
// arguments. If sub-modes have been added with AddSubModes(), Parse() checks
// the first non-flag argument against them and records the selected mode. The
// first sub-mode is the default.
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "VERIFY")
//	_, _ = md.Parse()
//
//	switch md.Mode() {
//	case "VERIFY":
//		md.NewMode()
//		quanta := md.AddQuanta("quanta", []int{1, 16}, "quanta to compare")
//		_, _ = md.Parse()
//		...
//	}
//
// Flags for a mode are consumed by Parse() so that a later call to NewMode()
// and Parse() sees only the arguments that follow.
//
// In addition to the basic flag types, AddTicks() accepts a count of
// reference ticks with an optional k or M suffix and AddQuanta() accepts a
// comma separated list of positive integers.
package modalflag
