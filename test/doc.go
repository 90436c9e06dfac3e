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

// Package test contains helper functions to remove common boilerplate to make
// testing easier.
//
// The ExpectEquality() and ExpectInequality() functions compare values of
// any comparable type. ExpectSuccess() and ExpectFailure() test a value for
// a success condition suitable for its type:
//
//	bool -> bool == true
//	error -> error == nil
//	nil -> always success
//
// The Demand*() variants of these functions stop the test immediately on
// failure, with t.Fatalf(). The Expect*() variants use t.Errorf() and allow
// the test to continue.
//
// Optional tags can be supplied to any of the functions. The tags will be
// printed as part of the failure message, which can help to identify
// failures in table driven tests.
package test
