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

// Package comparison runs a board description more than once, each time with
// a different scheduling quantum, and compares the results.
//
// Every run uses a machine of its own with its own instance and preferences.
// The runs are independent and happen concurrently. When all runs have
// completed, a digest of the contents of every store and a digest of the
// deferred effects applied during the run are compared. A board is
// deterministic if all cross-device communication is resynchronised with a
// delay that is longer than the largest quantum, in which case the digests
// will be the same for every run.
package comparison
