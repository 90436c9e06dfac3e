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

package assert

import "fmt"

// Owner records the goroutine that owns a structure. Checks against the owner
// are only made when the program has been built with the "assertions" build
// tag. In normal builds the checks cost nothing.
type Owner struct {
	id uint64
}

// Claim ownership for the current goroutine.
func (o *Owner) Claim() {
	if Enabled {
		o.id = GetGoRoutineID()
	}
}

// Release ownership. The next call to Check() will claim ownership.
func (o *Owner) Release() {
	o.id = 0
}

// Check panics if the current goroutine is not the owner. If there is no owner
// then the current goroutine becomes the owner.
func (o *Owner) Check(context string) {
	if !Enabled {
		return
	}
	id := GetGoRoutineID()
	if o.id == 0 {
		o.id = id
		return
	}
	if o.id != id {
		panic(fmt.Sprintf("assertion: %s: called from goroutine %d but owned by goroutine %d", context, id, o.id))
	}
}

// That panics with the message if the condition is false. Only when the
// program has been built with the "assertions" build tag.
func That(condition bool, context string, args ...any) {
	if Enabled && !condition {
		panic(fmt.Sprintf("assertion: "+context, args...))
	}
}
