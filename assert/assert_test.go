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

package assert_test

import (
	"sync"
	"testing"

	"github.com/lockstep-emu/lockstep/assert"
	"github.com/lockstep-emu/lockstep/test"
)

func TestGoRoutineID(t *testing.T) {
	a := assert.GetGoRoutineID()
	test.ExpectEquality(t, a, assert.GetGoRoutineID())

	var b uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b = assert.GetGoRoutineID()
	}()
	wg.Wait()

	test.ExpectInequality(t, a, b)
}

func TestOwner(t *testing.T) {
	var o assert.Owner
	o.Claim()
	o.Check("same goroutine")

	var panicked bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			panicked = recover() != nil
		}()
		o.Check("other goroutine")
	}()
	wg.Wait()

	test.ExpectEquality(t, panicked, assert.Enabled)
}
