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

package test_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lockstep-emu/lockstep/test"
)

func TestExpectFailure(t *testing.T) {
	test.ExpectFailure(t, false)
	test.ExpectFailure(t, errors.New("test"))
	test.DemandFailure(t, errors.New("test"))
}

func TestExpectSuccess(t *testing.T) {
	test.ExpectSuccess(t, true)
	var err error
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, nil)
	test.DemandSuccess(t, true)
}

func TestExpectEquality(t *testing.T) {
	test.ExpectEquality(t, 10, 5+5)
	test.ExpectEquality(t, uint32(0xff), 0xff, "tagged")
	test.DemandEquality(t, "tick", "tick")
}

func TestExpectInequality(t *testing.T) {
	test.ExpectInequality(t, 11, 5+5)
	test.ExpectInequality(t, true, false)
}

func TestExpectApproximate(t *testing.T) {
	test.ExpectApproximate(t, 10, 11, 0.1)
	test.ExpectApproximate(t, 250.0, 251.0, 0.01)
}

func TestExpectError(t *testing.T) {
	errBase := errors.New("base")
	test.ExpectError(t, fmt.Errorf("wrapped: %w", errBase), errBase)
	test.ExpectError(t, nil, nil)
}

func TestExpectSlice(t *testing.T) {
	test.ExpectSlice(t, []int{1, 2, 3}, []int{1, 2, 3})
	test.ExpectSlice(t, []string{}, nil)
	test.ExpectSlice(t, []byte("abc"), []byte{'a', 'b', 'c'})
}
