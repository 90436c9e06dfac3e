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

package comparison_test

import (
	"context"
	"sync"
	"testing"

	"github.com/lockstep-emu/lockstep/board"
	"github.com/lockstep-emu/lockstep/comparison"
	"github.com/lockstep-emu/lockstep/test"
)

func TestNewComparison(t *testing.T) {
	b, err := board.Load("../boards/twin/twin.yaml")
	test.DemandSuccess(t, err)

	_, err = comparison.NewComparison(b, 1000, 1)
	test.ExpectFailure(t, err)
	_, err = comparison.NewComparison(b, 1000, 1, 0)
	test.ExpectFailure(t, err)
	_, err = comparison.NewComparison(b, 0, 1, 2)
	test.ExpectFailure(t, err)
}

func TestDeterministicBoard(t *testing.T) {
	b, err := board.Load("../boards/twin/twin.yaml")
	test.DemandSuccess(t, err)

	cmp, err := comparison.NewComparison(b, 20500, 1, 4, 16)
	test.DemandSuccess(t, err)

	var crit sync.Mutex
	var done int
	cmp.Done = func(_ comparison.Result) {
		crit.Lock()
		defer crit.Unlock()
		done++
	}

	test.DemandSuccess(t, cmp.Compare(context.Background()))
	test.ExpectEquality(t, done, 3)
	test.DemandEquality(t, len(cmp.Results), 3)

	for i, r := range cmp.Results {
		test.ExpectEquality(t, r.Quantum, cmp.Quanta[i])
		test.ExpectEquality(t, r.Now, cmp.Ticks)
		test.ExpectEquality(t, r.Faults, 0)
	}

	// nineteen commands and four bank selections
	test.ExpectEquality(t, cmp.Results[0].EventCount, 23)
}

// the second device reads memory written directly by the first device. what
// it sees depends on how far ahead the first device was allowed to run
const racy = `
quantum: 1
stores: [{name: ram, size: 0x100}]
devices:
  - name: first
    clock: 1MHz
    source: |
      state.n = 0
      function step()
        state.n = (state.n + 1) % 256
        write("data", 0, 1, state.n)
        return 1
      end
    spaces: [{class: data, address_bits: 8, map: [{start: 0, end: 0xff, store: ram}]}]
  - name: second
    clock: 1MHz
    source: |
      state.n = 0
      function step()
        state.n = state.n + 1
        write("data", 1 + state.n % 64, 1, read("data", 0, 1))
        return 1
      end
    spaces: [{class: data, address_bits: 8, map: [{start: 0, end: 0xff, store: ram}]}]
`

func TestRacyBoard(t *testing.T) {
	b, err := board.Parse([]byte(racy))
	test.DemandSuccess(t, err)

	cmp, err := comparison.NewComparison(b, 1000, 1, 16)
	test.DemandSuccess(t, err)

	err = cmp.Compare(context.Background())
	test.ExpectFailure(t, err)
	test.ExpectError(t, err, comparison.ErrMismatch)
	test.ExpectInequality(t, cmp.Results[0].Memory, cmp.Results[1].Memory)
}

func TestCancelled(t *testing.T) {
	b, err := board.Load("../boards/twin/twin.yaml")
	test.DemandSuccess(t, err)

	cmp, err := comparison.NewComparison(b, 1000000, 2, 8)
	test.DemandSuccess(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = cmp.Compare(ctx)
	test.ExpectError(t, err, context.Canceled)
}
