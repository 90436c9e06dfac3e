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

package rewind_test

import (
	"context"
	"testing"

	"github.com/lockstep-emu/lockstep/board"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/rewind"
	"github.com/lockstep-emu/lockstep/test"
)

// ram[0] is the number of steps and ram[1] is incremented by reading and
// writing memory
const counter = `
quantum: 10
stores: [{name: ram, size: 0x10}]
devices:
  - name: cpu
    clock: 1MHz
    source: |
      state.n = 0
      function step()
        state.n = state.n + 1
        write("data", 0, 1, state.n % 256)
        write("data", 1, 1, (read("data", 1, 1) + 1) % 256)
        return 1
      end
    spaces: [{class: data, address_bits: 4, map: [{start: 0, end: 0xf, store: ram}]}]
`

func newRewind(t *testing.T) (*board.Machine, *rewind.Rewind) {
	t.Helper()
	b, err := board.Parse([]byte(counter))
	test.DemandSuccess(t, err)
	ins, err := instance.NewInstance("test", nil)
	test.DemandSuccess(t, err)
	m, err := b.Build(ins)
	test.DemandSuccess(t, err)
	t.Cleanup(func() { m.Close() })

	r, err := rewind.NewRewind(m.Machine, "")
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, r.Prefs.Freq.Set(1))
	test.DemandSuccess(t, r.Prefs.MaxEntries.Set(5))

	return m, r
}

func ram(t *testing.T, m *board.Machine, idx int) uint8 {
	t.Helper()
	st, err := m.Store("ram")
	test.DemandSuccess(t, err)
	return st.Data()[idx]
}

func TestHistory(t *testing.T) {
	m, r := newRewind(t)
	test.ExpectEquality(t, r.Len(), 1)

	for range 10 {
		test.DemandSuccess(t, r.Timeslice())
	}
	test.ExpectEquality(t, m.Now(), clocks.Time(100))

	// only the most recent entries are kept
	tl := r.GetTimeline()
	test.DemandEquality(t, len(tl.Times), 5)
	test.ExpectEquality(t, tl.AvailableStart, clocks.Time(60))
	test.ExpectEquality(t, tl.AvailableEnd, clocks.Time(100))

	// between two entries
	now, err := r.GoTo(context.Background(), 75)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, now, clocks.Time(75))
	test.ExpectEquality(t, ram(t, m, 0), uint8(75))
	test.ExpectEquality(t, ram(t, m, 1), uint8(75))
	test.ExpectEquality(t, r.Len(), 2)

	// earlier than the oldest entry
	now, err = r.GoTo(context.Background(), 10)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, now, clocks.Time(60))
	test.ExpectEquality(t, ram(t, m, 0), uint8(60))
	test.ExpectEquality(t, r.Len(), 1)

	test.DemandSuccess(t, r.Timeslice())
	test.DemandSuccess(t, r.Timeslice())
	test.ExpectEquality(t, m.Now(), clocks.Time(80))
	test.DemandSuccess(t, r.Back())
	test.ExpectEquality(t, m.Now(), clocks.Time(70))
	test.ExpectEquality(t, ram(t, m, 0), uint8(70))

	test.DemandSuccess(t, r.GoToLast())
	test.ExpectEquality(t, m.Now(), clocks.Time(70))
}

func TestFrequency(t *testing.T) {
	m, r := newRewind(t)
	test.DemandSuccess(t, r.Prefs.Freq.Set(4))
	for range 10 {
		test.DemandSuccess(t, r.Timeslice())
	}
	test.ExpectEquality(t, m.Now(), clocks.Time(100))
	test.ExpectSlice(t, r.GetTimeline().Times, []clocks.Time{0, 40, 80})
}

func TestReallocate(t *testing.T) {
	_, r := newRewind(t)
	for range 4 {
		test.DemandSuccess(t, r.Timeslice())
	}
	test.ExpectEquality(t, r.Len(), 5)
	test.DemandSuccess(t, r.Prefs.MaxEntries.Set(3))
	test.ExpectSlice(t, r.GetTimeline().Times, []clocks.Time{20, 30, 40})
}

func TestComparisonAndSearch(t *testing.T) {
	m, r := newRewind(t)

	diffs, err := r.Differences()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(diffs), 0)

	for range 3 {
		test.DemandSuccess(t, r.Timeslice())
	}

	diffs, err = r.Differences()
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(diffs), 2)
	test.ExpectEquality(t, diffs[0].String(), "ram[0x00]: 00 -> 1e")

	r.SetComparison()
	ct, ok := r.ComparisonTime()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, ct, m.Now())

	r.LockComparison(true)
	test.DemandSuccess(t, r.Timeslice())
	r.SetComparison()
	ct, _ = r.ComparisonTime()
	test.ExpectEquality(t, ct, clocks.Time(30))

	at, ok, err := r.SearchStore("ram", 0, 20, 0xff)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, at, clocks.Time(20))

	_, ok, err = r.SearchStore("ram", 0, 25, 0xff)
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, ok)

	_, _, err = r.SearchStore("rom", 0, 0, 0xff)
	test.ExpectFailure(t, err)
	_, _, err = r.SearchStore("ram", 0x10, 0, 0xff)
	test.ExpectFailure(t, err)
}

func TestDeepPoke(t *testing.T) {
	m, r := newRewind(t)
	for range 8 {
		test.DemandSuccess(t, r.Timeslice())
	}
	test.ExpectEquality(t, ram(t, m, 1), uint8(80))

	test.DemandSuccess(t, r.DeepPoke(context.Background(), 70, "ram", 1, 0))
	test.ExpectEquality(t, m.Now(), clocks.Time(80))
	test.ExpectEquality(t, ram(t, m, 0), uint8(80))
	test.ExpectEquality(t, ram(t, m, 1), uint8(10))

	test.ExpectFailure(t, r.DeepPoke(context.Background(), 70, "ram", 0x10, 0))
}

func TestMinimumEntries(t *testing.T) {
	m, r := newRewind(t)
	test.DemandSuccess(t, r.Prefs.MaxEntries.Set(0))

	for range 3 {
		test.DemandSuccess(t, r.Timeslice())
	}
	test.ExpectEquality(t, r.Len(), 2)

	now, err := r.GoTo(context.Background(), 0)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, now, clocks.Time(20))
	test.ExpectEquality(t, m.Now(), clocks.Time(20))
}
