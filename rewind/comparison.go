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

package rewind

import (
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// Difference is a single byte of a store that differs between the comparison
// entry and the current state of the machine.
type Difference struct {
	Store string
	Index int
	Old   uint8
	New   uint8
}

func (d Difference) String() string {
	return fmt.Sprintf("%s[0x%02x]: %02x -> %02x", d.Store, d.Index, d.Old, d.New)
}

// SetComparison makes the most recent entry the comparison point. Has no
// effect if the comparison is locked.
func (r *Rewind) SetComparison() {
	if r.comparisonLocked || r.count == 0 {
		return
	}
	r.comparison = r.entry(r.count - 1)
}

// LockComparison prevents the comparison point from being changed by
// SetComparison().
func (r *Rewind) LockComparison(locked bool) {
	r.comparisonLocked = locked
}

// ComparisonTime returns the time of the comparison point.
func (r *Rewind) ComparisonTime() (clocks.Time, bool) {
	if r.comparison == nil {
		return 0, false
	}
	return r.comparison.Time, true
}

// Differences returns the bytes of every store that differ between the
// comparison point and the current state of the machine.
func (r *Rewind) Differences() ([]Difference, error) {
	if r.comparison == nil {
		return nil, fmt.Errorf("rewind: no comparison point")
	}

	var diffs []Difference
	for i, st := range r.m.Stores() {
		old := r.comparison.State.Stores[i]
		for j, v := range st.Data() {
			if old[j] != v {
				diffs = append(diffs, Difference{
					Store: st.Name(),
					Index: j,
					Old:   old[j],
					New:   v,
				})
			}
		}
	}

	return diffs, nil
}
