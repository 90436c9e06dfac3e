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
	"sort"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// findIndex returns the index of the most recent entry at or before t. The
// oldest entry is returned if t is earlier than every entry.
func (r *Rewind) findIndex(t clocks.Time) int {
	i := sort.Search(r.count, func(i int) bool {
		return r.entry(i).Time > t
	})
	return max(i-1, 0)
}

// storeIndex returns the position of the named store in a hardware.State.
func (r *Rewind) storeIndex(name string) (int, error) {
	for i, st := range r.m.Stores() {
		if st.Name() == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("rewind: unknown store %q", name)
}

// SearchStore finds the earliest entry in the history in which the byte at
// the index of the named store matches the value. Only the bits in the mask
// are compared.
func (r *Rewind) SearchStore(name string, index int, value uint8, mask uint8) (clocks.Time, bool, error) {
	si, err := r.storeIndex(name)
	if err != nil {
		return 0, false, err
	}

	for i := range r.count {
		e := r.entry(i)
		data := e.State.Stores[si]
		if index < 0 || index >= len(data) {
			return 0, false, fmt.Errorf("rewind: index %#x out of range for store %q", index, name)
		}
		if data[index]&mask == value&mask {
			return e.Time, true, nil
		}
	}

	return 0, false, nil
}
