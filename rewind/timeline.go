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

import "github.com/lockstep-emu/lockstep/hardware/clocks"

// Timeline summarises the rewind history.
type Timeline struct {
	// times of every entry, oldest first
	Times []clocks.Time

	// the earliest and latest times available in the history
	AvailableStart clocks.Time
	AvailableEnd   clocks.Time
}

// GetTimeline returns a summary of the rewind history.
func (r *Rewind) GetTimeline() Timeline {
	tl := Timeline{
		Times: make([]clocks.Time, 0, r.count),
	}
	for i := range r.count {
		tl.Times = append(tl.Times, r.entry(i).Time)
	}
	if r.count > 0 {
		tl.AvailableStart = tl.Times[0]
		tl.AvailableEnd = tl.Times[len(tl.Times)-1]
	}
	return tl
}
