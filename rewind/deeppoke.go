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
	"context"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// DeepPoke changes a byte of a store at some point in the past. The change is
// made to the most recent entry at or before t and the machine is then run
// forward to the current time, so the consequences of the change are seen in
// the current state of the machine.
func (r *Rewind) DeepPoke(ctx context.Context, t clocks.Time, name string, index int, value uint8) error {
	if r.count == 0 {
		return fmt.Errorf("rewind: %w", ErrEmpty)
	}

	si, err := r.storeIndex(name)
	if err != nil {
		return err
	}

	now := r.m.Now()
	idx := r.findIndex(t)
	e := r.entry(idx)

	if index < 0 || index >= len(e.State.Stores[si]) {
		return fmt.Errorf("rewind: index %#x out of range for store %q", index, name)
	}

	// the history entry is replaced rather than altered
	s := e.State.Snapshot()
	s.Stores[si][index] = value
	r.entries[(r.start+idx)%len(r.entries)] = &Entry{Time: e.Time, State: s}

	if err := r.plumb(idx); err != nil {
		return err
	}

	if err := r.m.RunUntil(ctx, now); err != nil {
		return fmt.Errorf("rewind: deep poke: %w", err)
	}

	return nil
}
