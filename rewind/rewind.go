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

// Package rewind keeps a history of machine snapshots. A snapshot is taken
// every few timeslices (see Preferences) and the machine can be returned to
// any point in the history.
//
// Returning to a time between two snapshots is done by plumbing in the
// earlier snapshot and running the machine until the requested time is
// reached. Snapshots later than the plumbed snapshot are discarded.
//
// The number of snapshots is bounded. When the history is full the oldest
// snapshot is dropped.
package rewind

import (
	"context"
	"errors"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// ErrEmpty is returned when there is nothing in the rewind history.
var ErrEmpty = errors.New("rewind history is empty")

// Entry is a single snapshot in the rewind history.
type Entry struct {
	Time  clocks.Time
	State *hardware.State
}

// Rewind keeps a history of snapshots of a single machine.
type Rewind struct {
	m     *hardware.Machine
	Prefs *Preferences

	// circular array of entries. the entry at start is the oldest
	entries []*Entry
	start   int
	count   int

	// number of timeslices since the last snapshot
	slices int

	// entry used as the basis for Differences()
	comparison       *Entry
	comparisonLocked bool
}

// NewRewind is the preferred method of initialisation for the Rewind type.
// The path is the preferences file and can be empty. The machine must have
// been started. The current state of the machine is the first entry in the
// history.
func NewRewind(m *hardware.Machine, path string) (*Rewind, error) {
	r := &Rewind{m: m}

	var err error
	r.Prefs, err = newPreferences(r, path)
	if err != nil {
		return nil, fmt.Errorf("rewind: %w", err)
	}

	r.allocate()

	if err := r.Reset(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Rewind) String() string {
	if r.count == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d entries: %d to %d", r.count, r.entry(0).Time, r.entry(r.count-1).Time)
}

// allocate the circular array to the size in the preferences. the most recent
// entries are kept.
func (r *Rewind) allocate() {
	n := max(r.Prefs.MaxEntries.Get().(int), minEntries)

	entries := make([]*Entry, n)
	c := min(r.count, n)
	for i := range c {
		entries[i] = r.entry(r.count - c + i)
	}

	r.entries = entries
	r.start = 0
	r.count = c
}

func (r *Rewind) entry(i int) *Entry {
	return r.entries[(r.start+i)%len(r.entries)]
}

// Len returns the number of entries in the history.
func (r *Rewind) Len() int {
	return r.count
}

// Reset the history. The current state of the machine becomes the only entry
// and the comparison point.
func (r *Rewind) Reset() error {
	clear(r.entries)
	r.start = 0
	r.count = 0
	r.slices = 0
	r.comparison = nil

	if err := r.snapshot(); err != nil {
		return err
	}
	r.comparison = r.entry(0)

	return nil
}

func (r *Rewind) snapshot() error {
	s, err := r.m.Snapshot()
	if err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	e := &Entry{Time: r.m.Now(), State: s}

	// replace the most recent entry if no time has passed
	if r.count > 0 {
		last := (r.start + r.count - 1) % len(r.entries)
		if r.entries[last].Time == e.Time {
			r.entries[last] = e
			return nil
		}
	}

	if r.count < len(r.entries) {
		r.entries[(r.start+r.count)%len(r.entries)] = e
		r.count++
		return nil
	}

	// history is full. the oldest entry is dropped
	r.entries[r.start] = e
	r.start = (r.start + 1) % len(r.entries)

	return nil
}

// truncate the history so that it contains n entries.
func (r *Rewind) truncate(n int) {
	for i := n; i < r.count; i++ {
		r.entries[(r.start+i)%len(r.entries)] = nil
	}
	r.count = n
}

// Check should be called after every timeslice. A snapshot is taken if one
// is due.
func (r *Rewind) Check() error {
	r.slices++
	if r.slices < max(r.Prefs.Freq.Get().(int), 1) {
		return nil
	}
	r.slices = 0
	return r.snapshot()
}

// Timeslice runs the machine for a single timeslice and then calls Check().
func (r *Rewind) Timeslice() error {
	if err := r.m.Timeslice(); err != nil {
		return err
	}
	return r.Check()
}

// GoTo returns the machine to time t. The most recent entry at or before t is
// plumbed into the machine and the machine is run until t. If t is earlier
// than the oldest entry then the machine is returned to the oldest entry.
//
// The returned value is the time of the machine after the call.
func (r *Rewind) GoTo(ctx context.Context, t clocks.Time) (clocks.Time, error) {
	if r.count == 0 {
		return r.m.Now(), fmt.Errorf("rewind: %w", ErrEmpty)
	}

	idx := r.findIndex(t)
	if err := r.plumb(idx); err != nil {
		return r.m.Now(), err
	}

	if t > r.m.Now() {
		if err := r.m.RunUntil(ctx, t); err != nil {
			return r.m.Now(), fmt.Errorf("rewind: %w", err)
		}
	}

	return r.m.Now(), nil
}

// GoToLast returns the machine to the most recent entry.
func (r *Rewind) GoToLast() error {
	if r.count == 0 {
		return fmt.Errorf("rewind: %w", ErrEmpty)
	}
	return r.plumb(r.count - 1)
}

// Back returns the machine to the entry before the most recent entry at or
// before the current time.
func (r *Rewind) Back() error {
	if r.count == 0 {
		return fmt.Errorf("rewind: %w", ErrEmpty)
	}
	idx := r.findIndex(r.m.Now())
	if r.entry(idx).Time == r.m.Now() && idx > 0 {
		idx--
	}
	return r.plumb(idx)
}

func (r *Rewind) plumb(idx int) error {
	if err := r.m.Plumb(r.entry(idx).State); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}

	// later entries are no longer part of the history
	r.truncate(idx + 1)
	r.slices = 0

	return nil
}
