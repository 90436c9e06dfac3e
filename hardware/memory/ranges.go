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

package memory

import (
	"fmt"
	"strings"

	"github.com/lockstep-emu/lockstep/hardware/memory/bank"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/memory/store"
)

// Kind is the access kind of a Range.
type Kind int

// List of valid Kind values.
const (
	Storage Kind = iota
	Banked
	ReadCallback
	WriteCallback
	ReadWriteCallback
	Unmapped
)

func (k Kind) String() string {
	switch k {
	case Storage:
		return "storage"
	case Banked:
		return "banked"
	case ReadCallback:
		return "read callback"
	case WriteCallback:
		return "write callback"
	case ReadWriteCallback:
		return "callback"
	case Unmapped:
		return "unmapped"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Mode restricts the direction of accesses to a Range.
type Mode int

// List of valid Mode values.
const (
	ReadWrite Mode = iota
	ReadOnly
	WriteOnly
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	}
	return "rw"
}

// ParseMode converts "rw", "ro" or "wo" into a Mode. An empty string is
// ReadWrite.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rw":
		return ReadWrite, nil
	case "ro":
		return ReadOnly, nil
	case "wo":
		return WriteOnly, nil
	}
	return ReadWrite, fmt.Errorf("memory: unknown mode: %q", s)
}

// Range is an interval of an address space with a single access kind. The
// interval includes both the Start and End addresses.
type Range struct {
	Start uint32
	End   uint32
	Kind  Kind
	Mode  Mode

	// name of the store, bank or handler the range refers to
	Target string

	// offset into the target of the start address. this is zero unless the
	// range is part of a range that has been split by a more specific range
	offset uint32

	store *store.Store
	bank  *bank.Bank
	read  bus.ReadHandler
	write bus.WriteHandler
}

func (r Range) String() string {
	return fmt.Sprintf("%08x-%08x", r.Start, r.End)
}

// Describe returns a one line description of the range, suitable for listing
// the memory map of an address space.
func (r Range) Describe() string {
	target := r.Target
	if r.Kind != Unmapped && r.offset != 0 {
		target = fmt.Sprintf("%s+%#x", target, r.offset)
	}
	if target == "" {
		return fmt.Sprintf("%s  %-14s  %s", r, r.Kind, r.Mode)
	}
	return fmt.Sprintf("%s  %-14s  %s  %s", r, r.Kind, r.Mode, target)
}

func (r *Range) contains(address uint32) bool {
	return address >= r.Start && address <= r.End
}

func (r *Range) overlaps(o *Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// split removes the interval covered by inner from the range. The return
// values are the pieces of the range before and after inner, either of which
// may be nil.
func (r *Range) split(inner *Range) (*Range, *Range) {
	var before, after *Range
	if inner.Start > r.Start {
		b := *r
		b.End = inner.Start - 1
		before = &b
	}
	if inner.End < r.End {
		a := *r
		a.Start = inner.End + 1
		a.offset = r.offset + (a.Start - r.Start)
		after = &a
	}
	return before, after
}
