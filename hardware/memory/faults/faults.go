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

// Package faults records bus accesses that could not be satisfied normally.
// Each distinct fault is recorded once, along with a count of how many times
// it has been seen.
package faults

import (
	"fmt"
	"io"

	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
)

// Category classifies the reason for a fault.
type Category string

// List of valid Category values.
const (
	Unmapped   Category = "unmapped"
	ReadOnly   Category = "read-only"
	WriteOnly  Category = "write-only"
	OpenBank   Category = "open bank"
	Straddling Category = "straddling"
)

// Entry is a single entry in the fault log.
type Entry struct {
	Category Category

	// the address space the access was made in, described as device:class
	Space   string
	Access  bus.Access
	Address uint32
	Width   bus.Width

	// number of times this specific fault has been seen
	Count int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s %s %s at 0x%08x", e.Category, e.Space, e.Width, e.Access, e.Address)
}

type key struct {
	category Category
	space    string
	access   bus.Access
	address  uint32
}

// Faults records accesses that were unmapped or restricted.
type Faults struct {
	entries map[key]*Entry

	// all the faults in order of their first appearance. the Count field in
	// the Entry can be used to see if that fault was seen more than once
	// after the first appearance
	Log []*Entry
}

// NewFaults is the preferred method of initialisation for the Faults type.
func NewFaults() *Faults {
	return &Faults{
		entries: make(map[key]*Entry),
	}
}

// Clear all entries from the fault log.
func (flt *Faults) Clear() {
	clear(flt.entries)
	flt.Log = flt.Log[:0]
}

// NewEntry records a fault. It returns the entry for the fault. The returned
// entry should not be modified.
func (flt *Faults) NewEntry(category Category, space string, access bus.Access, address uint32, width bus.Width) *Entry {
	k := key{category: category, space: space, access: access, address: address}
	e, found := flt.entries[k]
	if !found {
		e = &Entry{
			Category: category,
			Space:    space,
			Access:   access,
			Address:  address,
			Width:    width,
		}
		flt.entries[k] = e
		flt.Log = append(flt.Log, e)
	}
	e.Count++
	return e
}

// Snapshot returns a copy of the fault log in order of first appearance.
func (flt *Faults) Snapshot() []Entry {
	s := make([]Entry, 0, len(flt.Log))
	for _, e := range flt.Log {
		s = append(s, *e)
	}
	return s
}

// Restore replaces the fault log with a previously snapshotted log.
func (flt *Faults) Restore(s []Entry) {
	flt.Clear()
	for _, e := range s {
		k := key{category: e.Category, space: e.Space, access: e.Access, address: e.Address}
		flt.entries[k] = &e
		flt.Log = append(flt.Log, &e)
	}
}

// Total returns the total number of faults recorded, including repeats.
func (flt *Faults) Total() int {
	var n int
	for _, e := range flt.Log {
		n += e.Count
	}
	return n
}

// WriteLog writes the list of faults in the order they were added.
func (flt *Faults) WriteLog(w io.Writer) {
	for _, e := range flt.Log {
		if e.Count > 1 {
			fmt.Fprintf(w, "%s (x%d)\n", e, e.Count)
		} else {
			fmt.Fprintf(w, "%s\n", e)
		}
	}
}
