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

// Package interrupts implements the interrupt lines of a device. A device can
// have any number of lines. Any handler, running on any device, can assert or
// clear a line. The scheduler examines the lines of a device before every step
// of that device.
//
// Lines are examined in priority order. NMI has the highest priority,
// followed by IRQ0, IRQ1 and so on.
package interrupts

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownLine is returned when a line is used that has not been added.
var ErrUnknownLine = errors.New("unknown interrupt line")

// ErrDuplicateLine is returned when a line is added more than once.
var ErrDuplicateLine = errors.New("duplicate interrupt line")

// ID identifies an interrupt line. Lower values have higher priority.
type ID int

// NMI is the non-maskable interrupt line.
const NMI ID = 0

// IRQ returns the ID of the numbered interrupt request line.
func IRQ(n int) ID {
	return ID(n + 1)
}

func (id ID) String() string {
	if id == NMI {
		return "NMI"
	}
	return fmt.Sprintf("IRQ%d", int(id)-1)
}

// ParseID converts a line name, such as "NMI" or "IRQ1", into an ID. The
// comparison is not case sensitive.
func ParseID(s string) (ID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "NMI" {
		return NMI, nil
	}
	if n, ok := strings.CutPrefix(s, "IRQ"); ok {
		v, err := strconv.Atoi(n)
		if err == nil && v >= 0 {
			return IRQ(v), nil
		}
	}
	return 0, fmt.Errorf("interrupts: %w: %q", ErrUnknownLine, s)
}

// Mode is the assertion mode of a line.
type Mode int

// List of valid Mode values.
const (
	// the line stays asserted until it is cleared
	Hold Mode = iota

	// the line is cleared automatically when it is next examined by the
	// scheduler, whether or not the interrupt is taken
	Pulse
)

func (m Mode) String() string {
	if m == Pulse {
		return "pulse"
	}
	return "hold"
}

// ParseMode converts "hold" or "pulse" into a Mode. An empty string is Hold.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hold":
		return Hold, nil
	case "pulse":
		return Pulse, nil
	}
	return Hold, fmt.Errorf("interrupts: unknown mode: %q", s)
}

// Line is a single interrupt line.
type Line struct {
	ID       ID
	Asserted bool
	Mode     Mode
}

func (l Line) String() string {
	if !l.Asserted {
		return fmt.Sprintf("%s: clear", l.ID)
	}
	return fmt.Sprintf("%s: asserted (%s)", l.ID, l.Mode)
}

// Lines is the set of interrupt lines of a single device.
type Lines struct {
	device string

	// sorted by ID and therefore by priority
	lines []Line
}

// NewLines is the preferred method of initialisation for the Lines type.
func NewLines(device string) *Lines {
	return &Lines{device: device}
}

func (ls *Lines) String() string {
	s := make([]string, 0, len(ls.lines))
	for _, l := range ls.lines {
		s = append(s, l.String())
	}
	return strings.Join(s, ", ")
}

// Add a line. Adding the same line twice is an error.
func (ls *Lines) Add(id ID) error {
	if id < NMI {
		return fmt.Errorf("interrupts: %s: invalid line (%d)", ls.device, int(id))
	}
	i := sort.Search(len(ls.lines), func(i int) bool {
		return ls.lines[i].ID >= id
	})
	if i < len(ls.lines) && ls.lines[i].ID == id {
		return fmt.Errorf("interrupts: %s: %w: %s", ls.device, ErrDuplicateLine, id)
	}
	ls.lines = append(ls.lines, Line{})
	copy(ls.lines[i+1:], ls.lines[i:])
	ls.lines[i] = Line{ID: id}
	return nil
}

func (ls *Lines) find(id ID) *Line {
	i := sort.Search(len(ls.lines), func(i int) bool {
		return ls.lines[i].ID >= id
	})
	if i < len(ls.lines) && ls.lines[i].ID == id {
		return &ls.lines[i]
	}
	return nil
}

// Assert the line with the specified mode. Asserting a line that is already
// asserted changes the mode of the assertion.
func (ls *Lines) Assert(id ID, mode Mode) error {
	l := ls.find(id)
	if l == nil {
		return fmt.Errorf("interrupts: %s: %w: %s", ls.device, ErrUnknownLine, id)
	}
	l.Asserted = true
	l.Mode = mode
	return nil
}

// Clear the line.
func (ls *Lines) Clear(id ID) error {
	l := ls.find(id)
	if l == nil {
		return fmt.Errorf("interrupts: %s: %w: %s", ls.device, ErrUnknownLine, id)
	}
	l.Asserted = false
	return nil
}

// IsAsserted returns true if the line is asserted. Unknown lines are never
// asserted.
func (ls *Lines) IsAsserted(id ID) bool {
	l := ls.find(id)
	return l != nil && l.Asserted
}

// Pending returns true if any line is asserted.
func (ls *Lines) Pending() bool {
	for _, l := range ls.lines {
		if l.Asserted {
			return true
		}
	}
	return false
}

// Sample examines the asserted lines in priority order. The accept function
// is called for each asserted line until it returns true, at which point the
// ID of that line is returned. Pulsed lines that are examined are cleared,
// whether they are accepted or not. Lines of a lower priority than an accepted
// line are not examined.
func (ls *Lines) Sample(accept func(ID) bool) (ID, bool) {
	for i := range ls.lines {
		l := &ls.lines[i]
		if !l.Asserted {
			continue
		}
		if l.Mode == Pulse {
			l.Asserted = false
		}
		if accept(l.ID) {
			return l.ID, true
		}
	}
	return 0, false
}

// Reset clears all lines.
func (ls *Lines) Reset() {
	for i := range ls.lines {
		ls.lines[i].Asserted = false
		ls.lines[i].Mode = Hold
	}
}

// Snapshot returns a copy of the state of every line, in priority order.
func (ls *Lines) Snapshot() []Line {
	return append([]Line(nil), ls.lines...)
}

// Plumb restores the state of the lines from a snapshot. The snapshot must
// have been taken from an identically configured set of lines.
func (ls *Lines) Plumb(lines []Line) error {
	if len(lines) != len(ls.lines) {
		return fmt.Errorf("interrupts: %s: snapshot has %d lines, expected %d", ls.device, len(lines), len(ls.lines))
	}
	for i := range lines {
		if lines[i].ID != ls.lines[i].ID {
			return fmt.Errorf("interrupts: %s: snapshot has line %s, expected %s", ls.device, lines[i].ID, ls.lines[i].ID)
		}
	}
	copy(ls.lines, lines)
	return nil
}
