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

// Package ansi defines ANSI control codes for styles and cursor movement.
package ansi

import "fmt"

// Pens. Bright variants are used because they are more legible on most
// terminals.
const (
	PenRed     = "\033[91m"
	PenGreen   = "\033[92m"
	PenYellow  = "\033[93m"
	PenBlue    = "\033[94m"
	PenMagenta = "\033[95m"
	PenCyan    = "\033[96m"
	PenWhite   = "\033[97m"

	// DimPen is the normal pen with the faint attribute
	DimPen = "\033[2m"

	// BoldPen is the normal pen with the bold attribute
	BoldPen = "\033[1m"

	// NormalPen resets all attributes
	NormalPen = "\033[0m"
)

// ClearLine clears the current line and leaves the cursor in position.
const ClearLine = "\033[2K"

// CursorStore stores the current cursor position.
const CursorStore = "\033[s"

// CursorRestore moves the cursor to the position saved with CursorStore.
const CursorRestore = "\033[u"

// CursorForwardOne moves the cursor forward one character.
const CursorForwardOne = "\033[1C"

// CursorBackwardOne moves the cursor backward one character.
const CursorBackwardOne = "\033[1D"

// CursorMove the cursor n characters forward or backward.
func CursorMove(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("\033[%dC", n)
	case n < 0:
		return fmt.Sprintf("\033[%dD", -n)
	}
	return ""
}
