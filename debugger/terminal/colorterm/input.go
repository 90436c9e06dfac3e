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

//go:build !windows

package colorterm

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/debugger/terminal/colorterm/easyterm"
	"github.com/lockstep-emu/lockstep/debugger/terminal/colorterm/easyterm/ansi"
)

// TermRead implements the terminal.Input interface.
func (ct *ColorTerminal) TermRead(input []byte, prompt terminal.Prompt) (int, error) {
	if ct.silenced {
		return 0, nil
	}

	ct.RawMode()
	defer ct.CanonicalMode()

	p := prompt.String()

	// er is used to store encoded runes
	er := make([]byte, utf8.UTFMax)

	n := 0
	cursor := 0
	history := len(ct.commandHistory)

	// the latest input is kept when scrolling through the history so that it
	// can be returned to
	buffInput := make([]byte, cap(input))
	buffN := 0

	// cursor placement for every iteration of the loop: store the cursor
	// position, clear the line, write the prompt and the input and then
	// restore the cursor position
	ct.EasyTerm.TermPrint("\r" + ansi.CursorMove(len(p)))

	for {
		ct.EasyTerm.TermPrint(ansi.CursorStore)
		ct.EasyTerm.TermPrint(ansi.ClearLine + "\r" + ansi.BoldPen + p + ansi.NormalPen)
		ct.EasyTerm.TermPrint(string(input[:n]))
		ct.EasyTerm.TermPrint(ansi.CursorRestore)

		r, _, err := ct.reader.ReadRune()
		if err != nil {
			return n, err
		}

		switch r {
		case easyterm.KeyTab:
			if ct.tabCompletion != nil {
				s := ct.tabCompletion.Complete(string(input[:cursor]))

				// difference in the length of the new input and the old input
				d := len(s) - cursor
				if d <= 0 || n+d > len(input) {
					break
				}

				// everything after the cursor is appended to the completion
				s += string(input[cursor:n])
				copy(input, []byte(s))

				ct.EasyTerm.TermPrint(ansi.CursorMove(d))
				cursor += d
				n += d
			}

		case easyterm.KeyInterrupt:
			ct.EasyTerm.TermPrint("\r\n")
			return 0, terminal.ErrUserInterrupt

		case easyterm.KeyEOF:
			if n == 0 {
				ct.EasyTerm.TermPrint("\r\n")
				return 0, terminal.ErrUserInterrupt
			}

		case easyterm.KeyCarriageReturn:
			// add to history if input is not the same as the last history
			// entry
			if n > 0 {
				l := len(ct.commandHistory)
				if l == 0 || !bytes.Equal(ct.commandHistory[l-1].input, input[:n]) {
					nh := make([]byte, n)
					copy(nh, input[:n])
					ct.commandHistory = append(ct.commandHistory, command{input: nh})
				}
			}

			ct.EasyTerm.TermPrint("\r\n")
			return n, nil

		case easyterm.KeyEsc:
			r, _, err := ct.reader.ReadRune()
			if err != nil {
				return n, err
			}
			if r != easyterm.EscCursor {
				break
			}

			r, _, err = ct.reader.ReadRune()
			if err != nil {
				return n, err
			}

			switch r {
			case easyterm.CursorUp:
				if history > 0 {
					if history == len(ct.commandHistory) {
						copy(buffInput, input[:n])
						buffN = n
					}
					history--
					n = copy(input, ct.commandHistory[history].input)
					ct.EasyTerm.TermPrint(ansi.CursorMove(n - cursor))
					cursor = n
				}

			case easyterm.CursorDown:
				if history < len(ct.commandHistory)-1 {
					history++
					n = copy(input, ct.commandHistory[history].input)
					ct.EasyTerm.TermPrint(ansi.CursorMove(n - cursor))
					cursor = n
				} else if history == len(ct.commandHistory)-1 {
					history++
					n = copy(input, buffInput[:buffN])
					ct.EasyTerm.TermPrint(ansi.CursorMove(n - cursor))
					cursor = n
				}

			case easyterm.CursorForward:
				if cursor < n {
					ct.EasyTerm.TermPrint(ansi.CursorForwardOne)
					cursor++
				}

			case easyterm.CursorBackward:
				if cursor > 0 {
					ct.EasyTerm.TermPrint(ansi.CursorBackwardOne)
					cursor--
				}

			case easyterm.CursorHome:
				ct.EasyTerm.TermPrint(ansi.CursorMove(-cursor))
				cursor = 0

			case easyterm.CursorEnd:
				ct.EasyTerm.TermPrint(ansi.CursorMove(n - cursor))
				cursor = n

			case easyterm.EscDelete:
				// the delete sequence is terminated by a tilde
				_, _, _ = ct.reader.ReadRune()
				if cursor < n {
					copy(input[cursor:], input[cursor+1:n])
					n--
					history = len(ct.commandHistory)
				}
			}

		case easyterm.KeyBackspace, easyterm.KeyCtrlH:
			if cursor > 0 {
				copy(input[cursor-1:], input[cursor:n])
				ct.EasyTerm.TermPrint(ansi.CursorBackwardOne)
				cursor--
				n--
				history = len(ct.commandHistory)
			}

		default:
			if unicode.IsPrint(r) {
				m := utf8.EncodeRune(er, r)
				if n+m > len(input) {
					break
				}
				copy(input[cursor+m:], input[cursor:n])
				copy(input[cursor:], er[:m])
				ct.EasyTerm.TermPrint(ansi.CursorForwardOne)
				cursor += m
				n += m
				history = len(ct.commandHistory)
			}
		}
	}
}
