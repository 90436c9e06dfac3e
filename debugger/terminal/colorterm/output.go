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
	"strings"

	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/debugger/terminal/colorterm/easyterm/ansi"
)

// TermPrintLine implements the terminal.Output interface.
func (ct *ColorTerminal) TermPrintLine(style terminal.Style, s string) {
	if ct.silenced && style != terminal.StyleError {
		return
	}

	switch style {
	case terminal.StyleEcho:
		ct.EasyTerm.TermPrint(ansi.PenCyan)
	case terminal.StyleInstrument:
		ct.EasyTerm.TermPrint(ansi.PenWhite)
	case terminal.StyleFeedback:
		ct.EasyTerm.TermPrint(ansi.DimPen)
	case terminal.StyleHelp:
		ct.EasyTerm.TermPrint(ansi.PenGreen)
	case terminal.StyleLog:
		ct.EasyTerm.TermPrint(ansi.PenYellow)
	case terminal.StyleError:
		ct.EasyTerm.TermPrint(ansi.PenRed)
		ct.EasyTerm.TermPrint("* ")
	}

	// the terminal may be in raw mode so carriage returns are required
	ct.EasyTerm.TermPrint(strings.ReplaceAll(s, "\n", "\r\n"))
	ct.EasyTerm.TermPrint(ansi.NormalPen)
	ct.EasyTerm.TermPrint("\r\n")
}
