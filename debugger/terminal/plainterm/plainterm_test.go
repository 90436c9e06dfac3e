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

package plainterm_test

import (
	"io"
	"strings"
	"testing"

	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/debugger/terminal/plainterm"
	"github.com/lockstep-emu/lockstep/test"
)

func TestPlainTerminal(t *testing.T) {
	out := &strings.Builder{}
	pt := plainterm.NewPlainTerminal(strings.NewReader("STEP 10\nQUIT"), out)
	test.ExpectFailure(t, pt.IsInteractive())

	buffer := make([]byte, 255)

	n, err := pt.TermRead(buffer, terminal.Prompt{})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(buffer[:n]), "STEP 10\n")

	// last line has no newline
	n, err = pt.TermRead(buffer, terminal.Prompt{})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(buffer[:n]), "QUIT")

	_, err = pt.TermRead(buffer, terminal.Prompt{})
	test.ExpectEquality(t, err, io.EOF)

	pt.TermPrintLine(terminal.StyleFeedback, "hello")
	pt.TermPrintLine(terminal.StyleEcho, "not shown")
	pt.TermPrintLine(terminal.StyleError, "bad")
	pt.Silence(true)
	pt.TermPrintLine(terminal.StyleFeedback, "silenced")
	pt.TermPrintLine(terminal.StyleError, "still bad")

	test.ExpectEquality(t, out.String(), "hello\n* bad\n* still bad\n")
}
