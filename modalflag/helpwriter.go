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

package modalflag

import (
	"fmt"
	"io"
	"strings"
)

// helpWriter collects the output of the flag package so that it can be
// reformatted with sub-mode information.
type helpWriter struct {
	buffer []byte
}

func (hw *helpWriter) Write(p []byte) (n int, err error) {
	hw.buffer = append(hw.buffer, p...)
	return len(p), nil
}

func (hw *helpWriter) help(output io.Writer, subModes []string, additionalHelp string) {
	if output == nil {
		return
	}

	// the first line from the flag package is always "Usage:"
	lines := strings.Split(strings.TrimRight(string(hw.buffer), "\n"), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	if len(lines) == 0 && len(subModes) == 0 {
		io.WriteString(output, "No help available\n")
		return
	}

	io.WriteString(output, "Usage:\n")
	for _, l := range lines {
		fmt.Fprintln(output, l)
	}

	if len(subModes) > 0 {
		if len(lines) > 0 {
			io.WriteString(output, "\n")
		}
		fmt.Fprintf(output, "  available modes: %s\n", strings.Join(subModes, ", "))
		fmt.Fprintf(output, "    default: %s\n", subModes[0])
	}

	if additionalHelp != "" {
		fmt.Fprintf(output, "\n%s\n", additionalHelp)
	}
}
