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

package debugger

import "strings"

// tabCompletion completes the first word of the input with a debugger
// command.
type tabCompletion struct{}

func newTabCompletion() *tabCompletion {
	return &tabCompletion{}
}

// Complete implements the terminal.TabCompletion interface. The first command
// in the list of commands that begins with the input is used.
func (tc *tabCompletion) Complete(input string) string {
	if input == "" || strings.ContainsRune(input, ' ') {
		return input
	}

	u := strings.ToUpper(input)
	for _, c := range commands {
		if strings.HasPrefix(c, u) {
			return c + " "
		}
	}

	return input
}
