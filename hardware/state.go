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

package hardware

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"strings"
)

// saved state file header format
// ------------------------------
//
// lockstep state <version>
// <device names separated by fieldSep>
//
// followed by the gob encoding of the State type

const stateVersion = "1"

const stateMagic = "lockstep state"

const fieldSep = ", "

// ErrStateFormat is returned by Load() when the stream is not a saved state or
// is a saved state from an incompatible machine.
var ErrStateFormat = errors.New("not a compatible saved state")

func (m *Machine) stateHeader() string {
	names := make([]string, 0, len(m.sched.Devices()))
	for _, d := range m.sched.Devices() {
		names = append(names, d.Name)
	}
	return fmt.Sprintf("%s %s\n%s\n", stateMagic, stateVersion, strings.Join(names, fieldSep))
}

// Save the state of the machine to the writer.
func (m *Machine) Save(w io.Writer) error {
	s, err := m.Snapshot()
	if err != nil {
		return err
	}

	header := m.stateHeader()
	n, err := io.WriteString(w, header)
	if err != nil {
		return fmt.Errorf("hardware: save: %w", err)
	}
	if n != len(header) {
		return fmt.Errorf("hardware: save: output truncated")
	}

	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("hardware: save: %w", err)
	}

	return nil
}

// Load state from the reader into the machine. The machine must be started and
// configured in the same way as the machine that saved the state.
func (m *Machine) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	header := m.stateHeader()
	for _, expected := range strings.SplitAfter(header, "\n") {
		if expected == "" {
			continue
		}
		line, err := br.ReadString('\n')
		if err != nil {
			return fmt.Errorf("hardware: load: %w: %w", ErrStateFormat, err)
		}
		if line != expected {
			return fmt.Errorf("hardware: load: %w: %q", ErrStateFormat, strings.TrimSpace(line))
		}
	}

	var s State
	if err := gob.NewDecoder(br).Decode(&s); err != nil {
		return fmt.Errorf("hardware: load: %w", err)
	}
	if s.Stateful == nil {
		s.Stateful = make(map[string][]byte)
	}

	return m.Plumb(&s)
}
