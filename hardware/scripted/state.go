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

package scripted

import (
	"bytes"
	"encoding/gob"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// the saved form of the state table
type savedState struct {
	Numbers map[string]float64
	Strings map[string]string
	Bools   map[string]bool
}

func (p *Processor) table() (*lua.LTable, error) {
	tbl, ok := p.L.GetGlobal(stateTable).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("scripted: %s: %s is not a table", p.name, stateTable)
	}
	return tbl, nil
}

// SaveState implements the device.Snapshotter interface.
func (p *Processor) SaveState() ([]byte, error) {
	tbl, err := p.table()
	if err != nil {
		return nil, err
	}

	s := savedState{
		Numbers: make(map[string]float64),
		Strings: make(map[string]string),
		Bools:   make(map[string]bool),
	}
	tbl.ForEach(func(k lua.LValue, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch v := v.(type) {
		case lua.LNumber:
			s.Numbers[string(key)] = float64(v)
		case lua.LString:
			s.Strings[string(key)] = string(v)
		case lua.LBool:
			s.Bools[string(key)] = bool(v)
		}
	})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("scripted: %s: %w", p.name, err)
	}
	return buf.Bytes(), nil
}

// RestoreState implements the device.Snapshotter interface. The state table
// is replaced.
func (p *Processor) RestoreState(data []byte) error {
	var s savedState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("scripted: %s: %w", p.name, err)
	}

	tbl := p.L.NewTable()
	for k, v := range s.Numbers {
		tbl.RawSetString(k, lua.LNumber(v))
	}
	for k, v := range s.Strings {
		tbl.RawSetString(k, lua.LString(v))
	}
	for k, v := range s.Bools {
		tbl.RawSetString(k, lua.LBool(v))
	}
	p.L.SetGlobal(stateTable, tbl)

	return nil
}
