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
	"encoding/gob"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/scheduler"
	"github.com/lockstep-emu/lockstep/hardware/timer"
)

// Effects are deferred actions applied when a resynchronisation completes.
// They refer to parts of the machine by name so that they can be saved with
// the state of the machine.

// WriteEffect writes a value to an address space.
type WriteEffect struct {
	Device  string
	Class   memory.Class
	Address uint32
	Width   bus.Width
	Value   uint32
	Mask    uint32
}

func (e WriteEffect) String() string {
	return fmt.Sprintf("write %#x to %s:%s %#x (%s)", e.Value, e.Device, e.Class, e.Address, e.Width)
}

// LineEffect asserts or clears an interrupt line.
type LineEffect struct {
	Device string
	Line   interrupts.ID
	Assert bool
	Mode   interrupts.Mode
}

func (e LineEffect) String() string {
	if e.Assert {
		return fmt.Sprintf("assert %s:%s (%s)", e.Device, e.Line, e.Mode)
	}
	return fmt.Sprintf("clear %s:%s", e.Device, e.Line)
}

// BankEffect selects the page of a bank.
type BankEffect struct {
	Bank string
	Page int
}

func (e BankEffect) String() string {
	return fmt.Sprintf("select %s page %d", e.Bank, e.Page)
}

// CallbackEffect calls a registered callback function.
type CallbackEffect struct {
	Callback timer.Callback
	Payload  uint64
}

func (e CallbackEffect) String() string {
	return fmt.Sprintf("call %s (%d)", e.Callback, e.Payload)
}

func init() {
	gob.Register(WriteEffect{})
	gob.Register(LineEffect{})
	gob.Register(BankEffect{})
	gob.Register(CallbackEffect{})
}

// applyEffect implements the scheduler.Applier function.
func (m *Machine) applyEffect(e scheduler.Effect) error {
	if m.trace != nil {
		m.trace(m.queue.Now(), e.String())
	}

	switch e := e.(type) {
	case WriteEffect:
		as, err := m.AddressSpace(e.Device, e.Class)
		if err != nil {
			return err
		}
		as.Write(e.Address, e.Width, e.Value, e.Mask)
	case LineEffect:
		if e.Assert {
			return m.AssertLine(e.Device, e.Line, e.Mode)
		}
		return m.ClearLine(e.Device, e.Line)
	case BankEffect:
		return m.BankSelect(e.Bank, e.Page)
	case CallbackEffect:
		fn, ok := m.funcs[e.Callback]
		if !ok {
			return fmt.Errorf("hardware: %w: %s", timer.ErrUnknownCallback, e.Callback)
		}
		fn(e.Payload)
	default:
		return fmt.Errorf("hardware: unsupported effect: %T", e)
	}
	return nil
}
