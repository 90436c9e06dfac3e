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

package peripherals

import (
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
)

// Latch register offsets.
const (
	LatchData   = 0
	LatchStatus = 1
)

// LatchPending is the bit of the status register that is set when the latch
// has been written but not yet read.
const LatchPending = 0x80

// Latch is an 8 bit latch used to pass commands from one device to another.
// The producer writes the data register and the consumer reads it. Reading
// the data register acknowledges the command. The status register shows
// whether there is a command that has not been acknowledged.
//
// The same Latch is normally installed in the address spaces of both devices.
type Latch struct {
	name    string
	value   uint8
	pending bool

	// called after the data register has been written. usually used to
	// interrupt the consumer
	OnWrite func(value uint8)

	// called after the data register has been read
	OnRead func()
}

// NewLatch is the preferred method of initialisation for the Latch type.
func NewLatch(name string) *Latch {
	return &Latch{name: name}
}

func (l *Latch) String() string {
	if l.pending {
		return fmt.Sprintf("%s: %#02x (pending)", l.name, l.value)
	}
	return fmt.Sprintf("%s: %#02x", l.name, l.value)
}

// Value returns the value in the latch and whether it is pending, without
// acknowledging it.
func (l *Latch) Value() (uint8, bool) {
	return l.value, l.pending
}

// Read implements the bus.ReadHandler interface.
func (l *Latch) Read(offset uint32, width bus.Width) uint32 {
	switch offset {
	case LatchData:
		l.pending = false
		if l.OnRead != nil {
			l.OnRead()
		}
		return uint32(l.value)
	case LatchStatus:
		if l.pending {
			return LatchPending
		}
		return 0
	}
	return 0
}

// Write implements the bus.WriteHandler interface. Writes to the status
// register are ignored.
func (l *Latch) Write(offset uint32, width bus.Width, value uint32, mask uint32) {
	if offset != LatchData {
		return
	}
	l.value = uint8((uint32(l.value) &^ mask) | (value & mask))
	l.pending = true
	if l.OnWrite != nil {
		l.OnWrite(l.value)
	}
}

// SaveState implements the device.Snapshotter interface.
func (l *Latch) SaveState() ([]byte, error) {
	data := []byte{l.value, 0}
	if l.pending {
		data[1] = 1
	}
	return data, nil
}

// RestoreState implements the device.Snapshotter interface.
func (l *Latch) RestoreState(data []byte) error {
	if len(data) != 2 {
		return fmt.Errorf("latch: %s: restore: %d bytes of state", l.name, len(data))
	}
	l.value = data[0]
	l.pending = data[1] != 0
	return nil
}
