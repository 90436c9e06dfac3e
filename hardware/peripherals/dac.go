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

// DAC is an 8 bit digital to analogue converter. The last value written to
// the DAC is its output level. The level can be sampled at any time, usually
// from a periodic timer.
type DAC struct {
	name  string
	level uint8

	// number of writes since the DAC was created
	writes uint64
}

// NewDAC is the preferred method of initialisation for the DAC type.
func NewDAC(name string) *DAC {
	return &DAC{name: name, level: 0x80}
}

func (d *DAC) String() string {
	return fmt.Sprintf("%s: %#02x", d.name, d.level)
}

// Name of the DAC.
func (d *DAC) Name() string {
	return d.name
}

// Level returns the current output level.
func (d *DAC) Level() uint8 {
	return d.level
}

// Writes returns the number of writes to the DAC.
func (d *DAC) Writes() uint64 {
	return d.writes
}

// Sample returns the output level as a signed 16 bit sample. A level of 0x80
// is silence.
func (d *DAC) Sample() int {
	return (int(d.level) - 0x80) << 8
}

// Read implements the bus.ReadHandler interface.
func (d *DAC) Read(offset uint32, width bus.Width) uint32 {
	return uint32(d.level)
}

// Write implements the bus.WriteHandler interface. Only the low byte of the
// value is used.
func (d *DAC) Write(offset uint32, width bus.Width, value uint32, mask uint32) {
	d.level = uint8((uint32(d.level) &^ mask) | (value & mask))
	d.writes++
}

// SaveState implements the device.Snapshotter interface.
func (d *DAC) SaveState() ([]byte, error) {
	return []byte{d.level}, nil
}

// RestoreState implements the device.Snapshotter interface.
func (d *DAC) RestoreState(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("dac: %s: restore: %d bytes of state", d.name, len(data))
	}
	d.level = data[0]
	return nil
}
