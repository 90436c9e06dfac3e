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

package peripherals_test

import (
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/peripherals"
	"github.com/lockstep-emu/lockstep/test"
)

func TestLatch(t *testing.T) {
	l := peripherals.NewLatch("soundlatch")
	var _ bus.Handler = l
	var _ device.Snapshotter = l

	var written []uint8
	l.OnWrite = func(v uint8) {
		written = append(written, v)
	}

	test.ExpectEquality(t, l.Read(peripherals.LatchStatus, bus.Byte), uint32(0))

	l.Write(peripherals.LatchData, bus.Byte, 0x42, 0xff)
	test.ExpectEquality(t, l.Read(peripherals.LatchStatus, bus.Byte), uint32(peripherals.LatchPending))
	test.DemandEquality(t, len(written), 1)
	test.ExpectEquality(t, written[0], uint8(0x42))

	state, err := l.SaveState()
	test.ExpectSuccess(t, err)

	// reading the data acknowledges it
	test.ExpectEquality(t, l.Read(peripherals.LatchData, bus.Byte), uint32(0x42))
	test.ExpectEquality(t, l.Read(peripherals.LatchStatus, bus.Byte), uint32(0))

	// status register is read only
	l.Write(peripherals.LatchStatus, bus.Byte, 0x99, 0xff)
	v, pending := l.Value()
	test.ExpectEquality(t, v, uint8(0x42))
	test.ExpectEquality(t, pending, false)

	test.ExpectSuccess(t, l.RestoreState(state))
	v, pending = l.Value()
	test.ExpectEquality(t, v, uint8(0x42))
	test.ExpectEquality(t, pending, true)

	test.ExpectFailure(t, l.RestoreState([]byte{1}))
}

func TestDAC(t *testing.T) {
	d := peripherals.NewDAC("dac")
	test.ExpectEquality(t, d.Sample(), 0)

	d.Write(0, bus.Byte, 0xff, 0xff)
	test.ExpectEquality(t, d.Level(), uint8(0xff))
	test.ExpectEquality(t, d.Sample(), 0x7f00)
	test.ExpectEquality(t, d.Writes(), uint64(1))

	d.Write(0, bus.Byte, 0x00, 0xff)
	test.ExpectEquality(t, d.Sample(), -0x8000)
	test.ExpectEquality(t, d.Read(0, bus.Byte), uint32(0))

	state, err := d.SaveState()
	test.ExpectSuccess(t, err)
	d.Write(0, bus.Byte, 0x10, 0xff)
	test.ExpectSuccess(t, d.RestoreState(state))
	test.ExpectEquality(t, d.Level(), uint8(0))
}
