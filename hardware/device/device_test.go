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

package device_test

import (
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/test"
)

type nop struct{}

func (nop) Step() (int, error) { return 1, nil }
func (nop) AcceptInterrupt(interrupts.ID) bool { return false }
func (nop) TakeInterrupt(interrupts.ID) (int, error) { return 1, nil }
func (nop) Reset() {}

func TestDevice(t *testing.T) {
	_, err := device.NewDevice("", clocks.MHz, nop{})
	test.ExpectFailure(t, err)
	_, err = device.NewDevice("cpu", 0, nop{})
	test.ExpectFailure(t, err)
	_, err = device.NewDevice("cpu", clocks.MHz, nil)
	test.ExpectFailure(t, err)

	d, err := device.NewDevice("sound", clocks.MHz, nop{})
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, d.SetReference(4*clocks.MHz))

	d.Cycles = 250
	test.ExpectEquality(t, d.Time(), clocks.Time(1000))

	// idling rounds up to the next whole device cycle
	d.IdleTo(1001)
	test.ExpectEquality(t, d.Cycles, uint64(251))

	// never backwards
	d.IdleTo(10)
	test.ExpectEquality(t, d.Cycles, uint64(251))

	test.ExpectEquality(t, d.State.String(), "running")
}
