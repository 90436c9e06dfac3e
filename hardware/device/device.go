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

// Package device defines the Device type and the Processor interface. A device
// is an independently clocked unit of execution. The behaviour of the device
// is provided by a Processor, which is driven by the scheduler one step at a
// time.
package device

import (
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
)

// Processor is implemented by the models that drive a device. The scheduler
// calls Step() or TakeInterrupt() whenever the device is behind the end of the
// current timeslice.
type Processor interface {
	// Step executes a single unit of work, usually an instruction, and returns
	// the number of device cycles it took. An error is a fault from which the
	// processor can not recover. The device will be suspended.
	Step() (int, error)

	// AcceptInterrupt returns true if the processor will take the interrupt
	// in its current state.
	AcceptInterrupt(id interrupts.ID) bool

	// TakeInterrupt is called instead of Step() when an interrupt has been
	// accepted. Returns the number of cycles taken to enter the interrupt.
	TakeInterrupt(id interrupts.ID) (int, error)

	// Reset the processor to its power-on state.
	Reset()
}

// Snapshotter is implemented by processors and peripherals that have state
// that must be saved with the machine.
type Snapshotter interface {
	SaveState() ([]byte, error)
	RestoreState(data []byte) error
}

// State is the run state of a device.
type State int

// List of valid State values.
const (
	Running State = iota
	Suspended
	Waiting
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Waiting:
		return "waiting for resynchronisation"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Device is a single clocked unit of execution.
type Device struct {
	Name  string
	Clock clocks.Hz

	// position of the device in the round-robin order
	Index int

	// local time of the device, in device cycles
	Cycles uint64

	State State

	// the state of the device after a reset
	InitialState State

	// a faulted device is always suspended. the fault is cleared by reset
	Faulted bool
	Fault   error

	Proc   Processor
	Lines  *interrupts.Lines
	Spaces map[memory.Class]*memory.AddressSpace

	ratio clocks.Ratio
}

// NewDevice is the preferred method of initialisation for the Device type.
func NewDevice(name string, clock clocks.Hz, proc Processor) (*Device, error) {
	if name == "" {
		return nil, fmt.Errorf("device: name is empty")
	}
	if clock == 0 {
		return nil, fmt.Errorf("device: %s: clock rate is zero", name)
	}
	if proc == nil {
		return nil, fmt.Errorf("device: %s: no processor", name)
	}
	d := &Device{
		Name:   name,
		Clock:  clock,
		Proc:   proc,
		Lines:  interrupts.NewLines(name),
		Spaces: make(map[memory.Class]*memory.AddressSpace),
	}
	d.ratio, _ = clocks.NewRatio(clock, clock)
	return d, nil
}

func (d *Device) String() string {
	s := fmt.Sprintf("%s (%s): %d cycles, %s", d.Name, d.Clock, d.Cycles, d.State)
	if d.Faulted {
		s = fmt.Sprintf("%s [fault: %v]", s, d.Fault)
	}
	return s
}

// SetReference sets the reference clock of the machine the device belongs to.
func (d *Device) SetReference(reference clocks.Hz) error {
	r, err := clocks.NewRatio(d.Clock, reference)
	if err != nil {
		return fmt.Errorf("device: %s: %w", d.Name, err)
	}
	d.ratio = r
	return nil
}

// Time returns the local time of the device as machine time.
func (d *Device) Time() clocks.Time {
	return d.ratio.Time(d.Cycles)
}

// Period returns the number of reference ticks taken by one device cycle.
func (d *Device) Period() clocks.Time {
	return d.ratio.Period()
}

// CyclesAt returns the number of device cycles needed to reach machine time t.
func (d *Device) CyclesAt(t clocks.Time) uint64 {
	return d.ratio.Cycles(t)
}

// IdleTo moves the local time of the device forward to at least machine time
// t without executing anything. The local time of the device never moves
// backwards.
func (d *Device) IdleTo(t clocks.Time) {
	if c := d.ratio.Cycles(t); c > d.Cycles {
		d.Cycles = c
	}
}
