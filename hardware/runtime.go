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
	"errors"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/scheduler"
	"github.com/lockstep-emu/lockstep/hardware/timer"
	"github.com/lockstep-emu/lockstep/logger"
)

// The runtime API is used by processors and handlers while the machine is
// running. Runtime errors that are the result of emulated program behaviour
// are logged and otherwise ignored. Errors that are the result of a mistake
// in the emulation itself, such as an unknown device name, are returned.

// BusRead reads from the address space of the device.
func (m *Machine) BusRead(name string, class memory.Class, address uint32, width bus.Width) (uint32, error) {
	m.owner.Check("BusRead")
	as, err := m.AddressSpace(name, class)
	if err != nil {
		return 0, err
	}
	return as.Read(address, width), nil
}

// BusWrite writes to the address space of the device.
func (m *Machine) BusWrite(name string, class memory.Class, address uint32, width bus.Width, value uint32, mask uint32) error {
	m.owner.Check("BusWrite")
	as, err := m.AddressSpace(name, class)
	if err != nil {
		return err
	}
	as.Write(address, width, value, mask)
	return nil
}

// BankSelect selects the page of the bank. Selecting a page that does not
// exist opens the bank and is logged.
func (m *Machine) BankSelect(name string, page int) error {
	m.owner.Check("BankSelect")
	b, err := m.Bank(name)
	if err != nil {
		return err
	}
	if err := b.Select(page); err != nil {
		logger.Log(m.Instance, "hardware", err)
	}
	return nil
}

// AssertLine asserts the interrupt line of the device. Asserting a line the
// device does not have is logged.
func (m *Machine) AssertLine(name string, id interrupts.ID, mode interrupts.Mode) error {
	m.owner.Check("AssertLine")
	d, err := m.device(name)
	if err != nil {
		return err
	}
	if err := d.Lines.Assert(id, mode); err != nil {
		logger.Log(m.Instance, "hardware", err)
	}
	return nil
}

// ClearLine clears the interrupt line of the device. Clearing a line the
// device does not have is logged.
func (m *Machine) ClearLine(name string, id interrupts.ID) error {
	m.owner.Check("ClearLine")
	d, err := m.device(name)
	if err != nil {
		return err
	}
	if err := d.Lines.Clear(id); err != nil {
		logger.Log(m.Instance, "hardware", err)
	}
	return nil
}

// ScheduleAfter schedules the callback to be called after the delay. An
// interval of zero means the event fires only once.
//
// If called by a device while it is being stepped, the delay is relative to
// the local time of that device and the event is cancelled if the device
// faults or is reset.
func (m *Machine) ScheduleAfter(delay clocks.Time, payload uint64, cb timer.Callback, interval clocks.Time) (timer.Handle, error) {
	m.owner.Check("ScheduleAfter")
	h, err := m.sched.ScheduleAfter(delay, payload, cb, interval)
	if err != nil {
		return 0, fmt.Errorf("hardware: %w", err)
	}
	return h, nil
}

// CancelTimer cancels the timer event. Returns false if the event has already
// fired or been cancelled.
func (m *Machine) CancelTimer(h timer.Handle) bool {
	m.owner.Check("CancelTimer")
	return m.queue.Cancel(h)
}

// Resynchronize stops the current device until all other devices have caught
// up with the local time of the device plus delay. The effects are applied
// at that point. See the scheduler package for details.
func (m *Machine) Resynchronize(delay clocks.Time, effects ...scheduler.Effect) error {
	m.owner.Check("Resynchronize")
	if !m.started {
		return fmt.Errorf("hardware: resynchronize: %w", ErrNotStarted)
	}
	if err := m.sched.Resynchronize(delay, effects...); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	return nil
}

// HaltDevice suspends the device.
func (m *Machine) HaltDevice(name string) error {
	m.owner.Check("HaltDevice")
	d, err := m.device(name)
	if err != nil {
		return err
	}
	m.sched.Halt(d)
	return nil
}

// ResumeDevice resumes a suspended device. It is an error to resume a device
// that has faulted.
func (m *Machine) ResumeDevice(name string) error {
	m.owner.Check("ResumeDevice")
	d, err := m.device(name)
	if err != nil {
		return err
	}
	if err := m.sched.Resume(d); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	return nil
}

// Now returns machine time.
func (m *Machine) Now() clocks.Time {
	return m.queue.Now()
}

// LocalNow returns the local time of the device being stepped, or machine time
// if no device is being stepped.
func (m *Machine) LocalNow() clocks.Time {
	return m.sched.LocalNow()
}

// Current returns the device being stepped. Returns nil if no device is being
// stepped.
func (m *Machine) Current() *device.Device {
	return m.sched.Current()
}

// Stats returns the scheduler counters.
func (m *Machine) Stats() scheduler.Stats {
	return m.sched.Stats
}

// PendingTimers returns the number of events in the timer queue.
func (m *Machine) PendingTimers() int {
	return m.queue.Len()
}

// Reset the machine. Processors and interrupt lines are reset and pending
// resynchronisations are cancelled. Memory, bank selections and machine time
// are not changed.
func (m *Machine) Reset() error {
	m.owner.Check("Reset")
	if !m.started {
		return fmt.Errorf("hardware: reset: %w", ErrNotStarted)
	}
	if m.sched.Current() != nil {
		return fmt.Errorf("hardware: reset: %w", errors.New("called while a device is being stepped"))
	}
	m.sched.Reset()
	logger.Log(m.Instance, "hardware", "reset")
	return nil
}
