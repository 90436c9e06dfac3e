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

// Package scheduler runs the devices of a machine in lockstep. Machine time is
// divided into timeslices. During a timeslice every running device is stepped
// until its local time reaches the end of the timeslice, in round-robin order.
// The timer queue is then advanced to the end of the timeslice.
//
// A timeslice is never longer than the quantum and never extends beyond the
// next timer event. This means timer events always fire when every running
// device has reached the target time of the event.
//
// A step is never interrupted, so a device can finish a timeslice ahead of
// machine time by the length of its final step, less one tick. For devices
// that step one cycle at a time the quantum must be at least one tick less
// than the period of the slowest device clock, which keeps the local time of
// every device within one quantum of machine time. A step of many cycles can
// take the device further ahead than that.
//
// A device can ask to be resynchronised. The device stops running until
// machine time reaches the target of the resynchronisation, at which point
// any deferred effects are applied. This is the mechanism by which devices
// exchange data without the exchange depending on the size of the quantum.
package scheduler

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/timer"
	"github.com/lockstep-emu/lockstep/logger"
)

// Sentinel errors.
var (
	ErrQuantumUnset    = errors.New("scheduling quantum is not set")
	ErrQuantumTooShort = errors.New("scheduling quantum is too short")
	ErrAllFaulted      = errors.New("all devices have faulted")
	ErrAllSuspended    = errors.New("all devices are suspended and no timer is pending")
	ErrFaulted         = errors.New("device has faulted")
)

// the name of the timer callback used for resynchronisation
const resyncCallback = "scheduler.resync"

// Effect is an action that is deferred until a resynchronisation completes.
// The scheduler does not know how to apply an effect. That is the job of the
// Applier function.
type Effect interface {
	String() string
}

// Applier applies a deferred effect.
type Applier func(Effect) error

// a resynchronisation that has not yet completed
type pending struct {
	id      uint64
	device  *device.Device
	target  clocks.Time
	handle  timer.Handle
	effects []Effect
}

// Stats are counters of scheduler activity.
type Stats struct {
	Timeslices uint64
	Steps      uint64
	Interrupts uint64
	Resyncs    uint64
	Faults     uint64
}

// Scheduler runs devices in lockstep.
type Scheduler struct {
	ins   *instance.Instance
	queue *timer.Queue

	// devices in round-robin order
	devices []*device.Device

	// the device currently being stepped. nil between steps
	current *device.Device

	// the end of the current timeslice. can be brought forward while the
	// timeslice is running
	sliceEnd clocks.Time

	// resynchronisations that have not completed, keyed by ID. the ID is the
	// payload of the timer event that completes the resynchronisation
	pending  map[uint64]*pending
	nextID   uint64
	resyncCB timer.Callback

	apply Applier

	Stats Stats
}

// NewScheduler is the preferred method of initialisation for the Scheduler
// type.
func NewScheduler(ins *instance.Instance, queue *timer.Queue) (*Scheduler, error) {
	s := &Scheduler{
		ins:     ins,
		queue:   queue,
		pending: make(map[uint64]*pending),
		nextID:  1,
		apply: func(e Effect) error {
			return fmt.Errorf("scheduler: no applier for effect: %s", e)
		},
	}

	var err error
	s.resyncCB, err = queue.Register(resyncCallback, s.resynchronised)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	return s, nil
}

// SetApplier sets the function used to apply deferred effects.
func (s *Scheduler) SetApplier(apply Applier) {
	s.apply = apply
}

// AddDevice adds the device to the end of the round-robin order.
func (s *Scheduler) AddDevice(d *device.Device) {
	d.Index = len(s.devices)
	s.devices = append(s.devices, d)
}

// Devices returns the devices in round-robin order.
func (s *Scheduler) Devices() []*device.Device {
	return s.devices
}

// Current returns the device that is currently being stepped, or nil if no
// device is being stepped.
func (s *Scheduler) Current() *device.Device {
	return s.current
}

// Now returns machine time.
func (s *Scheduler) Now() clocks.Time {
	return s.queue.Now()
}

// LocalNow returns the local time of the device currently being stepped. If no
// device is being stepped then machine time is returned.
func (s *Scheduler) LocalNow() clocks.Time {
	if s.current != nil {
		return s.current.Time()
	}
	return s.queue.Now()
}

// Quantum returns the scheduling quantum in ticks of the reference clock. The
// quantum must not be shorter than one cycle of any device, less one tick.
func (s *Scheduler) Quantum() (clocks.Time, error) {
	q := s.ins.Prefs.Quantum.Get().(int)
	if q <= 0 {
		return 0, fmt.Errorf("scheduler: %w", ErrQuantumUnset)
	}
	for _, d := range s.devices {
		if p := d.Period(); clocks.Time(q) < p-1 {
			return 0, fmt.Errorf("scheduler: %w: one cycle of %s is %d ticks, quantum must be at least %d",
				ErrQuantumTooShort, d.Name, p, p-1)
		}
	}
	return clocks.Time(q), nil
}

// Timeslice runs every device up to the end of the next timeslice and then
// advances the timer queue.
func (s *Scheduler) Timeslice() error {
	quantum, err := s.Quantum()
	if err != nil {
		return err
	}

	now := s.queue.Now()
	s.sliceEnd = now + quantum
	if next := s.queue.Next(); next < s.sliceEnd {
		s.sliceEnd = next
	}

	// devices that are resumed during the timeslice by a device later in the
	// round-robin order are given the chance to run in another pass
	for ran := true; ran; {
		ran = false
		for _, d := range s.devices {
			if d.State == device.Running && d.Time() < s.sliceEnd {
				s.run(d)
				ran = true
			}
		}
	}

	for _, d := range s.devices {
		switch d.State {
		case device.Suspended, device.Waiting:
			d.IdleTo(s.sliceEnd)
		}
	}

	for {
		err := s.queue.AdvanceTo(s.sliceEnd)
		if err == nil {
			break
		}
		var cascade *timer.CascadeError
		if errors.As(err, &cascade) {
			if d := s.find(cascade.Owner); d != nil {
				s.fault(d, err)
				continue
			}
		}
		logger.Log(s.ins, "scheduler", err)
		return fmt.Errorf("scheduler: %w", err)
	}

	s.Stats.Timeslices++

	return s.checkSuspended()
}

// checkSuspended returns an error if no device can run again. A suspended
// device can only be resumed by another device or by a timer event.
func (s *Scheduler) checkSuspended() error {
	if len(s.devices) == 0 {
		return nil
	}

	faulted := 0
	for _, d := range s.devices {
		if d.State != device.Suspended {
			return nil
		}
		if d.Faulted {
			faulted++
		}
	}

	if faulted == len(s.devices) {
		return fmt.Errorf("scheduler: %w", ErrAllFaulted)
	}
	if s.queue.Len() == 0 {
		return fmt.Errorf("scheduler: %w", ErrAllSuspended)
	}
	return nil
}

// run steps the device until it reaches the end of the timeslice or until it
// stops running.
func (s *Scheduler) run(d *device.Device) {
	s.current = d
	defer func() {
		s.current = nil
	}()

	for d.State == device.Running && d.Time() < s.sliceEnd {
		var cycles int
		var err error

		if id, ok := d.Lines.Sample(d.Proc.AcceptInterrupt); ok {
			cycles, err = d.Proc.TakeInterrupt(id)
			s.Stats.Interrupts++
		} else {
			cycles, err = d.Proc.Step()
			s.Stats.Steps++
		}

		if err != nil {
			s.fault(d, err)
			return
		}

		// every step makes progress
		if cycles < 1 {
			cycles = 1
		}
		d.Cycles += uint64(cycles)
	}
}

func (s *Scheduler) find(name string) *device.Device {
	for _, d := range s.devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// clamp brings the end of the current timeslice forward if the time is
// before it.
func (s *Scheduler) clamp(t clocks.Time) {
	if t < s.sliceEnd {
		s.sliceEnd = t
	}
}

// ScheduleAfter schedules a timer event. If a device is being stepped the
// delay is relative to the local time of that device and the device owns the
// event. Otherwise the delay is relative to machine time and the event is not
// owned by any device.
func (s *Scheduler) ScheduleAfter(delay clocks.Time, payload uint64, cb timer.Callback, interval clocks.Time) (timer.Handle, error) {
	var owner string
	if s.current != nil {
		owner = s.current.Name
	}
	target := s.LocalNow() + delay
	h, err := s.queue.ScheduleAt(target, payload, cb, interval, owner)
	if err != nil {
		return 0, err
	}
	if s.current != nil {
		s.clamp(target)
	}
	return h, nil
}

// Resynchronize stops the device currently being stepped until machine time
// reaches the local time of the device plus delay. The effects are applied
// when that time is reached, before the device runs again.
//
// If no device is being stepped then the effects are applied when machine
// time reaches the current machine time plus delay.
//
// A second resynchronisation by the same device before the first has
// completed adds the effects to the first. The target time is moved later if
// required but never earlier.
func (s *Scheduler) Resynchronize(delay clocks.Time, effects ...Effect) error {
	d := s.current
	target := s.LocalNow() + delay

	if d != nil {
		if p := s.pendingFor(d); p != nil {
			p.effects = append(p.effects, effects...)
			if target > p.target {
				s.queue.Cancel(p.handle)
				h, err := s.queue.ScheduleAt(target, p.id, s.resyncCB, 0, d.Name)
				if err != nil {
					return fmt.Errorf("scheduler: %w", err)
				}
				p.handle = h
				p.target = target
			}
			s.clamp(p.target)
			return nil
		}
	}

	p := &pending{
		id:      s.nextID,
		device:  d,
		target:  target,
		effects: effects,
	}

	var owner string
	if d != nil {
		owner = d.Name
	}
	h, err := s.queue.ScheduleAt(target, p.id, s.resyncCB, 0, owner)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	p.handle = h

	s.nextID++
	s.pending[p.id] = p
	s.Stats.Resyncs++

	if d != nil {
		d.State = device.Waiting
		s.clamp(target)
	}

	return nil
}

func (s *Scheduler) pendingFor(d *device.Device) *pending {
	for _, p := range s.pending {
		if p.device == d {
			return p
		}
	}
	return nil
}

// resynchronised is the timer callback that completes a resynchronisation.
func (s *Scheduler) resynchronised(id uint64) {
	p, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)

	for _, e := range p.effects {
		if err := s.apply(e); err != nil {
			logger.Logf(s.ins, "scheduler", "resynchronisation effect: %v", err)
		}
	}

	if d := p.device; d != nil {
		d.IdleTo(p.target)
		if d.State == device.Waiting {
			d.State = device.Running
		}
	}
}

// cancelPending cancels the resynchronisation of the device without applying
// any effects.
func (s *Scheduler) cancelPending(d *device.Device, reason string) {
	p := s.pendingFor(d)
	if p == nil {
		return
	}
	s.queue.Cancel(p.handle)
	delete(s.pending, p.id)
	if len(p.effects) > 0 {
		logger.Logf(s.ins, "scheduler", "%s: %s: resynchronisation cancelled (%d effects dropped)", d.Name, reason, len(p.effects))
	} else {
		logger.Logf(s.ins, "scheduler", "%s: %s: resynchronisation cancelled", d.Name, reason)
	}
}

// Halt suspends the device. A device waiting for resynchronisation remains
// suspended when the resynchronisation completes.
func (s *Scheduler) Halt(d *device.Device) {
	d.State = device.Suspended
}

// Resume a suspended device. Resuming a device that is not suspended does
// nothing. A faulted device can not be resumed.
func (s *Scheduler) Resume(d *device.Device) error {
	if d.Faulted {
		return fmt.Errorf("scheduler: %s: %w: %v", d.Name, ErrFaulted, d.Fault)
	}
	if d.State != device.Suspended {
		return nil
	}
	if s.pendingFor(d) != nil {
		d.State = device.Waiting
	} else {
		d.State = device.Running
	}
	return nil
}

// Fault suspends the device and records the fault. Timer events owned by the
// device are cancelled.
func (s *Scheduler) Fault(d *device.Device, err error) {
	s.fault(d, err)
}

func (s *Scheduler) fault(d *device.Device, err error) {
	d.State = device.Suspended
	d.Faulted = true
	d.Fault = err
	s.Stats.Faults++
	logger.Logf(s.ins, "scheduler", "%s: fault: %v", d.Name, err)
	s.cancelPending(d, "fault")
	s.queue.CancelOwner(d.Name)
}

// Reset every device. Pending resynchronisations are cancelled without their
// effects being applied. Timer events owned by devices are cancelled. Machine
// time and the local time of each device are not changed.
func (s *Scheduler) Reset() {
	for _, id := range s.pendingIDs() {
		p := s.pending[id]
		if p.device == nil {
			s.queue.Cancel(p.handle)
			delete(s.pending, id)
			logger.Logf(s.ins, "scheduler", "reset: deferred effects cancelled (%d effects dropped)", len(p.effects))
		}
	}
	for _, d := range s.devices {
		s.cancelPending(d, "reset")
		s.queue.CancelOwner(d.Name)
		d.Proc.Reset()
		d.Lines.Reset()
		d.State = d.InitialState
		d.Faulted = false
		d.Fault = nil
	}
}

// pendingIDs returns the IDs of the pending resynchronisations in ascending
// order.
func (s *Scheduler) pendingIDs() []uint64 {
	ids := make([]uint64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
