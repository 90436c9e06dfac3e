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

package scheduler_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/scheduler"
	"github.com/lockstep-emu/lockstep/hardware/timer"
	"github.com/lockstep-emu/lockstep/test"
)

// proc is a processor for testing. every step takes the same number of
// cycles. the step function is called at the start of every step
type proc struct {
	d      *device.Device
	cycles int
	step   func(p *proc) error
	accept bool
	taken  []clocks.Time
	steps  int
	resets int
}

func (p *proc) Step() (int, error) {
	p.steps++
	if p.step != nil {
		if err := p.step(p); err != nil {
			return 0, err
		}
	}
	return p.cycles, nil
}

func (p *proc) AcceptInterrupt(interrupts.ID) bool {
	return p.accept
}

func (p *proc) TakeInterrupt(interrupts.ID) (int, error) {
	p.taken = append(p.taken, p.d.Time())
	return p.cycles, nil
}

func (p *proc) Reset() {
	p.resets++
}

// note is an effect that records a value
type note struct {
	value int
}

func (n note) String() string {
	return fmt.Sprintf("note %d", n.value)
}

type applied struct {
	time  clocks.Time
	value int
}

type fixture struct {
	t       *testing.T
	ins     *instance.Instance
	q       *timer.Queue
	s       *scheduler.Scheduler
	applied []applied
}

func newFixture(t *testing.T, quantum int, maxCascade int) *fixture {
	t.Helper()

	ins, err := instance.NewInstance("test", nil)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, ins.Prefs.Quantum.Set(quantum))

	f := &fixture{
		t:   t,
		ins: ins,
		q:   timer.NewQueue(maxCascade),
	}
	f.s, err = scheduler.NewScheduler(ins, f.q)
	test.DemandSuccess(t, err)

	f.s.SetApplier(func(e scheduler.Effect) error {
		n, ok := e.(note)
		if !ok {
			return fmt.Errorf("unexpected effect: %s", e)
		}
		f.applied = append(f.applied, applied{time: f.q.Now(), value: n.value})
		return nil
	})

	return f
}

func (f *fixture) add(name string, clock clocks.Hz, reference clocks.Hz, p *proc) *device.Device {
	f.t.Helper()
	d, err := device.NewDevice(name, clock, p)
	test.DemandSuccess(f.t, err)
	test.DemandSuccess(f.t, d.SetReference(reference))
	p.d = d
	f.s.AddDevice(d)
	return d
}

func (f *fixture) runUntil(t clocks.Time) error {
	for f.s.Now() < t {
		if err := f.s.Timeslice(); err != nil {
			return err
		}
	}
	return nil
}

func TestQuantumUnset(t *testing.T) {
	f := newFixture(t, 0, 100)
	f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1})
	err := f.s.Timeslice()
	test.ExpectError(t, err, scheduler.ErrQuantumUnset)
}

func TestClockRatio(t *testing.T) {
	const quantum = 10

	f := newFixture(t, quantum, 100)
	a := f.add("a", 4*clocks.MHz, 4*clocks.MHz, &proc{cycles: 1})
	b := f.add("b", clocks.MHz, 4*clocks.MHz, &proc{cycles: 1})

	var last clocks.Time
	for f.s.Now() < 1000 {
		test.DemandSuccess(t, f.s.Timeslice())
		now := f.s.Now()

		// monotonic time
		test.ExpectEquality(t, now >= last, true)
		last = now

		// quantum bound
		for _, d := range []*device.Device{a, b} {
			diff := int64(d.Time()) - int64(now)
			test.ExpectEquality(t, diff >= -quantum && diff <= quantum, true, d.Name, diff)
		}
	}

	test.ExpectEquality(t, f.s.Now(), clocks.Time(1000))
	test.ExpectEquality(t, a.Cycles, uint64(1000))
	test.ExpectApproximate(t, int64(b.Cycles), 250, float64(quantum)/250)
}

// a device with a slow clock takes more than one tick for every cycle. the
// quantum can be no shorter than that, less one tick.
func TestQuantumTooShort(t *testing.T) {
	f := newFixture(t, 2, 100)
	a := f.add("a", 4*clocks.MHz, 4*clocks.MHz, &proc{cycles: 1})
	b := f.add("b", clocks.MHz, 4*clocks.MHz, &proc{cycles: 1})
	test.ExpectEquality(t, b.Period(), clocks.Time(4))

	err := f.s.Timeslice()
	test.ExpectError(t, err, scheduler.ErrQuantumTooShort)
	test.ExpectEquality(t, f.s.Now(), clocks.Time(0))

	const quantum = 3
	test.DemandSuccess(t, f.ins.Prefs.Quantum.Set(quantum))

	var worst int64
	for range 100 {
		test.DemandSuccess(t, f.s.Timeslice())
		now := f.s.Now()
		for _, d := range []*device.Device{a, b} {
			diff := int64(d.Time()) - int64(now)
			test.ExpectEquality(t, diff >= 0 && diff <= quantum, true, d.Name, diff)
			worst = max(worst, diff)
		}
	}

	// the bound is reached but never exceeded
	test.ExpectEquality(t, worst, int64(quantum))
}

func TestTimerClampsTimeslice(t *testing.T) {
	f := newFixture(t, 100, 100)
	a := f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1})

	var fired clocks.Time
	cb, err := f.q.Register("test", func(uint64) {
		fired = a.Time()
	})
	test.DemandSuccess(t, err)
	_, err = f.q.ScheduleAfter(25, 0, cb, 0)
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, f.s.Timeslice())
	test.ExpectEquality(t, f.s.Now(), clocks.Time(25))
	test.ExpectEquality(t, fired, clocks.Time(25))
}

func TestScheduleDuringStep(t *testing.T) {
	f := newFixture(t, 100, 100)

	var fired []clocks.Time
	cb, err := f.q.Register("test", func(uint64) {
		fired = append(fired, f.q.Now())
	})
	test.DemandSuccess(t, err)

	f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		if p.d.Time() == 10 {
			_, err := f.s.ScheduleAfter(5, 0, cb, 0)
			return err
		}
		return nil
	}})

	// event is scheduled relative to the local time of the device and the
	// timeslice ends at the target time of the event
	test.DemandSuccess(t, f.s.Timeslice())
	test.ExpectEquality(t, f.s.Now(), clocks.Time(15))
	test.DemandEquality(t, len(fired), 1)
	test.ExpectEquality(t, fired[0], clocks.Time(15))
}

func TestResyncVisibility(t *testing.T) {
	for _, writerFirst := range []bool{true, false} {
		f := newFixture(t, 100, 100)

		var shared int
		f.s.SetApplier(func(e scheduler.Effect) error {
			shared = e.(note).value
			f.applied = append(f.applied, applied{time: f.q.Now(), value: shared})
			return nil
		})

		var resyncAt clocks.Time
		writer := &proc{cycles: 1, step: func(p *proc) error {
			if p.d.Time() == 9 {
				resyncAt = p.d.Time()
				return f.s.Resynchronize(0, note{value: 42})
			}
			return nil
		}}

		type observation struct {
			time  clocks.Time
			value int
		}
		var observed []observation
		reader := &proc{cycles: 1, step: func(p *proc) error {
			observed = append(observed, observation{time: p.d.Time(), value: shared})
			return nil
		}}

		if writerFirst {
			f.add("writer", clocks.MHz, clocks.MHz, writer)
			f.add("reader", clocks.MHz, clocks.MHz, reader)
		} else {
			f.add("reader", clocks.MHz, clocks.MHz, reader)
			f.add("writer", clocks.MHz, clocks.MHz, writer)
		}

		test.DemandSuccess(t, f.runUntil(300))

		test.DemandEquality(t, len(f.applied), 1)
		test.ExpectEquality(t, f.applied[0].time, resyncAt)

		var seen bool
		for _, o := range observed {
			if o.value == 42 {
				seen = true
				test.ExpectEquality(t, o.time >= resyncAt, true, writerFirst, o.time)
			}
		}
		test.ExpectEquality(t, seen, true)

		// writer continued after the resynchronisation
		test.ExpectEquality(t, writer.steps > 10, true)
	}
}

func TestResyncState(t *testing.T) {
	f := newFixture(t, 100, 100)

	var states []device.State
	var w *device.Device
	w = f.add("w", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		if p.d.Time() == 5 {
			err := f.s.Resynchronize(50, note{value: 1})
			states = append(states, w.State)
			return err
		}
		return nil
	}})
	f.add("other", clocks.MHz, clocks.MHz, &proc{cycles: 1})

	test.DemandSuccess(t, f.s.Timeslice())
	test.ExpectEquality(t, states[0], device.Waiting)
	test.ExpectEquality(t, f.s.Now(), clocks.Time(55))

	// the device was released at the target time
	test.ExpectEquality(t, w.State, device.Running)
	test.ExpectEquality(t, w.Time() >= 55, true)
	test.DemandEquality(t, len(f.applied), 1)
	test.ExpectEquality(t, f.applied[0].time, clocks.Time(55))
}

func TestInterruptDelivery(t *testing.T) {
	f := newFixture(t, 100, 100)
	p := &proc{cycles: 1, accept: true}
	d := f.add("cpu", clocks.MHz, clocks.MHz, p)
	test.DemandSuccess(t, d.Lines.Add(interrupts.NMI))

	cb, err := f.q.Register("nmi", func(uint64) {
		d.Lines.Assert(interrupts.NMI, interrupts.Pulse)
	})
	test.DemandSuccess(t, err)
	_, err = f.q.ScheduleAfter(5, 0, cb, 0)
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, f.runUntil(200))
	test.DemandEquality(t, len(p.taken), 1)
	test.ExpectEquality(t, p.taken[0], clocks.Time(5))
	test.ExpectEquality(t, f.s.Stats.Interrupts, uint64(1))
}

func TestFaultIsolation(t *testing.T) {
	f := newFixture(t, 10, 100)

	errBad := errors.New("bad opcode")
	a := f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		if p.steps == 3 {
			return errBad
		}
		return nil
	}})
	bp := &proc{cycles: 1}
	b := f.add("b", clocks.MHz, clocks.MHz, bp)

	test.DemandSuccess(t, f.runUntil(100))
	test.ExpectEquality(t, a.State, device.Suspended)
	test.ExpectEquality(t, a.Faulted, true)
	test.ExpectError(t, a.Fault, errBad)
	test.ExpectEquality(t, b.State, device.Running)
	test.ExpectEquality(t, b.Cycles, uint64(100))

	// suspended devices keep pace with machine time
	test.ExpectEquality(t, a.Time(), clocks.Time(100))

	// a faulted device can not be resumed
	test.ExpectFailure(t, f.s.Resume(a))

	// when every device has faulted the scheduler stops
	f.s.Fault(b, errBad)
	err := f.s.Timeslice()
	test.ExpectError(t, err, scheduler.ErrAllFaulted)

	// reset clears faults
	f.s.Reset()
	test.ExpectEquality(t, a.Faulted, false)
	test.ExpectEquality(t, b.State, device.Running)
	test.ExpectEquality(t, bp.resets, 1)
	test.ExpectSuccess(t, f.s.Timeslice())
}

func TestAllSuspended(t *testing.T) {
	f := newFixture(t, 10, 100)

	// a halts both devices every fifth step
	var a, b *device.Device
	a = f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		if p.steps%5 == 0 {
			f.s.Halt(b)
			f.s.Halt(p.d)
		}
		return nil
	}})
	b = f.add("b", clocks.MHz, clocks.MHz, &proc{cycles: 1})

	// a pending timer might resume a device so the machine keeps running
	wake, err := f.q.Register("wake", func(uint64) {
		test.ExpectSuccess(t, f.s.Resume(a))
	})
	test.DemandSuccess(t, err)
	_, err = f.q.ScheduleAfter(25, 0, wake, 0)
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, f.runUntil(25))
	test.ExpectEquality(t, a.State, device.Running)
	test.ExpectEquality(t, b.State, device.Suspended)

	// nothing can resume either device after this timeslice
	err = f.s.Timeslice()
	test.ExpectError(t, err, scheduler.ErrAllSuspended)
	test.ExpectEquality(t, a.State, device.Suspended)
	test.ExpectEquality(t, f.q.Len(), 0)
}

func TestFaultedAndHalted(t *testing.T) {
	f := newFixture(t, 10, 100)

	errBad := errors.New("bad opcode")
	var b *device.Device
	a := f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		switch p.steps {
		case 2:
			f.s.Halt(b)
		case 3:
			return errBad
		}
		return nil
	}})
	b = f.add("b", clocks.MHz, clocks.MHz, &proc{cycles: 1})

	err := f.s.Timeslice()
	test.ExpectError(t, err, scheduler.ErrAllSuspended)
	test.ExpectEquality(t, a.Faulted, true)
	test.ExpectEquality(t, b.Faulted, false)
}

func TestCascadeFaultsOwner(t *testing.T) {
	f := newFixture(t, 10, 10)
	a := f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1})
	b := f.add("b", clocks.MHz, clocks.MHz, &proc{cycles: 1})

	var loop timer.Callback
	loop, err := f.q.Register("loop", func(uint64) {
		f.q.ScheduleAt(f.q.Now(), 0, loop, 0, "a")
	})
	test.DemandSuccess(t, err)
	_, err = f.q.ScheduleAt(5, 0, loop, 0, "a")
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, f.runUntil(50))
	test.ExpectEquality(t, a.Faulted, true)
	var cascade *timer.CascadeError
	test.ExpectEquality(t, errors.As(a.Fault, &cascade), true)
	test.ExpectEquality(t, b.Faulted, false)

	// the first timeslice ends at the timer event so later timeslices are
	// offset from multiples of the quantum
	test.ExpectEquality(t, f.s.Now(), clocks.Time(55))
	test.ExpectEquality(t, b.Cycles, uint64(f.s.Now()))
}

func TestGlobalCascadeIsFatal(t *testing.T) {
	f := newFixture(t, 10, 10)
	f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1})

	var loop timer.Callback
	loop, err := f.q.Register("loop", func(uint64) {
		f.q.ScheduleAfter(0, 0, loop, 0)
	})
	test.DemandSuccess(t, err)
	_, err = f.q.ScheduleAfter(5, 0, loop, 0)
	test.DemandSuccess(t, err)

	err = f.runUntil(50)
	var cascade *timer.CascadeError
	test.ExpectEquality(t, errors.As(err, &cascade), true)
}

func TestResetCancelsResync(t *testing.T) {
	f := newFixture(t, 10, 100)
	w := f.add("w", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		if p.steps == 1 {
			return f.s.Resynchronize(1000, note{value: 1})
		}
		return nil
	}})

	test.DemandSuccess(t, f.runUntil(100))
	test.ExpectEquality(t, w.State, device.Waiting)

	f.s.Reset()
	test.ExpectEquality(t, w.State, device.Running)
	test.ExpectEquality(t, f.q.Len(), 0)

	test.DemandSuccess(t, f.runUntil(2000))
	test.ExpectEquality(t, len(f.applied), 0)

	w2 := &strings.Builder{}
	f.ins.Log.Write(w2)
	test.ExpectEquality(t, strings.Contains(w2.String(), "resynchronisation cancelled"), true)
}

func TestHaltAndResume(t *testing.T) {
	f := newFixture(t, 10, 100)

	bp := &proc{cycles: 1}
	var b *device.Device
	f.add("a", clocks.MHz, clocks.MHz, &proc{cycles: 1, step: func(p *proc) error {
		switch p.d.Time() {
		case 20:
			f.s.Halt(b)
		case 60:
			return f.s.Resume(b)
		}
		return nil
	}})
	b = f.add("b", clocks.MHz, clocks.MHz, bp)

	test.DemandSuccess(t, f.runUntil(100))

	// b ran from 0 to 20 and from 60 to 100
	test.ExpectEquality(t, bp.steps, 60)
	test.ExpectEquality(t, b.Cycles, uint64(100))
	test.ExpectEquality(t, b.State, device.Running)
}

func TestSnapshotAndPlumb(t *testing.T) {
	build := func() (*fixture, []*proc) {
		f := newFixture(t, 16, 100)
		step := func(p *proc) error {
			if p.d.Time()%50 == 7 {
				return f.s.Resynchronize(30, note{value: int(p.d.Time())})
			}
			return nil
		}
		a := &proc{cycles: 1, step: step}
		b := &proc{cycles: 3, step: step}
		f.add("a", 3*clocks.MHz, 3*clocks.MHz, a)
		f.add("b", clocks.MHz, 3*clocks.MHz, b)
		return f, []*proc{a, b}
	}

	f1, _ := build()
	test.DemandSuccess(t, f1.runUntil(120))

	qs := f1.q.Snapshot()
	ss := f1.s.Snapshot()
	test.ExpectEquality(t, len(ss.Pending), 1)
	split := len(f1.applied)

	f2, _ := build()
	test.DemandSuccess(t, f2.q.Plumb(qs))
	test.DemandSuccess(t, f2.s.Plumb(ss))

	test.DemandSuccess(t, f1.runUntil(1000))
	test.DemandSuccess(t, f2.runUntil(1000))

	for i, d := range f1.s.Devices() {
		test.ExpectEquality(t, d.Cycles, f2.s.Devices()[i].Cycles)
		test.ExpectEquality(t, d.State, f2.s.Devices()[i].State)
	}

	test.DemandEquality(t, len(f2.applied), len(f1.applied)-split)
	for i, a := range f2.applied {
		test.ExpectEquality(t, a, f1.applied[split+i])
	}
}
