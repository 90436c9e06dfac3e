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

// Package timer implements the timer queue of a machine. The queue holds
// events that will fire at a future machine time. An event is either one-shot
// or periodic.
//
// The queue does not advance by itself. The scheduler calls AdvanceTo() at
// the end of every timeslice and all events with a target time at or before
// the new time are fired, in target time order. Events with the same target
// time fire in the order they were scheduled.
//
// Callbacks are registered with the queue by name. Events refer to callbacks
// by that name, which means the contents of the queue can be saved and
// restored.
package timer

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// Handle identifies a scheduled event. The zero value is never a valid handle.
type Handle uint64

// Callback is the name of a registered callback function.
type Callback string

// Func is a callback function. The payload is the value given to the event
// when it was scheduled.
type Func func(payload uint64)

// Sentinel errors.
var (
	ErrUnknownCallback   = errors.New("unknown callback")
	ErrDuplicateCallback = errors.New("duplicate callback")
)

// CascadeError is returned by AdvanceTo() when too many events fire during a
// single call. This is almost always caused by a callback that schedules
// another event with a delay of zero. The event that exceeded the limit is
// dropped.
type CascadeError struct {
	Owner    string
	Callback Callback
	Target   clocks.Time
	Limit    int
}

func (e *CascadeError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("timer: cascade of more than %d events: %s at %d", e.Limit, e.Callback, e.Target)
	}
	return fmt.Sprintf("timer: cascade of more than %d events: %s (%s) at %d", e.Limit, e.Callback, e.Owner, e.Target)
}

type event struct {
	handle   Handle
	target   clocks.Time
	interval clocks.Time
	payload  uint64
	callback Callback
	owner    string
	seq      uint64

	// position in the heap
	index int
}

// Queue is a priority queue of events.
type Queue struct {
	now clocks.Time

	events   eventHeap
	byHandle map[Handle]*event

	callbacks map[Callback]Func

	nextHandle Handle
	nextSeq    uint64

	maxCascade int
}

// NewQueue is the preferred method of initialisation for the Queue type. The
// maxCascade value is the maximum number of events that can fire in a single
// call to AdvanceTo().
func NewQueue(maxCascade int) *Queue {
	return &Queue{
		byHandle:   make(map[Handle]*event),
		callbacks:  make(map[Callback]Func),
		nextHandle: 1,
		maxCascade: maxCascade,
	}
}

func (q *Queue) String() string {
	return fmt.Sprintf("now: %d, pending: %d", q.now, len(q.events))
}

// SetMaxCascade changes the maximum number of events that can fire in a
// single call to AdvanceTo().
func (q *Queue) SetMaxCascade(maxCascade int) {
	q.maxCascade = maxCascade
}

// Register a callback function with the queue.
func (q *Queue) Register(name string, fn Func) (Callback, error) {
	if name == "" || fn == nil {
		return "", fmt.Errorf("timer: invalid callback registration")
	}
	cb := Callback(name)
	if _, ok := q.callbacks[cb]; ok {
		return "", fmt.Errorf("timer: %w: %s", ErrDuplicateCallback, name)
	}
	q.callbacks[cb] = fn
	return cb, nil
}

// Registered returns true if the callback has been registered.
func (q *Queue) Registered(cb Callback) bool {
	_, ok := q.callbacks[cb]
	return ok
}

// Now returns the current time of the queue. While an event is firing, Now()
// returns the target time of that event.
func (q *Queue) Now() clocks.Time {
	return q.now
}

// ScheduleAfter schedules an event to fire delay ticks after the current time
// of the queue. An interval of zero means the event is one-shot.
func (q *Queue) ScheduleAfter(delay clocks.Time, payload uint64, cb Callback, interval clocks.Time) (Handle, error) {
	return q.ScheduleAt(q.now+delay, payload, cb, interval, "")
}

// ScheduleAt schedules an event to fire at the target time. A target time in
// the past is treated as the current time of the queue. The owner is the name
// of the device that owns the event, or the empty string for global events.
func (q *Queue) ScheduleAt(target clocks.Time, payload uint64, cb Callback, interval clocks.Time, owner string) (Handle, error) {
	if _, ok := q.callbacks[cb]; !ok {
		return 0, fmt.Errorf("timer: %w: %s", ErrUnknownCallback, cb)
	}
	if target < q.now {
		target = q.now
	}

	e := &event{
		handle:   q.nextHandle,
		target:   target,
		interval: interval,
		payload:  payload,
		callback: cb,
		owner:    owner,
		seq:      q.nextSeq,
	}
	q.nextHandle++
	q.nextSeq++

	heap.Push(&q.events, e)
	q.byHandle[e.handle] = e

	return e.handle, nil
}

// Cancel the event. Returns false if the event is no longer pending, in which
// case there is nothing to do.
func (q *Queue) Cancel(h Handle) bool {
	e, ok := q.byHandle[h]
	if !ok {
		return false
	}
	delete(q.byHandle, h)
	if e.index >= 0 {
		heap.Remove(&q.events, e.index)
	}
	return true
}

// CancelOwner cancels every event owned by the device. Returns the number of
// events cancelled.
func (q *Queue) CancelOwner(owner string) int {
	var handles []Handle
	for h, e := range q.byHandle {
		if e.owner == owner {
			handles = append(handles, h)
		}
	}
	for _, h := range handles {
		q.Cancel(h)
	}
	return len(handles)
}

// Pending returns true if the event has not yet fired or been cancelled.
// Periodic events are always pending until they are cancelled.
func (q *Queue) Pending(h Handle) bool {
	_, ok := q.byHandle[h]
	return ok
}

// Target returns the target time of a pending event.
func (q *Queue) Target(h Handle) (clocks.Time, bool) {
	e, ok := q.byHandle[h]
	if !ok {
		return 0, false
	}
	return e.target, true
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Next returns the target time of the next event to fire. Returns clocks.Never
// if there are no pending events.
func (q *Queue) Next() clocks.Time {
	if len(q.events) == 0 {
		return clocks.Never
	}
	return q.events[0].target
}

// AdvanceTo moves the time of the queue forward, firing every event with a
// target time at or before t. Events scheduled by a callback fire during the
// same call if their target time is at or before t.
//
// The time of the queue never moves backwards. A value of t earlier than the
// current time fires nothing.
func (q *Queue) AdvanceTo(t clocks.Time) error {
	var count int

	for len(q.events) > 0 && q.events[0].target <= t {
		e := heap.Pop(&q.events).(*event)
		if e.target > q.now {
			q.now = e.target
		}

		count++
		if q.maxCascade > 0 && count > q.maxCascade {
			delete(q.byHandle, e.handle)
			return &CascadeError{
				Owner:    e.owner,
				Callback: e.callback,
				Target:   e.target,
				Limit:    q.maxCascade,
			}
		}

		if e.interval > 0 {
			// periodic events are rescheduled from the original target time
			// so that irregular advances do not cause drift
			e.target += e.interval
			e.seq = q.nextSeq
			q.nextSeq++
			heap.Push(&q.events, e)
		} else {
			delete(q.byHandle, e.handle)
		}

		q.callbacks[e.callback](e.payload)
	}

	if t > q.now {
		q.now = t
	}

	return nil
}

// EventState is the saved state of a single event. The target time of the
// event is saved relative to the time of the queue.
type EventState struct {
	Handle   Handle
	Delay    clocks.Time
	Interval clocks.Time
	Payload  uint64
	Callback Callback
	Owner    string
	Seq      uint64
}

// State is the saved state of the queue. It does not include the registered
// callbacks, which must be registered with a queue before state is restored.
type State struct {
	Now        clocks.Time
	NextHandle Handle
	NextSeq    uint64
	Events     []EventState
}

// Snapshot returns the state of the queue. Events are listed in firing order.
func (q *Queue) Snapshot() State {
	s := State{
		Now:        q.now,
		NextHandle: q.nextHandle,
		NextSeq:    q.nextSeq,
		Events:     make([]EventState, 0, len(q.events)),
	}
	for _, e := range q.events {
		s.Events = append(s.Events, EventState{
			Handle:   e.handle,
			Delay:    e.target - q.now,
			Interval: e.interval,
			Payload:  e.payload,
			Callback: e.callback,
			Owner:    e.owner,
			Seq:      e.seq,
		})
	}
	sort.Slice(s.Events, func(i, j int) bool {
		if s.Events[i].Delay == s.Events[j].Delay {
			return s.Events[i].Seq < s.Events[j].Seq
		}
		return s.Events[i].Delay < s.Events[j].Delay
	})
	return s
}

// Plumb replaces the contents of the queue with the saved state. Every
// callback referred to by the state must have been registered.
func (q *Queue) Plumb(s State) error {
	for _, es := range s.Events {
		if _, ok := q.callbacks[es.Callback]; !ok {
			return fmt.Errorf("timer: restore: %w: %s", ErrUnknownCallback, es.Callback)
		}
	}

	q.now = s.Now
	q.nextHandle = s.NextHandle
	q.nextSeq = s.NextSeq
	q.events = q.events[:0]
	clear(q.byHandle)

	for _, es := range s.Events {
		e := &event{
			handle:   es.Handle,
			target:   s.Now + es.Delay,
			interval: es.Interval,
			payload:  es.Payload,
			callback: es.Callback,
			owner:    es.Owner,
			seq:      es.Seq,
		}
		heap.Push(&q.events, e)
		q.byHandle[e.handle] = e
	}

	return nil
}
