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

package scheduler

import (
	"errors"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/timer"
)

// DeviceState is the saved state of a single device.
type DeviceState struct {
	Name    string
	Cycles  uint64
	State   device.State
	Faulted bool
	Fault   string
}

// PendingState is the saved state of a resynchronisation that has not yet
// completed. The target is saved relative to machine time.
type PendingState struct {
	ID      uint64
	Device  string
	Delay   clocks.Time
	Handle  timer.Handle
	Effects []Effect
}

// State is the saved state of the scheduler. It does not include the timer
// queue, which must be restored before the scheduler.
type State struct {
	Devices []DeviceState
	Pending []PendingState
	NextID  uint64
	Stats   Stats
}

// Snapshot returns the state of the scheduler.
func (s *Scheduler) Snapshot() State {
	st := State{
		NextID: s.nextID,
		Stats:  s.Stats,
	}
	for _, d := range s.devices {
		ds := DeviceState{
			Name:    d.Name,
			Cycles:  d.Cycles,
			State:   d.State,
			Faulted: d.Faulted,
		}
		if d.Fault != nil {
			ds.Fault = d.Fault.Error()
		}
		st.Devices = append(st.Devices, ds)
	}
	now := s.queue.Now()
	for _, id := range s.pendingIDs() {
		p := s.pending[id]
		ps := PendingState{
			ID:      p.id,
			Delay:   p.target - now,
			Handle:  p.handle,
			Effects: append([]Effect(nil), p.effects...),
		}
		if p.device != nil {
			ps.Device = p.device.Name
		}
		st.Pending = append(st.Pending, ps)
	}
	return st
}

// Plumb restores the state of the scheduler. The devices of the scheduler
// must be the same, and in the same order, as those of the scheduler the
// state was taken from.
func (s *Scheduler) Plumb(st State) error {
	if len(st.Devices) != len(s.devices) {
		return fmt.Errorf("scheduler: restore: %d devices in state, expected %d", len(st.Devices), len(s.devices))
	}
	for i, ds := range st.Devices {
		if ds.Name != s.devices[i].Name {
			return fmt.Errorf("scheduler: restore: device %q in state, expected %q", ds.Name, s.devices[i].Name)
		}
	}

	pend := make(map[uint64]*pending, len(st.Pending))
	now := s.queue.Now()
	for _, ps := range st.Pending {
		p := &pending{
			id:      ps.ID,
			target:  now + ps.Delay,
			handle:  ps.Handle,
			effects: append([]Effect(nil), ps.Effects...),
		}
		if ps.Device != "" {
			p.device = s.find(ps.Device)
			if p.device == nil {
				return fmt.Errorf("scheduler: restore: unknown device %q", ps.Device)
			}
		}
		if !s.queue.Pending(p.handle) {
			return fmt.Errorf("scheduler: restore: resynchronisation %d has no timer event", ps.ID)
		}
		pend[p.id] = p
	}

	for i, ds := range st.Devices {
		d := s.devices[i]
		d.Cycles = ds.Cycles
		d.State = ds.State
		d.Faulted = ds.Faulted
		d.Fault = nil
		if ds.Fault != "" {
			d.Fault = errors.New(ds.Fault)
		}
	}

	s.pending = pend
	s.nextID = st.NextID
	s.Stats = st.Stats

	return nil
}
