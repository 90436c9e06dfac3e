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
	"fmt"
	"slices"

	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory/bank"
	"github.com/lockstep-emu/lockstep/hardware/memory/faults"
	"github.com/lockstep-emu/lockstep/hardware/scheduler"
	"github.com/lockstep-emu/lockstep/hardware/timer"
)

// State stores the state of a started machine. It is produced by the
// Snapshot() function and can be restored with the Plumb() function.
//
// The configuration of the machine is not part of the state. Things are
// referred to by name and in configuration order.
type State struct {
	Queue     timer.State
	Scheduler scheduler.State

	// bank states and interrupt lines, in configuration order
	Banks []bank.State
	Lines [][]interrupts.Line

	// contents of the backing stores, in configuration order
	Stores [][]byte

	// the fault log and the number of diagnostics logged by each address
	// space, in configuration order
	Faults []faults.Entry
	Logged []int

	// state of processors and other stateful parts of the machine, keyed by
	// name
	Stateful map[string][]byte
}

// Snapshot creates a copy of a previously snapshotted State.
func (s *State) Snapshot() *State {
	n := &State{
		Queue:     s.Queue,
		Scheduler: s.Scheduler,
		Banks:     slices.Clone(s.Banks),
		Faults:    slices.Clone(s.Faults),
		Logged:    slices.Clone(s.Logged),
		Stateful:  make(map[string][]byte, len(s.Stateful)),
	}
	n.Queue.Events = slices.Clone(s.Queue.Events)
	n.Scheduler.Devices = slices.Clone(s.Scheduler.Devices)
	n.Scheduler.Pending = make([]scheduler.PendingState, len(s.Scheduler.Pending))
	for i, p := range s.Scheduler.Pending {
		n.Scheduler.Pending[i] = p
		n.Scheduler.Pending[i].Effects = slices.Clone(p.Effects)
	}
	for _, l := range s.Lines {
		n.Lines = append(n.Lines, slices.Clone(l))
	}
	for _, d := range s.Stores {
		n.Stores = append(n.Stores, slices.Clone(d))
	}
	for k, v := range s.Stateful {
		n.Stateful[k] = slices.Clone(v)
	}
	return n
}

// Snapshot the state of the machine. Should only be called between
// timeslices.
func (m *Machine) Snapshot() (*State, error) {
	m.owner.Check("Snapshot")
	if !m.started {
		return nil, fmt.Errorf("hardware: snapshot: %w", ErrNotStarted)
	}
	if m.sched.Current() != nil {
		return nil, fmt.Errorf("hardware: snapshot: called while a device is being stepped")
	}

	s := &State{
		Queue:     m.queue.Snapshot(),
		Scheduler: m.sched.Snapshot(),
		Faults:    m.Faults.Snapshot(),
		Stateful:  make(map[string][]byte, len(m.statefulNames)),
	}
	for _, as := range m.spaces {
		s.Logged = append(s.Logged, as.Logged())
	}
	for _, n := range m.bankNames {
		s.Banks = append(s.Banks, m.banks[n].State())
	}
	for _, d := range m.sched.Devices() {
		s.Lines = append(s.Lines, d.Lines.Snapshot())
	}
	for _, n := range m.storeNames {
		s.Stores = append(s.Stores, m.stores[n].Snapshot().Data())
	}
	for _, n := range m.statefulNames {
		data, err := m.stateful[n].SaveState()
		if err != nil {
			return nil, fmt.Errorf("hardware: snapshot: %s: %w", n, err)
		}
		s.Stateful[n] = data
	}

	return s, nil
}

// Plumb a previously snapshotted state into the machine. The state is checked
// against the configuration of the machine before anything is changed. The
// machine keeps its own copy of the state.
func (m *Machine) Plumb(state *State) error {
	m.owner.Check("Plumb")
	if state == nil {
		return fmt.Errorf("hardware: plumb: nil state")
	}
	if !m.started {
		return fmt.Errorf("hardware: plumb: %w", ErrNotStarted)
	}
	if err := m.compatible(state); err != nil {
		return fmt.Errorf("hardware: plumb: %w", err)
	}

	// take a copy of the state before plumbing. we don't want the machine to
	// change the state the caller holds
	state = state.Snapshot()

	for i, n := range m.storeNames {
		if err := m.stores[n].Restore(state.Stores[i]); err != nil {
			return fmt.Errorf("hardware: plumb: %w", err)
		}
	}
	for i, n := range m.bankNames {
		if err := m.banks[n].Restore(state.Banks[i]); err != nil {
			return fmt.Errorf("hardware: plumb: %w", err)
		}
	}
	for i, d := range m.sched.Devices() {
		if err := d.Lines.Plumb(state.Lines[i]); err != nil {
			return fmt.Errorf("hardware: plumb: %w", err)
		}
	}
	m.Faults.Restore(state.Faults)
	for i, as := range m.spaces {
		as.SetLogged(state.Logged[i])
	}
	if err := m.queue.Plumb(state.Queue); err != nil {
		return fmt.Errorf("hardware: plumb: %w", err)
	}
	if err := m.sched.Plumb(state.Scheduler); err != nil {
		return fmt.Errorf("hardware: plumb: %w", err)
	}
	for _, n := range m.statefulNames {
		if err := m.stateful[n].RestoreState(state.Stateful[n]); err != nil {
			return fmt.Errorf("hardware: plumb: %s: %w", n, err)
		}
	}

	return nil
}

// compatible checks that the state was taken from a machine configured in the
// same way.
func (m *Machine) compatible(state *State) error {
	devices := m.sched.Devices()
	if len(state.Scheduler.Devices) != len(devices) || len(state.Lines) != len(devices) {
		return fmt.Errorf("state has %d devices, expected %d", len(state.Scheduler.Devices), len(devices))
	}
	for i, d := range devices {
		if state.Scheduler.Devices[i].Name != d.Name {
			return fmt.Errorf("state has device %q, expected %q", state.Scheduler.Devices[i].Name, d.Name)
		}
		if len(state.Lines[i]) != len(d.Lines.Snapshot()) {
			return fmt.Errorf("state has %d interrupt lines for %q", len(state.Lines[i]), d.Name)
		}
	}

	if len(state.Stores) != len(m.storeNames) {
		return fmt.Errorf("state has %d stores, expected %d", len(state.Stores), len(m.storeNames))
	}
	for i, n := range m.storeNames {
		if len(state.Stores[i]) != m.stores[n].Len() {
			return fmt.Errorf("state has store of %d bytes, expected %d for %q", len(state.Stores[i]), m.stores[n].Len(), n)
		}
	}

	if len(state.Banks) != len(m.bankNames) {
		return fmt.Errorf("state has %d banks, expected %d", len(state.Banks), len(m.bankNames))
	}

	if len(state.Logged) != len(m.spaces) {
		return fmt.Errorf("state has %d address spaces, expected %d", len(state.Logged), len(m.spaces))
	}

	for _, e := range state.Queue.Events {
		if !m.queue.Registered(e.Callback) {
			return fmt.Errorf("%w: %s", timer.ErrUnknownCallback, e.Callback)
		}
	}
	for _, p := range state.Scheduler.Pending {
		if !slices.ContainsFunc(state.Queue.Events, func(e timer.EventState) bool {
			return e.Handle == p.Handle
		}) {
			return fmt.Errorf("resynchronisation %d has no timer event", p.ID)
		}
	}

	if len(state.Stateful) != len(m.statefulNames) {
		return fmt.Errorf("state has %d stateful parts, expected %d", len(state.Stateful), len(m.statefulNames))
	}
	for _, n := range m.statefulNames {
		if _, ok := state.Stateful[n]; !ok {
			return fmt.Errorf("state is missing %q", n)
		}
	}

	return nil
}
