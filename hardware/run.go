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
	"context"
	"fmt"

	"github.com/lockstep-emu/lockstep/debugger/govern"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// It can be expensive to do a full continue check after every timeslice. The
// PerformanceBrake is a standard value that can be used to filter out
// expensive code paths within a continueCheck() implementation. For example:
//
//	performanceFilter++
//	if performanceFilter >= hardware.PerformanceBrake {
//		performanceFilter = 0
//		if end_condition == true {
//			return govern.Ending, nil
//		}
//	}
//	return govern.Running, nil
const PerformanceBrake = 100

// Timeslice runs the machine for a single timeslice.
func (m *Machine) Timeslice() error {
	m.owner.Check("Timeslice")
	if !m.started {
		return fmt.Errorf("hardware: %w", ErrNotStarted)
	}
	if err := m.sched.Timeslice(); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	return nil
}

// RunUntil runs the machine until machine time is at least t. The context is
// checked between timeslices.
func (m *Machine) RunUntil(ctx context.Context, t clocks.Time) error {
	for m.queue.Now() < t {
		if err := ctx.Err(); err != nil {
			return err
		}

		// a timeslice never goes beyond the next timer event so a timer is
		// used to end the final timeslice exactly at t
		if m.queue.Next() > t {
			q, err := m.sched.Quantum()
			if err != nil {
				return fmt.Errorf("hardware: %w", err)
			}
			if m.queue.Now()+q > t {
				if err := m.stopAt(t); err != nil {
					return err
				}
				continue
			}
		}

		if err := m.Timeslice(); err != nil {
			return err
		}
	}
	return nil
}

// stopAt runs a single timeslice that ends at exactly t.
func (m *Machine) stopAt(t clocks.Time) error {
	h, err := m.queue.ScheduleAt(t, 0, m.stopCB, 0, "")
	if err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	defer m.queue.Cancel(h)
	return m.Timeslice()
}

// RunFor runs the machine for the duration, measured in ticks of the
// reference clock.
func (m *Machine) RunFor(ctx context.Context, d clocks.Time) error {
	return m.RunUntil(ctx, m.queue.Now()+d)
}

// Run sets the machine running until the continueCheck function returns
// Ending or Initialising, or until the context is cancelled. A nil
// continueCheck runs the machine until the context is cancelled.
func (m *Machine) Run(ctx context.Context, continueCheck func() (govern.State, error)) error {
	if continueCheck == nil {
		continueCheck = func() (govern.State, error) { return govern.Running, nil }
	}

	var err error

	state := govern.Running

	for !state.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case state.Advancing():
			if err := m.Timeslice(); err != nil {
				return err
			}
		case state.Waiting():
		default:
			return fmt.Errorf("hardware: unsupported state (%d) in Run() function", state)
		}

		state, err = continueCheck()
		if err != nil {
			return err
		}
	}

	return nil
}
