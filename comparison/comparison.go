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

package comparison

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lockstep-emu/lockstep/board"
	"github.com/lockstep-emu/lockstep/digest"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"golang.org/x/sync/errgroup"
)

// ErrMismatch is returned by Comparison.Compare() when the runs do not agree.
var ErrMismatch = errors.New("runs do not agree")

// Result of a single run.
type Result struct {
	Quantum int

	// time of the machine at the end of the run
	Now clocks.Time

	Memory string
	Events string

	// number of deferred effects applied during the run
	EventCount int

	// number of unmapped and restricted accesses
	Faults int

	// entries in the log of the instance
	Log string
}

func (r Result) String() string {
	return fmt.Sprintf("quantum %d: memory %s: events %s (%d): faults %d", r.Quantum, r.Memory, r.Events, r.EventCount, r.Faults)
}

// Comparison type runs the same board with different quantum values.
type Comparison struct {
	Board *board.Board

	// quantum values to use. there is one run for each value
	Quanta []int

	// length of each run in reference clock ticks
	Ticks clocks.Time

	// if not nil, called at the end of each run. it may be called from more
	// than one goroutine at once
	Done func(Result)

	Results []Result
}

// NewComparison is the preferred method of initialisation for the Comparison type.
func NewComparison(b *board.Board, ticks clocks.Time, quanta ...int) (*Comparison, error) {
	if len(quanta) < 2 {
		return nil, fmt.Errorf("comparison: at least two quantum values are required")
	}
	for _, q := range quanta {
		if q <= 0 {
			return nil, fmt.Errorf("comparison: invalid quantum %d", q)
		}
	}
	if ticks <= 0 {
		return nil, fmt.Errorf("comparison: invalid run length %d", ticks)
	}
	return &Comparison{
		Board:  b,
		Quanta: quanta,
		Ticks:  ticks,
	}, nil
}

func (cmp *Comparison) String() string {
	s := strings.Builder{}
	for _, r := range cmp.Results {
		s.WriteString(r.String())
		s.WriteString("\n")
	}
	return s.String()
}

// Compare runs the board once for each quantum value. The runs happen
// concurrently. An error from any run cancels the other runs. If the runs
// complete but the results do not agree then the returned error wraps
// ErrMismatch.
func (cmp *Comparison) Compare(ctx context.Context) error {
	cmp.Results = make([]Result, len(cmp.Quanta))

	g, ctx := errgroup.WithContext(ctx)
	for i, q := range cmp.Quanta {
		g.Go(func() error {
			r, err := cmp.run(ctx, q)
			if err != nil {
				return fmt.Errorf("comparison: quantum %d: %w", q, err)
			}
			cmp.Results[i] = r
			if cmp.Done != nil {
				cmp.Done(r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	first := cmp.Results[0]
	for _, r := range cmp.Results[1:] {
		if r.Memory != first.Memory {
			return fmt.Errorf("comparison: %w: memory differs between quantum %d and %d", ErrMismatch, first.Quantum, r.Quantum)
		}
		if r.Events != first.Events {
			return fmt.Errorf("comparison: %w: events differ between quantum %d and %d", ErrMismatch, first.Quantum, r.Quantum)
		}
	}

	return nil
}

func (cmp *Comparison) run(ctx context.Context, quantum int) (Result, error) {
	ins, err := instance.NewInstance(instance.Label(fmt.Sprintf("%s%d", instance.Verify, quantum)), nil)
	if err != nil {
		return Result{}, err
	}
	ins.Normalise()
	if err := ins.Prefs.Quantum.Set(quantum); err != nil {
		return Result{}, err
	}

	m, err := cmp.Board.Build(ins)
	if err != nil {
		return Result{}, err
	}
	defer m.Close()

	events := digest.NewEvents()
	m.SetTrace(events.Event)

	if err := m.RunFor(ctx, cmp.Ticks); err != nil {
		return Result{}, err
	}

	mem := digest.NewMemory()
	mem.Stores(m.Stores())

	s := strings.Builder{}
	ins.Log.Write(&s)

	return Result{
		Quantum:    quantum,
		Now:        m.Now(),
		Memory:     mem.Hash(),
		Events:     events.Hash(),
		EventCount: events.Count(),
		Faults:     m.Faults.Total(),
		Log:        s.String(),
	}, nil
}
