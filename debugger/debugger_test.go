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

package debugger_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockstep-emu/lockstep/board"
	"github.com/lockstep-emu/lockstep/debugger"
	"github.com/lockstep-emu/lockstep/debugger/govern"
	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/test"
)

// mockTerm reads input from a list of commands and collects the output for
// each command
type mockTerm struct {
	inputs []string
	output [][]string
}

func (trm *mockTerm) Initialise() error {
	return nil
}

func (trm *mockTerm) CleanUp() {
}

func (trm *mockTerm) RegisterTabCompletion(_ terminal.TabCompletion) {
}

func (trm *mockTerm) Silence(silenced bool) {
}

func (trm *mockTerm) TermRead(buffer []byte, _ terminal.Prompt) (int, error) {
	if len(trm.inputs) == 0 {
		return 0, io.EOF
	}
	s := trm.inputs[0]
	trm.inputs = trm.inputs[1:]
	trm.output = append(trm.output, nil)
	return copy(buffer, s), nil
}

func (trm *mockTerm) IsInteractive() bool {
	return false
}

func (trm *mockTerm) TermPrintLine(sty terminal.Style, s string) {
	if sty == terminal.StyleEcho || sty == terminal.StyleLog || len(trm.output) == 0 {
		return
	}
	if sty == terminal.StyleError {
		s = "* " + s
	}
	i := len(trm.output) - 1
	trm.output[i] = append(trm.output[i], s)
}

// ram[0] is the number of steps and ram[1] is incremented by reading and
// writing memory
const counter = `
quantum: 10
stores: [{name: ram, size: 0x10}]
devices:
  - name: cpu
    clock: 1MHz
    source: |
      state.n = 0
      function step()
        state.n = state.n + 1
        write("data", 0, 1, state.n % 256)
        write("data", 1, 1, (read("data", 1, 1) + 1) % 256)
        return 1
      end
    spaces: [{class: data, address_bits: 4, map: [{start: 0, end: 0xf, store: ram}]}]
`

func newDebugger(t *testing.T, trm *mockTerm) *debugger.Debugger {
	t.Helper()
	b, err := board.Parse([]byte(counter))
	test.DemandSuccess(t, err)
	ins, err := instance.NewInstance("test", nil)
	test.DemandSuccess(t, err)
	m, err := b.Build(ins)
	test.DemandSuccess(t, err)
	t.Cleanup(func() { m.Close() })

	dbg, err := debugger.NewDebugger(m.Machine, trm, "")
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, dbg.Rewind.Prefs.Freq.Set(1))
	return dbg
}

func TestCommands(t *testing.T) {
	trm := &mockTerm{
		inputs: []string{
			"STEP",
			"step 4",
			"PEEK cpu data 0",
			"RUN 25",
			"PEEK cpu data 0",
			"BACK",
			"POKE cpu data 1 0x42",
			"DIFF",
			"COMPARE",
			"DIFF",
			"GOTO 20",
			"TIMERS",
			"FOO",
			"STEP x",
			"PEEK cpu data 0 3",
			"HELP QUIT",
			"QUIT",
			"STEP",
		},
	}

	dbg := newDebugger(t, trm)
	test.ExpectEquality(t, dbg.State(), govern.Initialising)
	test.DemandSuccess(t, dbg.Start(context.Background()))
	test.ExpectEquality(t, dbg.State(), govern.Ending)

	// the STEP command after QUIT is never read
	test.ExpectEquality(t, len(trm.inputs), 1)

	expected := [][]string{
		{"time 10"},
		{"time 50"},
		{"cpu data 0x0: 0x32"},
		{"time 75"},
		{"cpu data 0x0: 0x4b"},
		{"time 70"},
		{"cpu data 0x1: 0x42"},
		{"ram[0x00]: 00 -> 46", "ram[0x01]: 00 -> 42"},
		{"comparison point at 70"},
		{"ram[0x01]: 46 -> 42"},
		{"time 20"},
		{"0 pending timers"},
		{"* unrecognised command: FOO"},
		{"* invalid number: x"},
		{"* invalid width: 3"},
		{"QUIT\nLeave the debugger."},
		nil,
	}

	test.DemandEquality(t, len(trm.output), len(expected))
	for i, o := range expected {
		test.ExpectEquality(t, strings.Join(trm.output[i], "|"), strings.Join(o, "|"), i)
	}
}

func TestSaveAndLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "state")

	trm := &mockTerm{
		inputs: []string{
			"STEP 3",
			"SAVE " + filename,
			"STEP 3",
			"LOAD " + filename,
			"PEEK cpu data 0",
			"DEVICES",
			"STATS",
		},
	}

	dbg := newDebugger(t, trm)
	test.DemandSuccess(t, dbg.Start(context.Background()))

	test.DemandEquality(t, len(trm.output), 7)
	test.ExpectEquality(t, strings.Join(trm.output[3], "|"), "time 30")
	test.ExpectEquality(t, strings.Join(trm.output[4], "|"), "cpu data 0x0: 0x1e")
	test.DemandEquality(t, len(trm.output[5]), 1)
	test.ExpectSuccess(t, strings.HasPrefix(trm.output[5][0], "cpu "))
	test.ExpectEquality(t, len(trm.output[6]), 6)

	// history is reset after loading
	test.ExpectEquality(t, dbg.Rewind.Len(), 1)
}

func TestCancelled(t *testing.T) {
	trm := &mockTerm{
		inputs: []string{"RUN 1000"},
	}
	dbg := newDebugger(t, trm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.ExpectFailure(t, dbg.Start(ctx))
}
