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

package debugger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lockstep-emu/lockstep/debugger/govern"
	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
)

// debugger keywords
const (
	cmdStep    = "STEP"
	cmdRun     = "RUN"
	cmdBack    = "BACK"
	cmdGoto    = "GOTO"
	cmdCompare = "COMPARE"
	cmdDiff    = "DIFF"
	cmdDevices = "DEVICES"
	cmdPeek    = "PEEK"
	cmdPoke    = "POKE"
	cmdTimers  = "TIMERS"
	cmdStats   = "STATS"
	cmdSummary = "SUMMARY"
	cmdLog     = "LOG"
	cmdSave    = "SAVE"
	cmdLoad    = "LOAD"
	cmdHelp    = "HELP"
	cmdQuit    = "QUIT"
)

// in the order they are listed by the HELP command
var commands = []string{
	cmdStep, cmdRun, cmdBack, cmdGoto, cmdCompare, cmdDiff, cmdDevices,
	cmdPeek, cmdPoke, cmdTimers, cmdStats, cmdSummary, cmdLog, cmdSave,
	cmdLoad, cmdHelp, cmdQuit,
}

func (dbg *Debugger) parseCommand(input string) error {
	tokens := strings.Fields(input)
	cmd := strings.ToUpper(tokens[0])
	args := tokens[1:]

	switch cmd {
	case cmdStep:
		n, err := optionalNumber(args, 1)
		if err != nil {
			return err
		}
		dbg.state = govern.Stepping
		defer func() { dbg.state = govern.Paused }()
		for range n {
			if err := dbg.Rewind.Timeslice(); err != nil {
				return err
			}
		}
		dbg.printTime()

	case cmdRun:
		if len(args) != 1 {
			return fmt.Errorf("%s requires a number of ticks", cmdRun)
		}
		d, err := parseNumber(args[0])
		if err != nil {
			return err
		}
		dbg.state = govern.Running
		defer func() { dbg.state = govern.Paused }()
		if err := dbg.runUntil(dbg.m.Now() + clocks.Time(d)); err != nil {
			return err
		}
		dbg.printTime()

	case cmdBack:
		dbg.state = govern.Rewinding
		defer func() { dbg.state = govern.Paused }()
		if err := dbg.Rewind.Back(); err != nil {
			return err
		}
		dbg.printTime()

	case cmdGoto:
		if len(args) != 1 {
			return fmt.Errorf("%s requires a time", cmdGoto)
		}
		t, err := parseNumber(args[0])
		if err != nil {
			return err
		}
		dbg.state = govern.Rewinding
		defer func() { dbg.state = govern.Paused }()
		if _, err := dbg.Rewind.GoTo(dbg.ctx, clocks.Time(t)); err != nil {
			return err
		}
		dbg.printTime()

	case cmdCompare:
		dbg.Rewind.SetComparison()
		t, _ := dbg.Rewind.ComparisonTime()
		dbg.printLine(terminal.StyleFeedback, "comparison point at %d", t)

	case cmdDiff:
		diffs, err := dbg.Rewind.Differences()
		if err != nil {
			return err
		}
		if len(diffs) == 0 {
			dbg.printLine(terminal.StyleFeedback, "no differences")
		}
		for _, d := range diffs {
			dbg.printLine(terminal.StyleInstrument, "%s", d)
		}

	case cmdDevices:
		for _, d := range dbg.m.Devices() {
			dbg.printLine(terminal.StyleInstrument, "%s", d)
		}

	case cmdPeek:
		if len(args) < 3 || len(args) > 4 {
			return fmt.Errorf("%s requires a device, a class, an address and optionally a width", cmdPeek)
		}
		class, address, width, err := parseAccess(args[1], args[2], args[3:])
		if err != nil {
			return err
		}
		v, err := dbg.m.BusRead(args[0], class, address, width)
		if err != nil {
			return err
		}
		dbg.printLine(terminal.StyleInstrument, "%s %s %#x: %#x", args[0], class, address, v)

	case cmdPoke:
		if len(args) < 4 || len(args) > 5 {
			return fmt.Errorf("%s requires a device, a class, an address, a value and optionally a width", cmdPoke)
		}
		class, address, width, err := parseAccess(args[1], args[2], args[4:])
		if err != nil {
			return err
		}
		v, err := parseNumber(args[3])
		if err != nil {
			return err
		}
		if err := dbg.m.BusWrite(args[0], class, address, width, v, width.Mask()); err != nil {
			return err
		}
		v, err = dbg.m.BusRead(args[0], class, address, width)
		if err != nil {
			return err
		}
		dbg.printLine(terminal.StyleInstrument, "%s %s %#x: %#x", args[0], class, address, v)

	case cmdTimers:
		dbg.printLine(terminal.StyleInstrument, "%d pending timers", dbg.m.PendingTimers())

	case cmdStats:
		s := dbg.m.Stats()
		dbg.printLine(terminal.StyleInstrument, "timeslices: %d", s.Timeslices)
		dbg.printLine(terminal.StyleInstrument, "steps: %d", s.Steps)
		dbg.printLine(terminal.StyleInstrument, "interrupts: %d", s.Interrupts)
		dbg.printLine(terminal.StyleInstrument, "resyncs: %d", s.Resyncs)
		dbg.printLine(terminal.StyleInstrument, "faults: %d", s.Faults)
		dbg.printLine(terminal.StyleInstrument, "bus faults: %d", dbg.m.Faults.Total())

	case cmdSummary:
		dbg.printLine(terminal.StyleInstrument, "%s", strings.TrimSpace(dbg.m.Summary()))

	case cmdLog:
		n, err := optionalNumber(args, 10)
		if err != nil {
			return err
		}
		s := strings.Builder{}
		dbg.m.Instance.Log.Tail(&s, int(n))
		if s.Len() > 0 {
			dbg.printLine(terminal.StyleLog, "%s", strings.TrimSpace(s.String()))
		}

	case cmdSave:
		if len(args) != 1 {
			return fmt.Errorf("%s requires a filename", cmdSave)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if err := dbg.m.Save(f); err != nil {
			return err
		}
		dbg.printLine(terminal.StyleFeedback, "state saved to %s", args[0])

	case cmdLoad:
		if len(args) != 1 {
			return fmt.Errorf("%s requires a filename", cmdLoad)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if err := dbg.m.Load(f); err != nil {
			return err
		}
		if err := dbg.Rewind.Reset(); err != nil {
			return err
		}
		dbg.printTime()

	case cmdHelp:
		if len(args) == 0 {
			dbg.printLine(terminal.StyleHelp, "%s", strings.Join(commands, " "))
			return nil
		}
		h, ok := help[strings.ToUpper(args[0])]
		if !ok {
			return fmt.Errorf("no help for %s", args[0])
		}
		dbg.printLine(terminal.StyleHelp, "%s", h)

	case cmdQuit:
		dbg.state = govern.Ending

	default:
		return fmt.Errorf("unrecognised command: %s", tokens[0])
	}

	return nil
}

func (dbg *Debugger) printTime() {
	dbg.printLine(terminal.StyleFeedback, "time %d", dbg.m.Now())
}

// runUntil runs the machine until time t. whole timeslices are run through
// the rewind system so that snapshots are taken
func (dbg *Debugger) runUntil(t clocks.Time) error {
	q := clocks.Time(dbg.m.Instance.Prefs.Quantum.Get().(int))
	for dbg.m.Now()+q <= t {
		if err := dbg.ctx.Err(); err != nil {
			return err
		}
		if err := dbg.Rewind.Timeslice(); err != nil {
			return err
		}
	}
	return dbg.m.RunUntil(dbg.ctx, t)
}

func parseNumber(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	return uint32(v), nil
}

func optionalNumber(args []string, def uint32) (uint32, error) {
	if len(args) == 0 {
		return def, nil
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments")
	}
	return parseNumber(args[0])
}

func parseAccess(class string, address string, width []string) (memory.Class, uint32, bus.Width, error) {
	c, err := memory.ParseClass(strings.ToLower(class))
	if err != nil {
		return 0, 0, 0, err
	}
	a, err := parseNumber(address)
	if err != nil {
		return 0, 0, 0, err
	}
	w := bus.Byte
	if len(width) > 0 {
		n, err := parseNumber(width[0])
		if err != nil {
			return 0, 0, 0, err
		}
		w = bus.Width(n)
		if !w.Valid() {
			return 0, 0, 0, fmt.Errorf("invalid width: %s", width[0])
		}
	}
	return c, a, w, nil
}
