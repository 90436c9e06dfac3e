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
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lockstep-emu/lockstep/debugger/govern"
	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/hardware"
	"github.com/lockstep-emu/lockstep/rewind"
)

// Debugger is the basic debugging frontend for the machine.
type Debugger struct {
	m    *hardware.Machine
	term terminal.Terminal

	// history of the machine. commands that run the machine add to the
	// history
	Rewind *rewind.Rewind

	// context of the current call to Start()
	ctx context.Context

	state govern.State
}

// NewDebugger creates and initialises everything required for a new
// debugging session. The machine must have been started. The rewindPrefs
// argument is the preferences file for the rewind system and can be empty.
func NewDebugger(m *hardware.Machine, term terminal.Terminal, rewindPrefs string) (*Debugger, error) {
	dbg := &Debugger{
		m:     m,
		term:  term,
		state: govern.Initialising,
	}

	var err error
	dbg.Rewind, err = rewind.NewRewind(m, rewindPrefs)
	if err != nil {
		return nil, fmt.Errorf("debugger: %w", err)
	}

	return dbg, nil
}

// State returns the current state of the debugger.
func (dbg *Debugger) State() govern.State {
	return dbg.state
}

// Start the main debugger sequence. Commands are read from the terminal until
// the QUIT command, the end of input or a user interrupt.
func (dbg *Debugger) Start(ctx context.Context) error {
	if err := dbg.term.Initialise(); err != nil {
		return fmt.Errorf("debugger: %w", err)
	}
	defer dbg.term.CleanUp()

	dbg.term.RegisterTabCompletion(newTabCompletion())

	dbg.ctx = ctx
	dbg.state = govern.Paused

	buffer := make([]byte, 256)

	for dbg.state != govern.Ending {
		dbg.printLog()

		n, err := dbg.term.TermRead(buffer, dbg.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, terminal.ErrUserInterrupt) {
				dbg.state = govern.Ending
				continue
			}
			return fmt.Errorf("debugger: %w", err)
		}

		input := strings.TrimSpace(string(buffer[:n]))
		if input == "" {
			continue
		}

		if err := dbg.parseCommand(input); err != nil {
			// cancellation of the context ends the debugger
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			dbg.printLine(terminal.StyleError, "%v", err)
		}
	}

	return nil
}

func (dbg *Debugger) prompt() terminal.Prompt {
	return terminal.Prompt{
		Time:   dbg.m.Now(),
		Rewind: dbg.Rewind.Len(),
		State:  dbg.state,
	}
}

func (dbg *Debugger) printLine(style terminal.Style, format string, args ...any) {
	dbg.term.TermPrintLine(style, fmt.Sprintf(format, args...))
}

// printLog prints log entries added since the last call.
func (dbg *Debugger) printLog() {
	s := strings.Builder{}
	dbg.m.Instance.Log.WriteRecent(&s)
	for _, l := range strings.Split(strings.TrimSpace(s.String()), "\n") {
		if l != "" {
			dbg.term.TermPrintLine(terminal.StyleLog, l)
		}
	}
}
