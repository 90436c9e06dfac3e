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

// Package preferences collates the tunable values of the machine kernel. The
// values are prefs types and so can be changed from the command line, from a
// preferences file or by the program.
package preferences

import (
	"errors"

	"github.com/lockstep-emu/lockstep/prefs"
)

// DefaultMaxCascade is the default bound on the number of timer events that
// can fire in a single advance of the timer queue.
const DefaultMaxCascade = 10000

// Preferences defines and collates all the preference values used by the
// machine kernel.
type Preferences struct {
	dsk *prefs.Disk

	// the scheduling quantum in ticks of the reference clock. there is no
	// default value. smaller values give a finer interleaving of devices at
	// the expense of throughput. a machine cannot start with a quantum of zero
	Quantum prefs.Int

	// maximum number of timer events that can fire during a single advance
	// of the timer queue
	MaxCascade prefs.Int

	// value returned by reads of unmapped addresses. the value is masked to
	// the width of the access
	Sentinel prefs.Int

	// maximum number of unmapped access diagnostics logged for each address
	// space. zero means no limit. faults are always counted
	UnmappedLogLimit prefs.Int

	// log a warning when an access straddles the end of a range
	StraddleWarning prefs.Bool

	// whether the machine creates log entries at all
	Logging prefs.Bool
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. The path is the preferences file. An empty path means that
// the values are not stored on disk, although command line preferences are
// still applied.
func NewPreferences(path string) (*Preferences, error) {
	p := &Preferences{}
	p.SetDefaults()

	var err error

	p.dsk, err = prefs.NewDisk(path)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("scheduler.quantum", &p.Quantum)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timer.maxcascade", &p.MaxCascade)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("memory.sentinel", &p.Sentinel)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("memory.unmappedloglimit", &p.UnmappedLogLimit)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("memory.straddlewarning", &p.StraddleWarning)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("logging.enabled", &p.Logging)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Load()
	if err != nil {
		// ignore missing prefs file errors
		if !errors.Is(err, prefs.NoPrefsFile) {
			return nil, err
		}
	}

	return p, nil
}

// SetDefaults reverts all settings to default values. The quantum is left
// unset.
func (p *Preferences) SetDefaults() {
	p.Quantum.Set(0)
	p.MaxCascade.Set(DefaultMaxCascade)
	p.Sentinel.Set(int64(0xffffffff))
	p.UnmappedLogLimit.Set(0)
	p.StraddleWarning.Set(true)
	p.Logging.Set(true)
}

// Load current kernel preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save current kernel preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}
