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

package rewind

import (
	"errors"

	"github.com/lockstep-emu/lockstep/prefs"
)

// Preferences for the rewind system.
type Preferences struct {
	r   *Rewind
	dsk *prefs.Disk

	// maximum number of entries in the history. changing this value
	// reallocates the history, keeping the most recent entries
	MaxEntries prefs.Int

	// number of timeslices between snapshots
	Freq prefs.Int
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

const (
	defaultMaxEntries = 100
	defaultFreq       = 10

	// the history must be able to hold at least this many entries
	minEntries = 2
)

func newPreferences(r *Rewind, path string) (*Preferences, error) {
	p := &Preferences{r: r}
	p.SetDefaults()

	var err error

	p.dsk, err = prefs.NewDisk(path)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("rewind.maxentries", &p.MaxEntries)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("rewind.frequency", &p.Freq)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Load()
	if err != nil {
		if !errors.Is(err, prefs.NoPrefsFile) {
			return nil, err
		}
	}

	p.MaxEntries.SetHookPost(func(_ prefs.Value) error {
		r.allocate()
		return nil
	})

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() {
	p.MaxEntries.Set(defaultMaxEntries)
	p.Freq.Set(defaultFreq)
}

// Load rewind preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save current rewind preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}
