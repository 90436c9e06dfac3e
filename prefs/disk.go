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

package prefs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// DefaultPrefsFile is the default filename of the global preferences file.
const DefaultPrefsFile = "preferences"

// KeySep separates the key from the value in the preferences file and in
// command line preference strings.
const KeySep = "::"

// header written at the top of every preferences file
const warningBoilerPlate = "*** do not edit this file by hand unless you are sure of what you are doing ***"

// Sentinal errors returned by the disk functions.
var (
	NoPrefsFile      = errors.New("prefs: no preferences file")
	DuplicateKey     = errors.New("prefs: duplicate key")
	UnrecognisedLine = errors.New("prefs: unrecognised line")
)

// Disk represents preference values as stored on disk. Values are added to
// the Disk with Add() and loaded from and saved to the file with Load() and
// Save(). An empty path creates a Disk that never touches the filesystem,
// which is useful for tests and for machines that should not be affected by
// a user's preferences.
type Disk struct {
	path    string
	entries map[string]pref
}

func (dsk *Disk) String() string {
	s := strings.Builder{}
	for _, k := range dsk.keys() {
		s.WriteString(fmt.Sprintf("%s %s %s\n", k, KeySep, dsk.entries[k]))
	}
	return s.String()
}

// NewDisk is the preferred method of initialisation for the Disk type.
func NewDisk(path string) (*Disk, error) {
	return &Disk{
		path:    path,
		entries: make(map[string]pref),
	}, nil
}

// Add preference value to list of values to store/load from disk.
func (dsk *Disk) Add(key string, p pref) error {
	key = strings.TrimSpace(key)
	if _, ok := dsk.entries[key]; ok {
		return fmt.Errorf("%w: %s", DuplicateKey, key)
	}
	dsk.entries[key] = p
	return nil
}

func (dsk *Disk) keys() []string {
	keys := make([]string, 0, len(dsk.entries))
	for k := range dsk.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset all preference values added to the Disk to their zero value. Typically
// followed by the setting of default values by the owner of the Disk.
func (dsk *Disk) Reset() error {
	for _, k := range dsk.keys() {
		if err := dsk.entries[k].Reset(); err != nil {
			return err
		}
	}
	return nil
}

// Load preference values from disk. Lines in the file for keys that have not
// been added to the Disk are ignored, allowing more than one Disk to share a
// file. Command line preferences (see PushCommandLineStack()) take priority
// over values in the file.
//
// A missing file is reported with the NoPrefsFile error, wrapped. Command
// line preferences are still applied in that case.
func (dsk *Disk) Load() error {
	var fileErr error

	if dsk.path == "" {
		fileErr = NoPrefsFile
	} else {
		f, err := os.Open(dsk.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fileErr = fmt.Errorf("%w: %s", NoPrefsFile, dsk.path)
			} else {
				return fmt.Errorf("prefs: %w", err)
			}
		} else {
			defer f.Close()
			if err := dsk.read(f); err != nil {
				return err
			}
		}
	}

	for _, k := range dsk.keys() {
		if ok, v := GetCommandLinePref(k); ok {
			if err := dsk.entries[k].Set(v); err != nil {
				return fmt.Errorf("prefs: command line: %s: %w", k, err)
			}
		}
	}

	return fileErr
}

func (dsk *Disk) read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == warningBoilerPlate {
			continue
		}

		kv := strings.SplitN(line, KeySep, 2)
		if len(kv) != 2 {
			return fmt.Errorf("%w: %s", UnrecognisedLine, line)
		}

		p, ok := dsk.entries[strings.TrimSpace(kv[0])]
		if !ok {
			continue
		}

		if err := p.Set(strings.TrimSpace(kv[1])); err != nil {
			return fmt.Errorf("prefs: %s: %w", kv[0], err)
		}
	}
	return scanner.Err()
}

// Save current preference values to disk. Entries in an existing file that
// belong to other Disk instances are preserved.
func (dsk *Disk) Save() error {
	if dsk.path == "" {
		return nil
	}

	// lines for keys that do not belong to this Disk
	others := make(map[string]string)

	if f, err := os.Open(dsk.path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			kv := strings.SplitN(scanner.Text(), KeySep, 2)
			if len(kv) != 2 {
				continue
			}
			k := strings.TrimSpace(kv[0])
			if _, ok := dsk.entries[k]; !ok {
				others[k] = strings.TrimSpace(kv[1])
			}
		}
		f.Close()
	}

	lines := make([]string, 0, len(others)+len(dsk.entries))
	for k, v := range others {
		lines = append(lines, fmt.Sprintf("%s %s %s", k, KeySep, v))
	}
	for k, p := range dsk.entries {
		lines = append(lines, fmt.Sprintf("%s %s %s", k, KeySep, p))
	}
	sort.Strings(lines)

	f, err := os.Create(dsk.path)
	if err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, warningBoilerPlate)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return w.Flush()
}
