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
	"fmt"
	"slices"
	"strings"
	"sync"
)

// preferences set on the command line are held in groups. the most recently
// pushed group is consulted by Disk.Load(). more than one machine instance can
// be loading preferences at the same time
var commandLine struct {
	crit  sync.Mutex
	stack []map[string]Value
}

// SizeCommandLineStack returns the number of groups that have been added with
// PushCommandLineStack().
func SizeCommandLineStack() int {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()
	return len(commandLine.stack)
}

// PushCommandLineStack parses a preferences string and adds it as a new group.
// The string is a series of key/value pairs separated by semicolons. For
// example:
//
//	scheduler.quantum::16; memory.unmappedloglimit::10
//
// Entries that are not key/value pairs are reported in the returned error but
// the remaining entries are still added. Empty entries are ignored.
func PushCommandLineStack(prefs string) error {
	cl := make(map[string]Value)

	var bad []string
	for _, p := range strings.Split(prefs, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, KeySep)
		k = strings.TrimSpace(k)
		if !ok || k == "" || strings.Contains(v, KeySep) {
			bad = append(bad, p)
			continue
		}
		cl[k] = strings.TrimSpace(v)
	}

	commandLine.crit.Lock()
	commandLine.stack = append(commandLine.stack, cl)
	commandLine.crit.Unlock()

	if len(bad) > 0 {
		return fmt.Errorf("prefs: command line: malformed entries: %s", strings.Join(bad, ", "))
	}
	return nil
}

// PopCommandLineStack forgets the most recent group added by
// PushCommandLineStack().
//
// Returns the preferences of the group that were never used, sorted by key.
// A non-empty string usually means that a key was misspelled.
func PopCommandLineStack() string {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	if len(commandLine.stack) == 0 {
		return ""
	}

	popped := commandLine.stack[len(commandLine.stack)-1]
	commandLine.stack = commandLine.stack[:len(commandLine.stack)-1]

	keys := make([]string, 0, len(popped))
	for key := range popped {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	s := make([]string, 0, len(keys))
	for _, key := range keys {
		s = append(s, fmt.Sprintf("%s%s%v", key, KeySep, popped[key]))
	}
	return strings.Join(s, "; ")
}

// GetCommandLinePref value from current group. The value is deleted when it
// is returned.
func GetCommandLinePref(key string) (bool, Value) {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	if len(commandLine.stack) == 0 {
		return false, nil
	}

	cl := commandLine.stack[len(commandLine.stack)-1]
	if v, ok := cl[key]; ok {
		delete(cl, key)
		return true, v
	}

	return false, nil
}
