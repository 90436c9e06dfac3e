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

package prefs_test

import (
	"testing"

	"github.com/lockstep-emu/lockstep/prefs"
	"github.com/lockstep-emu/lockstep/test"
)

func TestCommandLineParsing(t *testing.T) {
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "")

	test.ExpectSuccess(t, prefs.PushCommandLineStack("scheduler.quantum::16"))
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "scheduler.quantum::16")

	// whitespace and empty entries
	test.ExpectSuccess(t, prefs.PushCommandLineStack("   scheduler.quantum:: 16 ;;"))
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "scheduler.quantum::16")

	// unused preferences are sorted by key
	test.ExpectSuccess(t, prefs.PushCommandLineStack("timer.maxcascade::8; memory.sentinel::0"))
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "memory.sentinel::0; timer.maxcascade::8")

	// malformed entries are reported but the rest of the group is kept
	test.ExpectFailure(t, prefs.PushCommandLineStack("scheduler.quantum"))
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "")

	test.ExpectFailure(t, prefs.PushCommandLineStack("a::b::c; ::d; timer.maxcascade::8"))
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "timer.maxcascade::8")
}

func TestCommandLineGet(t *testing.T) {
	test.ExpectSuccess(t, prefs.PushCommandLineStack("scheduler.quantum::16"))

	ok, _ := prefs.GetCommandLinePref("timer.maxcascade")
	test.ExpectFailure(t, ok)

	ok, v := prefs.GetCommandLinePref("scheduler.quantum")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v.(string), "16")

	// values are consumed
	ok, _ = prefs.GetCommandLinePref("scheduler.quantum")
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "")
}

func TestCommandLineStack(t *testing.T) {
	test.ExpectSuccess(t, prefs.PushCommandLineStack("scheduler.quantum::16"))
	test.ExpectSuccess(t, prefs.PushCommandLineStack("timer.maxcascade::8"))
	test.ExpectEquality(t, prefs.SizeCommandLineStack(), 2)

	// only the most recent group is consulted
	ok, _ := prefs.GetCommandLinePref("scheduler.quantum")
	test.ExpectFailure(t, ok)

	test.ExpectEquality(t, prefs.PopCommandLineStack(), "timer.maxcascade::8")
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "scheduler.quantum::16")
	test.ExpectEquality(t, prefs.SizeCommandLineStack(), 0)
}
