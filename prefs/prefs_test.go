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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockstep-emu/lockstep/prefs"
	"github.com/lockstep-emu/lockstep/test"
)

func TestBool(t *testing.T) {
	var v prefs.Bool
	test.ExpectEquality(t, v.String(), "false")
	test.ExpectSuccess(t, v.Set(true))
	test.ExpectEquality(t, v.Get().(bool), true)
	test.ExpectSuccess(t, v.Set("FALSE"))
	test.ExpectEquality(t, v.Get().(bool), false)
	test.ExpectSuccess(t, v.Set("True"))
	test.ExpectEquality(t, v.String(), "true")
	test.ExpectFailure(t, v.Set(1.0))
}

func TestInt(t *testing.T) {
	var v prefs.Int
	test.ExpectEquality(t, v.Get().(int), 0)
	test.ExpectSuccess(t, v.Set(10))
	test.ExpectEquality(t, v.Get().(int), 10)
	test.ExpectSuccess(t, v.Set("0x40"))
	test.ExpectEquality(t, v.Get().(int), 64)
	test.ExpectFailure(t, v.Set("forty"))
	test.ExpectEquality(t, v.Get().(int), 64)
	test.ExpectSuccess(t, v.Reset())
	test.ExpectEquality(t, v.String(), "0")
}

func TestFloatAndString(t *testing.T) {
	var f prefs.Float
	test.ExpectSuccess(t, f.Set("1.5"))
	test.ExpectEquality(t, f.Get().(float64), 1.5)

	var s prefs.String
	s.SetMaxLen(3)
	test.ExpectSuccess(t, s.Set("abcdef"))
	test.ExpectEquality(t, s.String(), "abc")
}

func TestHooks(t *testing.T) {
	var v prefs.Int

	var post int
	v.SetHookPost(func(nv prefs.Value) error {
		post = int(nv.(int64))
		return nil
	})
	test.ExpectSuccess(t, v.Set(5))
	test.ExpectEquality(t, post, 5)

	// a failing pre hook prevents the value from changing
	v.SetHookPre(func(nv prefs.Value) error {
		if nv.(int64) < 0 {
			return errors.New("negative")
		}
		return nil
	})
	test.ExpectFailure(t, v.Set(-1))
	test.ExpectEquality(t, v.Get().(int), 5)
}

func TestDisk(t *testing.T) {
	pth := filepath.Join(t.TempDir(), prefs.DefaultPrefsFile)

	var a prefs.Int
	var b prefs.Bool

	dsk, err := prefs.NewDisk(pth)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, dsk.Add("test.a", &a))
	test.DemandSuccess(t, dsk.Add("test.b", &b))
	test.ExpectFailure(t, dsk.Add("test.a", &a))

	// file doesn't exist yet
	err = dsk.Load()
	test.ExpectError(t, err, prefs.NoPrefsFile)

	test.DemandSuccess(t, a.Set(16))
	test.DemandSuccess(t, b.Set(true))
	test.DemandSuccess(t, dsk.Save())

	// a second disk sharing the same file
	var c prefs.Int
	dsk2, err := prefs.NewDisk(pth)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, dsk2.Add("test.c", &c))
	test.DemandSuccess(t, c.Set(3))
	test.DemandSuccess(t, dsk2.Save())

	data, err := os.ReadFile(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, strings.Contains(string(data), "test.a :: 16"), true)
	test.ExpectEquality(t, strings.Contains(string(data), "test.c :: 3"), true)

	test.DemandSuccess(t, dsk.Reset())
	test.ExpectEquality(t, a.Get().(int), 0)
	test.DemandSuccess(t, dsk.Load())
	test.ExpectEquality(t, a.Get().(int), 16)
	test.ExpectEquality(t, b.Get().(bool), true)
}

func TestDiskCommandLine(t *testing.T) {
	var a prefs.Int
	dsk, err := prefs.NewDisk("")
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, dsk.Add("test.a", &a))

	prefs.PushCommandLineStack("test.a::32")
	defer prefs.PopCommandLineStack()

	err = dsk.Load()
	test.ExpectError(t, err, prefs.NoPrefsFile)
	test.ExpectEquality(t, a.Get().(int), 32)
}
