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

package modalflag_test

import (
	"strings"
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/modalflag"
	"github.com/lockstep-emu/lockstep/test"
)

func TestNoModesNoFlags(t *testing.T) {
	md := modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{})
	p, err := md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseContinue)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, md.Path(), "")
	test.ExpectEquality(t, len(md.RemainingArgs()), 0)
}

func TestModes(t *testing.T) {
	md := modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{"-wav", "out.wav", "verify", "boards/twin/twin.yaml"})
	wav := md.AddString("wav", "", "wav file")
	md.AddSubModes("RUN", "verify", "STEP")

	p, err := md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseContinue)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, *wav, "out.wav")
	test.ExpectEquality(t, md.Mode(), "VERIFY")

	md.NewMode()
	quanta := md.AddQuanta("quanta", []int{1, 16}, "quanta")
	ticks := md.AddTicks("ticks", 1000, "ticks")
	p, err = md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseContinue)
	test.ExpectSuccess(t, err)
	test.ExpectSlice(t, *quanta, []int{1, 16})
	test.ExpectEquality(t, *ticks, clocks.Time(1000))
	test.ExpectEquality(t, md.GetArg(0), "boards/twin/twin.yaml")
	test.ExpectEquality(t, md.Path(), "VERIFY")
}

func TestDefaultMode(t *testing.T) {
	md := modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{"board.yaml"})
	md.AddSubModes("RUN", "VERIFY")
	_, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, md.Mode(), "RUN")
	test.ExpectEquality(t, md.GetArg(0), "board.yaml")

	md.NewMode()
	_, err = md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, md.GetArg(0), "board.yaml")
}

func TestFlagValues(t *testing.T) {
	md := modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{"-ticks", "20k", "-quanta", "1,4,16"})
	ticks := md.AddTicks("ticks", 0, "")
	quanta := md.AddQuanta("quanta", nil, "")
	_, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, *ticks, clocks.Time(20000))
	test.ExpectSlice(t, *quanta, []int{1, 4, 16})

	var set []string
	md.Visit(func(f string) { set = append(set, f) })
	test.ExpectSlice(t, set, []string{"quanta", "ticks"})

	md.NewArgs([]string{"-quanta", "1,0"})
	md.AddQuanta("quanta", nil, "")
	p, err := md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseError)
	test.ExpectFailure(t, err)

	md.NewArgs([]string{"-ticks", "ten"})
	md.AddTicks("ticks", 0, "")
	p, err = md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseError)
	test.ExpectFailure(t, err)
}

func TestHelp(t *testing.T) {
	w := &strings.Builder{}
	md := modalflag.Modes{Output: w}
	md.NewArgs([]string{"-help"})
	p, _ := md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseHelp)
	test.ExpectEquality(t, w.String(), "No help available\n")

	w.Reset()
	md.NewArgs([]string{"-help"})
	md.AddBool("test", true, "test flag")
	md.AddSubModes("A", "B")
	md.AdditionalHelp("more")
	p, _ = md.Parse()
	test.ExpectEquality(t, p, modalflag.ParseHelp)
	test.ExpectEquality(t, w.String(), "Usage:\n"+
		"  -test\n"+
		"    \ttest flag (default true)\n"+
		"\n"+
		"  available modes: A, B\n"+
		"    default: A\n"+
		"\n"+
		"more\n")
}
