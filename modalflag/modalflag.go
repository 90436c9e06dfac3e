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

package modalflag

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

const modeSeparator = "/"

// Modes wraps a flag.FlagSet with knowledge of program modes. A new FlagSet
// is created on every call to NewArgs() and NewMode().
type Modes struct {
	// where to print help messages
	Output io.Writer

	parsed bool
	flags  *flag.FlagSet

	args    []string
	argsIdx int

	// sub-modes for the current mode. the first entry is the default
	subModes []string

	// series of modes found by successive calls to Parse(). never reset
	path []string

	additionalHelp string
}

func (md *Modes) String() string {
	return md.Path()
}

// Mode returns the most recently selected mode.
func (md *Modes) Mode() string {
	if len(md.path) == 0 {
		return ""
	}
	return md.path[len(md.path)-1]
}

// Path returns every mode selected so far, separated by a slash.
func (md *Modes) Path() string {
	return strings.Join(md.path, modeSeparator)
}

// NewArgs sets the arguments to be parsed and begins a new mode.
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.argsIdx = 0
	md.NewMode()
}

// NewMode discards the current flags and sub-modes. Arguments not yet
// consumed remain available to the next call to Parse().
func (md *Modes) NewMode() {
	md.subModes = md.subModes[:0]
	md.flags = flag.NewFlagSet("", flag.ContinueOnError)
	md.parsed = false
	md.additionalHelp = ""
}

// AdditionalHelp is printed after the flag and sub-mode summary.
func (md *Modes) AdditionalHelp(help string) {
	md.additionalHelp = help
}

func (md *Modes) Parsed() bool {
	return md.parsed
}

// ParseResult is returned by Parse().
type ParseResult int

// List of valid ParseResult values.
const (
	ParseContinue ParseResult = iota
	ParseHelp
	ParseError
)

// Parse the arguments for the current mode. If sub-modes have been added then
// the first argument after the flags is compared against them and the
// selected mode (or the default) is appended to the path.
func (md *Modes) Parse() (ParseResult, error) {
	md.parsed = true

	hw := &helpWriter{}
	md.flags.SetOutput(hw)

	err := md.flags.Parse(md.args[md.argsIdx:])
	if err != nil {
		if err == flag.ErrHelp {
			hw.help(md.Output, md.subModes, md.additionalHelp)
			return ParseHelp, nil
		}
		return ParseError, err
	}

	// flags for this mode have been consumed
	md.argsIdx = len(md.args) - md.flags.NArg()

	if len(md.subModes) > 0 {
		mode := md.subModes[0]
		arg := strings.ToUpper(md.flags.Arg(0))
		for _, m := range md.subModes {
			if m == arg {
				mode = m
				md.argsIdx++
				break // for loop
			}
		}
		md.path = append(md.path, mode)
	}

	return ParseContinue, nil
}

// RemainingArgs returns the arguments not consumed by the most recent call to
// Parse(), including any selected mode.
func (md *Modes) RemainingArgs() []string {
	return md.flags.Args()
}

// GetArg returns the numbered argument from RemainingArgs(). An empty string
// is returned if there is no such argument.
func (md *Modes) GetArg(i int) string {
	return md.flags.Arg(i)
}

// AddSubModes adds to the list of sub-modes for the current mode. Sub-modes
// are compared case insensitively.
func (md *Modes) AddSubModes(submodes ...string) {
	for _, s := range submodes {
		md.subModes = append(md.subModes, strings.ToUpper(s))
	}
}

func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.flags.Bool(name, value, usage)
}

func (md *Modes) AddInt(name string, value int, usage string) *int {
	return md.flags.Int(name, value, usage)
}

func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.flags.String(name, value, usage)
}

// AddTicks adds a flag measured in reference ticks. The value can have a k or
// M suffix.
func (md *Modes) AddTicks(name string, value clocks.Time, usage string) *clocks.Time {
	v := ticksValue(value)
	md.flags.Var(&v, name, usage)
	return (*clocks.Time)(&v)
}

// AddQuanta adds a flag that accepts a comma separated list of positive
// integers.
func (md *Modes) AddQuanta(name string, value []int, usage string) *[]int {
	v := quantaValue(append([]int{}, value...))
	md.flags.Var(&v, name, usage)
	return (*[]int)(&v)
}

// Visit calls fn for every flag that has been set.
func (md *Modes) Visit(fn func(flag string)) {
	md.flags.Visit(func(f *flag.Flag) {
		fn(f.Name)
	})
}

type ticksValue clocks.Time

func (v *ticksValue) String() string {
	return strconv.FormatUint(uint64(*v), 10)
}

func (v *ticksValue) Set(s string) error {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		mult = 1000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		mult = 1000000
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ticks: %s", s)
	}
	*v = ticksValue(n * mult)
	return nil
}

type quantaValue []int

func (v *quantaValue) String() string {
	if v == nil {
		return ""
	}
	s := make([]string, len(*v))
	for i, q := range *v {
		s[i] = strconv.Itoa(q)
	}
	return strings.Join(s, ",")
}

func (v *quantaValue) Set(s string) error {
	var q []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid quantum: %s", f)
		}
		q = append(q, n)
	}
	*v = q
	return nil
}
