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

package govern

import (
	"fmt"
	"strings"
)

// Mode indicates how the machine is being driven by the command line program.
type Mode int

// List of defined modes.
const (
	ModeNone Mode = iota
	ModeRun
	ModeVerify
	ModeStep
	ModeDump
)

func (m Mode) String() string {
	switch m {
	case ModeRun:
		return "RUN"
	case ModeVerify:
		return "VERIFY"
	case ModeStep:
		return "STEP"
	case ModeDump:
		return "DUMP"
	}
	return ""
}

// ParseMode returns the Mode for the string. Case insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "RUN":
		return ModeRun, nil
	case "VERIFY":
		return ModeVerify, nil
	case "STEP":
		return ModeStep, nil
	case "DUMP":
		return ModeDump, nil
	}
	return ModeNone, fmt.Errorf("govern: unknown mode: %s", s)
}
