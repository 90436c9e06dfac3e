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

package terminal

import (
	"fmt"

	"github.com/lockstep-emu/lockstep/debugger/govern"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// Prompt specifies the prompt text and the information it displays.
type Prompt struct {
	// machine time in ticks of the reference clock
	Time clocks.Time

	// number of entries in the rewind history
	Rewind int

	State govern.State
}

func (p Prompt) String() string {
	return fmt.Sprintf("[ %d (%d) %s ] > ", p.Time, p.Rewind, p.State)
}
