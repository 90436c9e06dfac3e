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

// State of a running machine as seen by the run loop.
type State int

// List of valid State values.
const (
	// machine is being configured or has been reset. the run loop returns
	Initialising State = iota

	// the run loop waits without advancing machine time
	Paused

	// the machine is advancing one step at a time under control of the
	// debugger
	Stepping

	// machine state is being restored from the rewind history. the run loop
	// waits
	Rewinding

	// the run loop advances machine time one timeslice at a time
	Running

	// the run loop returns and the machine should not be run again
	Ending
)

var stateNames = [...]string{
	Initialising: "Initialising",
	Paused:       "Paused",
	Stepping:     "Stepping",
	Rewinding:    "Rewinding",
	Running:      "Running",
	Ending:       "Ending",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return ""
	}
	return stateNames[s]
}

// Advancing returns true if machine time moves forward in this state.
func (s State) Advancing() bool {
	return s == Running || s == Stepping
}

// Waiting returns true if the run loop should continue without advancing
// machine time.
func (s State) Waiting() bool {
	return s == Paused || s == Rewinding
}

// Finished returns true if the run loop should return.
func (s State) Finished() bool {
	return s == Initialising || s == Ending
}
