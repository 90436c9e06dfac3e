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

package digest

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

// Events produces a chained hash of a stream of timestamped events. The
// Event() function has the same signature as the trace function of
// hardware.Machine.
type Events struct {
	digest [sha1.Size]byte

	// the event is written after the previous digest value
	buffer []byte

	count int
}

// NewEvents is the preferred method of initialisation for the Events type.
func NewEvents() *Events {
	return &Events{
		buffer: make([]byte, 0, sha1.Size+64),
	}
}

func (dig *Events) String() string {
	return fmt.Sprintf("%s (%d events)", dig.Hash(), dig.count)
}

// Hash implements the digest.Digest interface.
func (dig *Events) Hash() string {
	return fmt.Sprintf("%x", dig.digest)
}

// ResetDigest implements the digest.Digest interface.
func (dig *Events) ResetDigest() {
	clear(dig.digest[:])
	dig.count = 0
}

// Count returns the number of events added to the digest since the last reset.
func (dig *Events) Count() int {
	return dig.count
}

// Event adds the event to the digest.
func (dig *Events) Event(t clocks.Time, event string) {
	// chain fingerprints by copying the value of the last fingerprint to the
	// head of the buffer
	dig.buffer = append(dig.buffer[:0], dig.digest[:]...)
	dig.buffer = binary.LittleEndian.AppendUint64(dig.buffer, uint64(t))
	dig.buffer = append(dig.buffer, event...)
	dig.digest = sha1.Sum(dig.buffer)
	dig.count++
}
