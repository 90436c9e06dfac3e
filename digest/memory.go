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
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/memory/store"
)

// Memory produces a hash of the contents of a list of backing stores.
type Memory struct {
	digest [sha1.Size]byte
}

// NewMemory is the preferred method of initialisation for the Memory type.
func NewMemory() *Memory {
	return &Memory{}
}

func (dig *Memory) String() string {
	return dig.Hash()
}

// Hash implements the digest.Digest interface.
func (dig *Memory) Hash() string {
	return fmt.Sprintf("%x", dig.digest)
}

// ResetDigest implements the digest.Digest interface.
func (dig *Memory) ResetDigest() {
	clear(dig.digest[:])
}

// Stores updates the digest with the name and contents of each store, in the
// order given.
func (dig *Memory) Stores(stores []*store.Store) {
	h := sha1.New()
	h.Write(dig.digest[:])
	for _, st := range stores {
		h.Write([]byte(st.Name()))
		h.Write(st.Data())
	}
	copy(dig.digest[:], h.Sum(nil))
}
