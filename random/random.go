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

package random

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
)

var baseSeed int64

func init() {
	baseSeed = time.Now().UnixNano()
}

// Random should be created with NewRandom().
type Random struct {
	// use zero seed rather than the random base seed
	ZeroSeed bool
}

// NewRandom is the preferred method of initialisation for the Random type.
func NewRandom() *Random {
	return &Random{}
}

func (rnd *Random) seed(t clocks.Time, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	s := int64(h.Sum64()) ^ int64(t)
	if !rnd.ZeroSeed {
		s += baseSeed
	}
	return s
}

// Rand returns a generator for the time and name. Generators for the same
// time and name produce the same sequence.
func (rnd *Random) Rand(t clocks.Time, name string) *rand.Rand {
	return rand.New(rand.NewSource(rnd.seed(t, name)))
}

// Intn returns the first number in the sequence for the time and name. The
// number is in the range [0, n).
func (rnd *Random) Intn(t clocks.Time, name string, n int) int {
	return rnd.Rand(t, name).Intn(n)
}
