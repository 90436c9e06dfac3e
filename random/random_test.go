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

package random_test

import (
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/random"
	"github.com/lockstep-emu/lockstep/test"
)

func TestSequence(t *testing.T) {
	rnd := random.NewRandom()

	a := rnd.Rand(100, "cpu")
	b := rnd.Rand(100, "cpu")
	for i := 0; i < 10; i++ {
		test.ExpectEquality(t, a.Int63(), b.Int63(), i)
	}
}

func TestDifferentInputs(t *testing.T) {
	rnd := random.NewRandom()
	rnd.ZeroSeed = true

	var differs bool
	for i := range clocks.Time(10) {
		if rnd.Rand(i, "cpu").Int63() != rnd.Rand(i, "sound").Int63() {
			differs = true
		}
	}
	test.ExpectSuccess(t, differs)

	differs = false
	for i := range clocks.Time(10) {
		if rnd.Rand(i, "cpu").Int63() != rnd.Rand(i+1, "cpu").Int63() {
			differs = true
		}
	}
	test.ExpectSuccess(t, differs)
}

func TestZeroSeed(t *testing.T) {
	a := random.NewRandom()
	a.ZeroSeed = true
	b := &random.Random{ZeroSeed: true}
	test.ExpectEquality(t, a.Intn(5000, "cpu", 1000), b.Intn(5000, "cpu", 1000))

	for i := range clocks.Time(100) {
		v := a.Intn(i, "cpu", 6)
		test.ExpectSuccess(t, v >= 0 && v < 6)
	}
}
