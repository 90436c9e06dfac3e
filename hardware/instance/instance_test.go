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

package instance_test

import (
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/logger"
	"github.com/lockstep-emu/lockstep/test"
)

func TestRouting(t *testing.T) {
	a, err := instance.NewInstance("a", nil)
	test.DemandSuccess(t, err)
	b, err := instance.NewInstance("b", nil)
	test.DemandSuccess(t, err)

	logger.Log(a, "test", "one")
	logger.Log(a, "test", "two")
	logger.Log(b, "test", "three")

	test.ExpectEquality(t, a.Log.Len(), 2)
	test.ExpectEquality(t, b.Log.Len(), 1)

	b.Prefs.Logging.Set(false)
	logger.Log(b, "test", "four")
	test.ExpectEquality(t, b.Log.Len(), 1)
}

func TestNormalise(t *testing.T) {
	ins, err := instance.NewInstance(instance.Main, nil)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, ins.Prefs.Quantum.Set(8))
	test.DemandSuccess(t, ins.Prefs.UnmappedLogLimit.Set(3))
	test.ExpectEquality(t, ins.Random.ZeroSeed, false)
	ins.Normalise()
	test.ExpectEquality(t, ins.Random.ZeroSeed, true)
	test.ExpectEquality(t, ins.Prefs.Quantum.Get().(int), 8)
	test.ExpectEquality(t, ins.Prefs.UnmappedLogLimit.Get().(int), 0)
	test.ExpectEquality(t, ins.String(), "main")
}
