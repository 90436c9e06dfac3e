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

package bank_test

import (
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/memory/bank"
	"github.com/lockstep-emu/lockstep/hardware/memory/store"
	"github.com/lockstep-emu/lockstep/test"
)

func TestGeometry(t *testing.T) {
	_, err := bank.NewBank("rom", 0, 0x100)
	test.ExpectFailure(t, err)
	_, err = bank.NewBank("rom", 4, 0)
	test.ExpectFailure(t, err)

	st, err := store.NewStore("rom", 0x400)
	test.DemandSuccess(t, err)

	b, err := bank.NewBank("rom", 4, 0x100)
	test.DemandSuccess(t, err)

	// four pages will not fit beyond the start of the store
	test.ExpectFailure(t, b.Configure(st, 0x10))
	test.ExpectEquality(t, b.Configured(), false)

	test.ExpectSuccess(t, b.Configure(st, 0))
	test.ExpectEquality(t, b.Configured(), true)

	// configuration happens only once
	test.ExpectFailure(t, b.Configure(st, 0))
}

func TestSelectAndResolve(t *testing.T) {
	st, err := store.NewStore("rom", 0x500)
	test.DemandSuccess(t, err)
	b, err := bank.NewBank("rom", 4, 0x100)
	test.DemandSuccess(t, err)

	_, _, ok := b.Resolve(0)
	test.ExpectEquality(t, ok, false)

	test.DemandSuccess(t, b.Configure(st, 0x100))

	test.ExpectSuccess(t, b.Select(2))
	s, idx, ok := b.Resolve(0x10)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, s, st)
	test.ExpectEquality(t, idx, uint32(0x310))

	// stable between selections
	for i := range 10 {
		_, idx2, _ := b.Resolve(uint32(i))
		test.ExpectEquality(t, idx2-uint32(i), uint32(0x300))
	}

	test.ExpectSuccess(t, b.Select(0))
	_, idx, _ = b.Resolve(0x10)
	test.ExpectEquality(t, idx, uint32(0x110))

	// outside of the page
	_, _, ok = b.Resolve(0x100)
	test.ExpectEquality(t, ok, false)
}

func TestOpenPage(t *testing.T) {
	st, err := store.NewStore("rom", 0x400)
	test.DemandSuccess(t, err)
	b, err := bank.NewBank("rom", 4, 0x100)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, b.Configure(st, 0))

	err = b.Select(4)
	test.ExpectError(t, err, bank.ErrPageOutOfRange)
	_, open := b.Page()
	test.ExpectEquality(t, open, true)
	_, _, ok := b.Resolve(0)
	test.ExpectEquality(t, ok, false)

	test.ExpectFailure(t, b.Select(-1))

	test.ExpectSuccess(t, b.Select(3))
	page, open := b.Page()
	test.ExpectEquality(t, page, 3)
	test.ExpectEquality(t, open, false)
}

func TestState(t *testing.T) {
	b, err := bank.NewBank("rom", 4, 0x100)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, b.Select(1))

	s := b.State()
	test.DemandSuccess(t, b.Select(3))
	test.ExpectSuccess(t, b.Restore(s))
	page, _ := b.Page()
	test.ExpectEquality(t, page, 1)

	test.ExpectFailure(t, b.Restore(bank.State{Page: 10}))
}
