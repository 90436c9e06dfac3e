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

package faults_test

import (
	"strings"
	"testing"

	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/memory/faults"
	"github.com/lockstep-emu/lockstep/test"
)

func TestFaults(t *testing.T) {
	flt := faults.NewFaults()

	flt.NewEntry(faults.Unmapped, "main:program", bus.Read, 0x1000, bus.Byte)
	flt.NewEntry(faults.Unmapped, "main:program", bus.Read, 0x1000, bus.Byte)
	flt.NewEntry(faults.Unmapped, "main:program", bus.Write, 0x1000, bus.Byte)
	e := flt.NewEntry(faults.ReadOnly, "sound:program", bus.Write, 0x0010, bus.Word)

	test.ExpectEquality(t, len(flt.Log), 3)
	test.ExpectEquality(t, flt.Log[0].Count, 2)
	test.ExpectEquality(t, e.Count, 1)
	test.ExpectEquality(t, flt.Total(), 4)

	w := &strings.Builder{}
	flt.WriteLog(w)
	test.ExpectEquality(t, w.String(),
		"unmapped: main:program byte read at 0x00001000 (x2)\n"+
			"unmapped: main:program byte write at 0x00001000\n"+
			"read-only: sound:program word write at 0x00000010\n")

	flt.Clear()
	test.ExpectEquality(t, len(flt.Log), 0)
	test.ExpectEquality(t, flt.Total(), 0)
}

func TestSnapshotAndRestore(t *testing.T) {
	flt := faults.NewFaults()
	flt.NewEntry(faults.Unmapped, "main:program", bus.Read, 0x1000, bus.Byte)
	flt.NewEntry(faults.Unmapped, "main:program", bus.Read, 0x1000, bus.Byte)
	s := flt.Snapshot()

	flt.NewEntry(faults.Unmapped, "main:program", bus.Read, 0x1000, bus.Byte)
	flt.NewEntry(faults.OpenBank, "main:program", bus.Read, 0x2000, bus.Byte)
	test.ExpectEquality(t, flt.Total(), 4)

	// the snapshot is not changed by later faults
	test.DemandEquality(t, len(s), 1)
	test.ExpectEquality(t, s[0].Count, 2)

	flt.Restore(s)
	test.ExpectEquality(t, len(flt.Log), 1)
	test.ExpectEquality(t, flt.Total(), 2)

	// repeats of a restored fault are added to the restored entry
	e := flt.NewEntry(faults.Unmapped, "main:program", bus.Read, 0x1000, bus.Byte)
	test.ExpectEquality(t, e.Count, 3)
	test.ExpectEquality(t, len(flt.Log), 1)
}
