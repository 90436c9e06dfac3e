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

package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
)

// Errors returned by Peek() and Poke().
var (
	ErrUnpeekable = errors.New("address cannot be peeked")
	ErrUnpokeable = errors.New("address cannot be poked")
)

// Peek implements the bus.DebuggerBus interface. Handlers are never called and
// no diagnostics are created. Read and write restrictions are ignored.
func (as *AddressSpace) Peek(address uint32) (uint8, error) {
	address &= as.addrMask
	r := as.find(address)
	if r == nil {
		return 0, fmt.Errorf("memory: %s: %w: %#x", as, ErrUnpeekable, address)
	}
	offset := r.offset + (address - r.Start)
	switch r.Kind {
	case Storage:
		v, ok := r.store.Read(offset, bus.Byte, as.endian)
		if ok {
			return uint8(v), nil
		}
	case Banked:
		if st, idx, ok := r.bank.Resolve(offset); ok {
			v, _ := st.Read(idx, bus.Byte, as.endian)
			return uint8(v), nil
		}
	}
	return 0, fmt.Errorf("memory: %s: %w: %#x (%s)", as, ErrUnpeekable, address, r.Kind)
}

// Poke implements the bus.DebuggerBus interface. Handlers are never called and
// no diagnostics are created. Read and write restrictions are ignored, meaning
// that read-only storage can be changed with Poke().
func (as *AddressSpace) Poke(address uint32, value uint8) error {
	address &= as.addrMask
	r := as.find(address)
	if r == nil {
		return fmt.Errorf("memory: %s: %w: %#x", as, ErrUnpokeable, address)
	}
	offset := r.offset + (address - r.Start)
	switch r.Kind {
	case Storage:
		if r.store.Write(offset, bus.Byte, as.endian, uint32(value), 0xff) {
			return nil
		}
	case Banked:
		if st, idx, ok := r.bank.Resolve(offset); ok {
			st.Write(idx, bus.Byte, as.endian, uint32(value), 0xff)
			return nil
		}
	}
	return fmt.Errorf("memory: %s: %w: %#x (%s)", as, ErrUnpokeable, address, r.Kind)
}

// Summary returns a listing of the memory map of the address space. Gaps
// between ranges are shown as unmapped.
func (as *AddressSpace) Summary() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s (%d bit, %s, %s)\n", as, as.addrWidth, as.dataWidth, as.endian))

	gap := func(start, end uint32) {
		s.WriteString(Range{Start: start, End: end, Kind: Unmapped}.Describe())
		s.WriteString("\n")
	}

	next := uint64(0)
	for _, r := range as.ranges {
		if uint64(r.Start) > next {
			gap(uint32(next), r.Start-1)
		}
		s.WriteString(r.Describe())
		s.WriteString("\n")
		next = uint64(r.End) + 1
	}
	if next <= uint64(as.addrMask) {
		gap(uint32(next), as.addrMask)
	}

	return s.String()
}
