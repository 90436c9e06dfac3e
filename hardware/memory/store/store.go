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

// Package store implements the backing stores of a machine. A backing store is
// a named, fixed-size block of bytes. Address space ranges and banks refer to
// backing stores and a single store can be referenced by any number of ranges,
// in any number of address spaces.
//
// Stores are created at configuration time and are never resized.
package store

import (
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
)

// Store is a named block of memory.
type Store struct {
	name string
	data []byte
}

// NewStore is the preferred method of initialisation for the Store type. The
// contents of the store are zeroed.
func NewStore(name string, size int) (*Store, error) {
	if name == "" {
		return nil, fmt.Errorf("store: name is empty")
	}
	if size <= 0 {
		return nil, fmt.Errorf("store: %s: invalid size (%d)", name, size)
	}
	return &Store{
		name: name,
		data: make([]byte, size),
	}, nil
}

func (st *Store) String() string {
	return fmt.Sprintf("%s (%d bytes)", st.name, len(st.data))
}

// Name returns the name of the store.
func (st *Store) Name() string {
	return st.name
}

// Len returns the size of the store in bytes.
func (st *Store) Len() int {
	return len(st.data)
}

// Data returns the underlying bytes of the store. Drivers use this to load
// the contents of ROMs. The slice must not be retained beyond configuration.
func (st *Store) Data() []byte {
	return st.data
}

// Load copies data into the store at the specified index.
func (st *Store) Load(index int, data []byte) error {
	if index < 0 || index+len(data) > len(st.data) {
		return fmt.Errorf("store: %s: load of %d bytes at %#x does not fit", st.name, len(data), index)
	}
	copy(st.data[index:], data)
	return nil
}

// Read width bytes from the store, beginning at index. Bytes that lie beyond
// the end of the store read as 0xff and the ok value will be false.
func (st *Store) Read(index uint32, width bus.Width, endian bus.Endian) (value uint32, ok bool) {
	ok = true
	n := uint32(width)
	for i := uint32(0); i < n; i++ {
		b := uint32(0xff)
		if idx := uint64(index) + uint64(i); idx < uint64(len(st.data)) {
			b = uint32(st.data[idx])
		} else {
			ok = false
		}
		value |= b << (8 * bytePos(i, n, endian))
	}
	return value, ok
}

// Write width bytes to the store, beginning at index. Only bits set in the
// mask are changed. Bytes that lie beyond the end of the store are dropped and
// the ok value will be false.
func (st *Store) Write(index uint32, width bus.Width, endian bus.Endian, value uint32, mask uint32) (ok bool) {
	ok = true
	n := uint32(width)
	for i := uint32(0); i < n; i++ {
		idx := uint64(index) + uint64(i)
		if idx >= uint64(len(st.data)) {
			ok = false
			continue
		}
		shift := 8 * bytePos(i, n, endian)
		bm := byte(mask >> shift)
		st.data[idx] = (st.data[idx] &^ bm) | (byte(value>>shift) & bm)
	}
	return ok
}

// bytePos returns the significance of byte i of an n byte access.
func bytePos(i uint32, n uint32, endian bus.Endian) uint32 {
	if endian == bus.BigEndian {
		return n - 1 - i
	}
	return i
}

// Snapshot creates a copy of the store.
func (st *Store) Snapshot() *Store {
	n := *st
	n.data = make([]byte, len(st.data))
	copy(n.data, st.data)
	return &n
}

// Restore the contents of the store. The length of data must be the same as
// the length of the store.
func (st *Store) Restore(data []byte) error {
	if len(data) != len(st.data) {
		return fmt.Errorf("store: %s: restore of %d bytes into store of %d bytes", st.name, len(data), len(st.data))
	}
	copy(st.data, data)
	return nil
}
