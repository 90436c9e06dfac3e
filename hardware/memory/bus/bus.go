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

// Package bus defines the memory bus concept. Devices access their address
// spaces with an address and an access width. Address spaces direct the
// access to memory or to a Handler, the interface implemented by
// memory-mapped peripheral registers.
//
// Handlers only ever see the offset of the access within the range they are
// installed in. They never need to know where in an address space they have
// been mapped, which means the same handler type can be installed in
// different places, or in the address spaces of different devices.
package bus

import "fmt"

// Width is the number of bytes in a single access.
type Width uint8

// List of valid Width values.
const (
	Byte Width = 1
	Word Width = 2
	Long Width = 4
)

func (w Width) String() string {
	switch w {
	case Byte:
		return "byte"
	case Word:
		return "word"
	case Long:
		return "long"
	}
	return fmt.Sprintf("width(%d)", uint8(w))
}

// Valid returns true if the width is one of the supported access widths.
func (w Width) Valid() bool {
	return w == Byte || w == Word || w == Long
}

// Mask returns the value mask for the width. For example, the mask for a
// Word access is 0xffff.
func (w Width) Mask() uint32 {
	switch w {
	case Byte:
		return 0xff
	case Word:
		return 0xffff
	}
	return 0xffffffff
}

// Endian is the byte order used by an address space when a wide access is
// made to byte addressed storage.
type Endian int

// List of valid Endian values.
const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) String() string {
	if e == BigEndian {
		return "big endian"
	}
	return "little endian"
}

// Access is the direction of a bus access.
type Access int

// List of valid Access values.
const (
	Read Access = iota
	Write
)

func (a Access) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// ReadHandler is implemented by memory-mapped registers that can be read. The
// offset is relative to the start of the range the handler is installed in.
// The returned value will be masked to the width of the access.
type ReadHandler interface {
	Read(offset uint32, width Width) uint32
}

// WriteHandler is implemented by memory-mapped registers that can be written
// to. The offset is relative to the start of the range the handler is
// installed in.
//
// The mask indicates which bits of the value are being driven by the access.
// A handler updating a wider register should only change the bits in the
// mask:
//
//	reg = (reg &^ mask) | (value & mask)
type WriteHandler interface {
	Write(offset uint32, width Width, value uint32, mask uint32)
}

// Handler is implemented by memory-mapped registers that can be both read and
// written.
type Handler interface {
	ReadHandler
	WriteHandler
}

// ReadFunc allows an ordinary function to be used as a ReadHandler.
type ReadFunc func(offset uint32, width Width) uint32

// Read implements the ReadHandler interface.
func (f ReadFunc) Read(offset uint32, width Width) uint32 {
	return f(offset, width)
}

// WriteFunc allows an ordinary function to be used as a WriteHandler.
type WriteFunc func(offset uint32, width Width, value uint32, mask uint32)

// Write implements the WriteHandler interface.
func (f WriteFunc) Write(offset uint32, width Width, value uint32, mask uint32) {
	f(offset, width, value, mask)
}

// Pair combines a ReadHandler and a WriteHandler into a Handler.
type Pair struct {
	R ReadHandler
	W WriteHandler
}

// Read implements the ReadHandler interface.
func (p Pair) Read(offset uint32, width Width) uint32 {
	return p.R.Read(offset, width)
}

// Write implements the WriteHandler interface.
func (p Pair) Write(offset uint32, width Width, value uint32, mask uint32) {
	p.W.Write(offset, width, value, mask)
}

// DebuggerBus defines the meta-operations for all address spaces. Think of
// these functions as "debugging" functions, that is operations outside of the
// normal operation of the machine. Peek and Poke never call handlers and never
// create diagnostics.
type DebuggerBus interface {
	Peek(address uint32) (uint8, error)
	Poke(address uint32, value uint8) error
}
