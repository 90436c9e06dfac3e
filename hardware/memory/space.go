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
	"sort"

	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/memory/bank"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/memory/faults"
	"github.com/lockstep-emu/lockstep/hardware/memory/store"
	"github.com/lockstep-emu/lockstep/logger"
)

// Sentinel errors returned by the install functions. They are always wrapped
// with the details of the device, address space and ranges involved.
var (
	ErrSealed   = errors.New("address space is sealed")
	ErrOverlap  = errors.New("overlapping range")
	ErrBadRange = errors.New("invalid range")
)

// Class is the memory class of an address space.
type Class int

// List of valid Class values.
const (
	Program Class = iota
	IO
	Data
)

func (c Class) String() string {
	switch c {
	case Program:
		return "program"
	case IO:
		return "io"
	case Data:
		return "data"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// ParseClass converts the name of a class into a Class value.
func ParseClass(s string) (Class, error) {
	switch s {
	case "program":
		return Program, nil
	case "io":
		return IO, nil
	case "data":
		return Data, nil
	}
	return 0, fmt.Errorf("memory: unknown class %q", s)
}

// AddressSpace maps addresses to backing stores and handlers. An address space
// belongs to a device but it can be shared with other devices.
type AddressSpace struct {
	ins    *instance.Instance
	faults *faults.Faults

	device    string
	class     Class
	addrWidth uint
	addrMask  uint32
	dataWidth bus.Width
	endian    bus.Endian

	sentinel    uint32
	sentinelSet bool

	// ordered by start address. ranges never overlap
	ranges []*Range

	// address spaces can not be changed once the machine has started
	sealed bool

	// number of diagnostics logged. used to implement the log limit
	logged int
}

// NewAddressSpace is the preferred method of initialisation for the
// AddressSpace type. The address width is the number of bits in an address
// and must be between 1 and 32.
func NewAddressSpace(ins *instance.Instance, flt *faults.Faults, device string, class Class, addrWidth uint, dataWidth bus.Width) (*AddressSpace, error) {
	if addrWidth == 0 || addrWidth > 32 {
		return nil, fmt.Errorf("memory: %s:%s: invalid address width (%d)", device, class, addrWidth)
	}
	if !dataWidth.Valid() {
		return nil, fmt.Errorf("memory: %s:%s: invalid data width (%d)", device, class, dataWidth)
	}
	return &AddressSpace{
		ins:       ins,
		faults:    flt,
		device:    device,
		class:     class,
		addrWidth: addrWidth,
		addrMask:  uint32((uint64(1) << addrWidth) - 1),
		dataWidth: dataWidth,
	}, nil
}

func (as *AddressSpace) String() string {
	return fmt.Sprintf("%s:%s", as.device, as.class)
}

// Device returns the name of the device that owns the address space.
func (as *AddressSpace) Device() string {
	return as.device
}

// Class returns the memory class of the address space.
func (as *AddressSpace) Class() Class {
	return as.class
}

// AddressMask returns the mask applied to every address.
func (as *AddressSpace) AddressMask() uint32 {
	return as.addrMask
}

// DataWidth returns the natural data width of the address space.
func (as *AddressSpace) DataWidth() bus.Width {
	return as.dataWidth
}

// SetEndian sets the byte order used for wide accesses to storage.
func (as *AddressSpace) SetEndian(endian bus.Endian) error {
	if as.sealed {
		return fmt.Errorf("memory: %s: %w", as, ErrSealed)
	}
	as.endian = endian
	return nil
}

// SetSentinel sets the value returned by reads that can not be satisfied. If
// no sentinel is set for the address space, the sentinel preference is used.
func (as *AddressSpace) SetSentinel(sentinel uint32) error {
	if as.sealed {
		return fmt.Errorf("memory: %s: %w", as, ErrSealed)
	}
	as.sentinel = sentinel
	as.sentinelSet = true
	return nil
}

// Sentinel returns the sentinel value for an access of the specified width.
func (as *AddressSpace) Sentinel(width bus.Width) uint32 {
	if as.sentinelSet {
		return as.sentinel & width.Mask()
	}
	return uint32(as.ins.Prefs.Sentinel.Get().(int)) & width.Mask()
}

// Seal the address space. No more ranges can be installed after sealing.
func (as *AddressSpace) Seal() {
	as.sealed = true
}

// InstallStore maps the range to the backing store. The start address of the
// range maps to base in the store.
func (as *AddressSpace) InstallStore(start, end uint32, mode Mode, st *store.Store, base uint32) error {
	if st == nil {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: no store", as, ErrBadRange, start, end)
	}
	if uint64(base)+uint64(end)-uint64(start) >= uint64(st.Len()) {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: does not fit in store %s from %#x", as, ErrBadRange, start, end, st, base)
	}
	return as.install(&Range{
		Start:  start,
		End:    end,
		Kind:   Storage,
		Mode:   mode,
		Target: st.Name(),
		offset: base,
		store:  st,
	})
}

// InstallBank maps the range to the bank. The range can not be larger than
// the page size of the bank.
func (as *AddressSpace) InstallBank(start, end uint32, mode Mode, bnk *bank.Bank) error {
	if bnk == nil {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: no bank", as, ErrBadRange, start, end)
	}
	if end >= start && uint64(end)-uint64(start) >= uint64(bnk.PageSize()) {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: larger than page size of bank %s", as, ErrBadRange, start, end, bnk.Name())
	}
	return as.install(&Range{
		Start:  start,
		End:    end,
		Kind:   Banked,
		Mode:   mode,
		Target: bnk.Name(),
		bank:   bnk,
	})
}

// InstallHandler maps the range to a handler. Reads and writes to the range
// call the handler with the offset of the address within the range.
func (as *AddressSpace) InstallHandler(start, end uint32, name string, h bus.Handler) error {
	if h == nil {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: no handler", as, ErrBadRange, start, end)
	}
	return as.install(&Range{
		Start:  start,
		End:    end,
		Kind:   ReadWriteCallback,
		Mode:   ReadWrite,
		Target: name,
		read:   h,
		write:  h,
	})
}

// InstallReadHandler maps the range to a read handler. The range is read-only.
func (as *AddressSpace) InstallReadHandler(start, end uint32, name string, h bus.ReadHandler) error {
	if h == nil {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: no handler", as, ErrBadRange, start, end)
	}
	return as.install(&Range{
		Start:  start,
		End:    end,
		Kind:   ReadCallback,
		Mode:   ReadOnly,
		Target: name,
		read:   h,
	})
}

// InstallWriteHandler maps the range to a write handler. The range is
// write-only.
func (as *AddressSpace) InstallWriteHandler(start, end uint32, name string, h bus.WriteHandler) error {
	if h == nil {
		return fmt.Errorf("memory: %s: %w: %08x-%08x: no handler", as, ErrBadRange, start, end)
	}
	return as.install(&Range{
		Start:  start,
		End:    end,
		Kind:   WriteCallback,
		Mode:   WriteOnly,
		Target: name,
		write:  h,
	})
}

// InstallUnmapped explicitly unmaps the range. This is useful for punching a
// hole in a larger range.
func (as *AddressSpace) InstallUnmapped(start, end uint32) error {
	return as.install(&Range{
		Start: start,
		End:   end,
		Kind:  Unmapped,
	})
}

// install adds the range to the address space. A range that lies strictly
// inside an existing range is more specific and splits the existing range.
// Any other overlap is an error.
func (as *AddressSpace) install(r *Range) error {
	if as.sealed {
		return fmt.Errorf("memory: %s: %w: cannot install %s", as, ErrSealed, r)
	}
	if r.Start > r.End {
		return fmt.Errorf("memory: %s: %w: %s: start is after end", as, ErrBadRange, r)
	}
	if r.End > as.addrMask {
		return fmt.Errorf("memory: %s: %w: %s: outside of %d bit address space", as, ErrBadRange, r, as.addrWidth)
	}

	// find the first range that might overlap
	i := sort.Search(len(as.ranges), func(i int) bool {
		return as.ranges[i].End >= r.Start
	})

	if i < len(as.ranges) && as.ranges[i].overlaps(r) {
		o := as.ranges[i]
		if o.Start == r.Start && o.End == r.End {
			return fmt.Errorf("memory: %s: %w: %s (%s) is already installed as %s (%s)", as, ErrOverlap, r, r.Target, o, o.Target)
		}
		if !o.contains(r.Start) || !o.contains(r.End) {
			return fmt.Errorf("memory: %s: %w: %s (%s) overlaps %s (%s)", as, ErrOverlap, r, r.Target, o, o.Target)
		}

		// the new range is more specific than the existing range
		before, after := o.split(r)
		pieces := make([]*Range, 0, 3)
		if before != nil {
			pieces = append(pieces, before)
		}
		pieces = append(pieces, r)
		if after != nil {
			pieces = append(pieces, after)
		}
		as.ranges = append(as.ranges[:i], append(pieces, as.ranges[i+1:]...)...)
		return nil
	}

	as.ranges = append(as.ranges, nil)
	copy(as.ranges[i+1:], as.ranges[i:])
	as.ranges[i] = r
	return nil
}

// find the range that contains the address. returns nil if there is no such
// range.
func (as *AddressSpace) find(address uint32) *Range {
	i := sort.Search(len(as.ranges), func(i int) bool {
		return as.ranges[i].End >= address
	})
	if i < len(as.ranges) && as.ranges[i].Start <= address {
		return as.ranges[i]
	}
	return nil
}

// Ranges returns a copy of the ranges in the address space, in address order.
func (as *AddressSpace) Ranges() []Range {
	rs := make([]Range, 0, len(as.ranges))
	for _, r := range as.ranges {
		rs = append(rs, *r)
	}
	return rs
}

// Read from the address space. The address is masked to the address width of
// the space and the returned value is masked to the width of the access.
func (as *AddressSpace) Read(address uint32, width bus.Width) uint32 {
	address &= as.addrMask

	if !width.Valid() {
		as.diagnostic(faults.Unmapped, bus.Read, address, width)
		return as.Sentinel(bus.Long)
	}

	r := as.find(address)
	if r == nil || r.Kind == Unmapped {
		as.diagnostic(faults.Unmapped, bus.Read, address, width)
		return as.Sentinel(width)
	}
	if r.Mode == WriteOnly {
		as.diagnostic(faults.WriteOnly, bus.Read, address, width)
		return as.Sentinel(width)
	}
	as.checkStraddle(r, bus.Read, address, width)

	offset := r.offset + (address - r.Start)

	switch r.Kind {
	case Storage:
		v, _ := r.store.Read(offset, width, as.endian)
		return v & width.Mask()
	case Banked:
		st, idx, ok := r.bank.Resolve(offset)
		if !ok {
			as.diagnostic(faults.OpenBank, bus.Read, address, width)
			return as.Sentinel(width)
		}
		v, _ := st.Read(idx, width, as.endian)
		return v & width.Mask()
	}

	return r.read.Read(offset, width) & width.Mask()
}

// Write to the address space. The address is masked to the address width of
// the space. Only the bits of the value selected by mask are written. The
// mask is itself limited to the width of the access.
func (as *AddressSpace) Write(address uint32, width bus.Width, value uint32, mask uint32) {
	address &= as.addrMask

	if !width.Valid() {
		as.diagnostic(faults.Unmapped, bus.Write, address, width)
		return
	}

	mask &= width.Mask()
	value &= width.Mask()

	r := as.find(address)
	if r == nil || r.Kind == Unmapped {
		as.diagnostic(faults.Unmapped, bus.Write, address, width)
		return
	}
	if r.Mode == ReadOnly {
		as.diagnostic(faults.ReadOnly, bus.Write, address, width)
		return
	}
	as.checkStraddle(r, bus.Write, address, width)

	offset := r.offset + (address - r.Start)

	switch r.Kind {
	case Storage:
		r.store.Write(offset, width, as.endian, value, mask)
		return
	case Banked:
		st, idx, ok := r.bank.Resolve(offset)
		if !ok {
			as.diagnostic(faults.OpenBank, bus.Write, address, width)
			return
		}
		st.Write(idx, width, as.endian, value, mask)
		return
	}

	r.write.Write(offset, width, value, mask)
}

// checkStraddle records and warns about an access that begins inside the
// range but ends outside of it. The access is treated as being wholly inside
// the range.
func (as *AddressSpace) checkStraddle(r *Range, access bus.Access, address uint32, width bus.Width) {
	if uint64(address)+uint64(width)-1 <= uint64(r.End) {
		return
	}
	e := as.faults.NewEntry(faults.Straddling, as.String(), access, address, width)
	if e.Count == 1 && as.ins.Prefs.StraddleWarning.Get().(bool) {
		logger.Logf(as.ins, "memory", "%s: %s %s at %#x straddles end of range %s", as, width, access, address, r)
	}
}

// Logged returns the number of diagnostics logged by the address space.
func (as *AddressSpace) Logged() int {
	return as.logged
}

// SetLogged sets the number of diagnostics logged by the address space. Used
// when restoring the state of a machine, so that the log limit is applied as
// it would have been.
func (as *AddressSpace) SetLogged(n int) {
	as.logged = n
}

// diagnostic records a fault and logs it, subject to the log limit.
func (as *AddressSpace) diagnostic(category faults.Category, access bus.Access, address uint32, width bus.Width) {
	as.faults.NewEntry(category, as.String(), access, address, width)

	limit := as.ins.Prefs.UnmappedLogLimit.Get().(int)
	if limit > 0 && as.logged >= limit {
		return
	}
	as.logged++

	logger.Logf(as.ins, "memory", "%s: %s: %s %s at %#x", as, category, width, access, address)
	if limit > 0 && as.logged == limit {
		logger.Logf(as.ins, "memory", "%s: diagnostic limit reached (%d)", as, limit)
	}
}
