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

// Package bank implements bank switching. A Bank redirects a fixed window of
// an address space to one page of a larger backing store. The page can be
// changed at any time with Select() and the change is seen by every Range
// that refers to the bank on its very next access.
package bank

import (
	"errors"
	"fmt"

	"github.com/lockstep-emu/lockstep/hardware/memory/store"
)

// ErrPageOutOfRange is returned by Select() when the requested page does not
// exist. The bank will be left with the open page selected.
var ErrPageOutOfRange = errors.New("page out of range")

// ErrNotConfigured is returned when a bank is used before it has been
// configured.
var ErrNotConfigured = errors.New("bank not configured")

// Bank is a named indirection into a backing store.
type Bank struct {
	name     string
	pages    int
	pageSize uint32

	store *store.Store
	base  uint32

	// the selected page. when open is true, the page value is meaningless
	// and accesses through the bank do not reach the store
	page int
	open bool
}

// NewBank is the preferred method of initialisation for the Bank type. The
// bank cannot be used until Configure() has been called.
func NewBank(name string, pages int, pageSize uint32) (*Bank, error) {
	if name == "" {
		return nil, fmt.Errorf("bank: name is empty")
	}
	if pages <= 0 {
		return nil, fmt.Errorf("bank: %s: invalid page count (%d)", name, pages)
	}
	if pageSize == 0 {
		return nil, fmt.Errorf("bank: %s: invalid page size (0)", name)
	}
	return &Bank{
		name:     name,
		pages:    pages,
		pageSize: pageSize,
	}, nil
}

func (b *Bank) String() string {
	if b.open {
		return fmt.Sprintf("%s [open]", b.name)
	}
	return fmt.Sprintf("%s [%d/%d]", b.name, b.page, b.pages)
}

// Name returns the name of the bank.
func (b *Bank) Name() string {
	return b.name
}

// Pages returns the number of pages in the bank.
func (b *Bank) Pages() int {
	return b.pages
}

// PageSize returns the size of each page in bytes.
func (b *Bank) PageSize() uint32 {
	return b.pageSize
}

// Store returns the backing store of the bank. Returns nil if the bank has
// not been configured.
func (b *Bank) Store() *store.Store {
	return b.store
}

// Configure declares where in the backing store the pages of the bank live.
// The pages are contiguous and begin at base. A bank can only be configured
// once.
func (b *Bank) Configure(st *store.Store, base uint32) error {
	if b.store != nil {
		return fmt.Errorf("bank: %s: already configured", b.name)
	}
	if st == nil {
		return fmt.Errorf("bank: %s: no backing store", b.name)
	}
	end := uint64(base) + uint64(b.pages)*uint64(b.pageSize)
	if end > uint64(st.Len()) {
		return fmt.Errorf("bank: %s: %d pages of %#x bytes from %#x do not fit in store %s",
			b.name, b.pages, b.pageSize, base, st)
	}
	b.store = st
	b.base = base
	return nil
}

// Configured returns true if Configure() has been called successfully.
func (b *Bank) Configured() bool {
	return b.store != nil
}

// Select the page of the bank. An out of range page selects the open page and
// returns ErrPageOutOfRange. Reads through an open bank return the sentinel
// value of the address space and writes are dropped.
func (b *Bank) Select(page int) error {
	if page < 0 || page >= b.pages {
		b.open = true
		return fmt.Errorf("bank: %s: %w: %d of %d", b.name, ErrPageOutOfRange, page, b.pages)
	}
	b.page = page
	b.open = false
	return nil
}

// Page returns the currently selected page. The open value is true if the
// open page is selected.
func (b *Bank) Page() (page int, open bool) {
	return b.page, b.open
}

// Resolve the offset within the bank window to an index in the backing store.
// The ok value is false if the bank is not configured, if the open page is
// selected or if the offset is outside of the page.
func (b *Bank) Resolve(offset uint32) (st *store.Store, index uint32, ok bool) {
	if b.store == nil || b.open || offset >= b.pageSize {
		return nil, 0, false
	}
	return b.store, b.base + uint32(b.page)*b.pageSize + offset, true
}

// State is the part of the bank that changes during emulation.
type State struct {
	Page int
	Open bool
}

// State returns the current state of the bank.
func (b *Bank) State() State {
	return State{Page: b.page, Open: b.open}
}

// Restore bank state.
func (b *Bank) Restore(s State) error {
	if s.Page < 0 || s.Page >= b.pages {
		return fmt.Errorf("bank: %s: restore: %w: %d of %d", b.name, ErrPageOutOfRange, s.Page, b.pages)
	}
	b.page = s.Page
	b.open = s.Open
	return nil
}
