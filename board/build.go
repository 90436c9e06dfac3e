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

package board

import (
	"errors"
	"fmt"
	"os"

	"github.com/lockstep-emu/lockstep/hardware"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/peripherals"
	"github.com/lockstep-emu/lockstep/hardware/scripted"
	"github.com/lockstep-emu/lockstep/logger"
)

// Machine is a started machine built from a board description, along with the
// peripherals created for it.
type Machine struct {
	*hardware.Machine
	Board *Board

	Latches map[string]*peripherals.Latch

	// DACs in the order they appear in the board description
	DACs []*peripherals.DAC

	handlers map[string]bus.Handler
}

// Build creates and starts a machine from the board description.
//
// The quantum of the board description is used only if the quantum
// preference of the instance has not been set. This means the command line
// can always override the quantum of a board.
func (b *Board) Build(ins *instance.Instance) (*Machine, error) {
	hm, err := hardware.NewMachine(ins)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	m := &Machine{
		Machine:  hm,
		Board:    b,
		Latches:  make(map[string]*peripherals.Latch),
		handlers: make(map[string]bus.Handler),
	}

	if err := m.build(); err != nil {
		return nil, errors.Join(fmt.Errorf("board: %s: %w", b, err), m.Close())
	}

	return m, nil
}

func (m *Machine) build() error {
	b := m.Board
	ins := m.Instance

	if ins.Prefs.Quantum.Get().(int) <= 0 && b.Quantum > 0 {
		if err := ins.Prefs.Quantum.Set(b.Quantum); err != nil {
			return err
		}
	}
	if b.Reference != 0 {
		if err := m.SetReference(clocks.Hz(b.Reference)); err != nil {
			return err
		}
	}

	for _, s := range b.Stores {
		if err := m.buildStore(s); err != nil {
			return err
		}
	}

	for _, bk := range b.Banks {
		bnk, err := m.AddBank(bk.Name, bk.Pages, bk.PageSize)
		if err != nil {
			return err
		}
		if err := m.ConfigureBank(bk.Name, bk.Store, bk.Base); err != nil {
			return err
		}
		if err := bnk.Select(bk.Select); err != nil {
			return err
		}
	}

	for _, d := range b.Devices {
		if err := m.buildDevice(d); err != nil {
			return err
		}
	}

	for _, p := range b.Peripherals {
		if err := m.buildPeripheral(p); err != nil {
			return err
		}
	}

	// address spaces are created after all devices and peripherals exist.
	// shared address spaces are created last
	for _, d := range b.Devices {
		for _, s := range d.Spaces {
			if s.Share == "" {
				if err := m.buildSpace(d.Name, s); err != nil {
					return err
				}
			}
		}
	}
	for _, d := range b.Devices {
		for _, s := range d.Spaces {
			if s.Share != "" {
				class, err := memory.ParseClass(s.Class)
				if err != nil {
					return err
				}
				if err := m.ShareAddressSpace(s.Share, class, d.Name); err != nil {
					return err
				}
			}
		}
	}

	return m.Start()
}

func (m *Machine) buildStore(s Store) error {
	st, err := m.AddStore(s.Name, s.Size)
	if err != nil {
		return err
	}
	if s.Fill != 0 {
		data := st.Data()
		for i := range data {
			data[i] = s.Fill
		}
	}
	if s.File != "" {
		data, err := os.ReadFile(m.Board.path(s.File))
		if err != nil {
			return err
		}
		if err := st.Load(s.Offset, data); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) buildDevice(d Device) error {
	name := d.Script
	src := d.Source
	if d.Script != "" {
		data, err := os.ReadFile(m.Board.path(d.Script))
		if err != nil {
			return err
		}
		src = string(data)
	} else {
		name = d.Name + " (inline)"
	}
	if src == "" {
		return fmt.Errorf("device %q has no script", d.Name)
	}

	proc, err := scripted.NewProcessor(m.Machine, m.Instance, d.Name, name, src)
	if err != nil {
		return err
	}
	proc.SetRandom(m.Instance.Random)

	if _, err := m.AddDevice(d.Name, clocks.Hz(d.Clock), proc); err != nil {
		return errors.Join(err, proc.Close())
	}

	for _, l := range d.Lines {
		id, err := interrupts.ParseID(l)
		if err != nil {
			return err
		}
		if err := m.AddInterruptLine(d.Name, id); err != nil {
			return err
		}
	}

	if d.Halted {
		return m.StartHalted(d.Name)
	}

	return nil
}

func (m *Machine) buildPeripheral(p Peripheral) error {
	if _, ok := m.handlers[p.Name]; ok {
		return fmt.Errorf("peripheral %q: %w", p.Name, hardware.ErrDuplicate)
	}

	switch p.Kind {
	case "latch":
		l := peripherals.NewLatch(p.Name)
		if p.Interrupt != nil {
			id, err := interrupts.ParseID(p.Interrupt.Line)
			if err != nil {
				return err
			}
			mode, err := interrupts.ParseMode(p.Interrupt.Mode)
			if err != nil {
				return err
			}
			if _, err := m.Device(p.Interrupt.Device); err != nil {
				return err
			}
			dev := p.Interrupt.Device
			l.OnWrite = func(_ uint8) {
				if err := m.AssertLine(dev, id, mode); err != nil {
					logger.Log(m.Instance, "board", err)
				}
			}
		}
		m.Latches[p.Name] = l
		m.handlers[p.Name] = l
		return m.AddStateful(p.Name, l)
	case "dac":
		d := peripherals.NewDAC(p.Name)
		m.DACs = append(m.DACs, d)
		m.handlers[p.Name] = d
		return m.AddStateful(p.Name, d)
	}

	return fmt.Errorf("peripheral %q: unknown kind %q (available: %v)", p.Name, p.Kind, peripherals.Available)
}

func (m *Machine) buildSpace(device string, s Space) error {
	class, err := memory.ParseClass(s.Class)
	if err != nil {
		return err
	}

	width := bus.Byte
	if s.DataWidth != 0 {
		width = bus.Width(s.DataWidth)
	}

	as, err := m.AddAddressSpace(device, class, s.AddressBits, width)
	if err != nil {
		return err
	}

	switch s.Endian {
	case "", "little":
	case "big":
		if err := as.SetEndian(bus.BigEndian); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: unknown endian %q", as, s.Endian)
	}

	if s.Sentinel != nil {
		if err := as.SetSentinel(uint32(*s.Sentinel)); err != nil {
			return err
		}
	}

	for _, r := range s.Map {
		if err := m.buildRange(as, r); err != nil {
			return err
		}
	}

	return nil
}

func (m *Machine) buildRange(as *memory.AddressSpace, r Range) error {
	mode, err := memory.ParseMode(r.Mode)
	if err != nil {
		return err
	}

	switch {
	case r.Store != "":
		st, err := m.Store(r.Store)
		if err != nil {
			return err
		}
		return as.InstallStore(r.Start, r.End, mode, st, r.Base)
	case r.Bank != "":
		bnk, err := m.Bank(r.Bank)
		if err != nil {
			return err
		}
		return as.InstallBank(r.Start, r.End, mode, bnk)
	case r.Peripheral != "":
		h, ok := m.handlers[r.Peripheral]
		if !ok {
			return fmt.Errorf("%s: unknown peripheral %q", as, r.Peripheral)
		}
		switch mode {
		case memory.ReadOnly:
			return as.InstallReadHandler(r.Start, r.End, r.Peripheral, h)
		case memory.WriteOnly:
			return as.InstallWriteHandler(r.Start, r.End, r.Peripheral, h)
		}
		return as.InstallHandler(r.Start, r.End, r.Peripheral, h)
	case r.Unmapped:
		return as.InstallUnmapped(r.Start, r.End)
	}

	return fmt.Errorf("%s: range %#x-%#x has nothing mapped", as, r.Start, r.End)
}
