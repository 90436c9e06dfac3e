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

package hardware

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lockstep-emu/lockstep/assert"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bank"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/memory/faults"
	"github.com/lockstep-emu/lockstep/hardware/memory/store"
	"github.com/lockstep-emu/lockstep/hardware/scheduler"
	"github.com/lockstep-emu/lockstep/hardware/timer"
	"github.com/lockstep-emu/lockstep/logger"
)

// Configuration errors. They are always wrapped with the details of the
// offending declaration.
var (
	ErrStarted    = errors.New("machine has started")
	ErrNotStarted = errors.New("machine has not started")
	ErrDuplicate  = errors.New("duplicate name")
	ErrUnknown    = errors.New("unknown name")
	ErrNoDevices  = errors.New("machine has no devices")
)

// Machine is the main container for the emulated components of a board. The
// machine is configured with the Add*() functions and then started with
// Start(). Once started, the configuration can not be changed.
type Machine struct {
	Instance *instance.Instance

	// record of unmapped and restricted accesses in all address spaces
	Faults *faults.Faults

	queue *timer.Queue
	sched *scheduler.Scheduler

	devices map[string]*device.Device

	// address spaces in the order they were created. a shared address space
	// appears only once
	spaces []*memory.AddressSpace

	stores     map[string]*store.Store
	storeNames []string

	banks     map[string]*bank.Bank
	bankNames []string

	stateful      map[string]device.Snapshotter
	statefulNames []string

	// callback functions registered with RegisterCallback(). needed so that
	// CallbackEffect can call a function by name
	funcs map[timer.Callback]timer.Func

	// callback for the timer event that ends the last timeslice of RunUntil()
	stopCB timer.Callback

	// the reference clock. zero until the machine starts unless it has been
	// set explicitly
	reference clocks.Hz

	started bool

	// the goroutine that runs the machine
	owner assert.Owner

	// called with every effect that is applied
	trace func(t clocks.Time, effect string)
}

// NewMachine is the preferred method of initialisation for the Machine type.
// If ins is nil a new instance will be created.
func NewMachine(ins *instance.Instance) (*Machine, error) {
	var err error

	if ins == nil {
		ins, err = instance.NewInstance(instance.Main, nil)
		if err != nil {
			return nil, fmt.Errorf("hardware: %w", err)
		}
	}

	m := &Machine{
		Instance: ins,
		Faults:   faults.NewFaults(),
		queue:    timer.NewQueue(ins.Prefs.MaxCascade.Get().(int)),
		devices:  make(map[string]*device.Device),
		stores:   make(map[string]*store.Store),
		banks:    make(map[string]*bank.Bank),
		stateful: make(map[string]device.Snapshotter),
		funcs:    make(map[timer.Callback]timer.Func),
	}

	m.sched, err = scheduler.NewScheduler(ins, m.queue)
	if err != nil {
		return nil, fmt.Errorf("hardware: %w", err)
	}
	m.sched.SetApplier(m.applyEffect)

	m.stopCB, err = m.queue.Register("hardware.stop", func(_ uint64) {})
	if err != nil {
		return nil, fmt.Errorf("hardware: %w", err)
	}

	return m, nil
}

func (m *Machine) String() string {
	s := strings.Builder{}
	for _, d := range m.sched.Devices() {
		s.WriteString(d.String())
		s.WriteString("\n")
	}
	return s.String()
}

func (m *Machine) configurable(what string) error {
	if m.started {
		return fmt.Errorf("hardware: %s: %w", what, ErrStarted)
	}
	return nil
}

// SetReference sets the reference clock. If it is not set, the clock of the
// fastest device is used.
func (m *Machine) SetReference(reference clocks.Hz) error {
	if err := m.configurable("set reference"); err != nil {
		return err
	}
	if reference == 0 {
		return fmt.Errorf("hardware: reference clock is zero")
	}
	m.reference = reference
	return nil
}

// Reference returns the reference clock.
func (m *Machine) Reference() clocks.Hz {
	return m.reference
}

// AddDevice adds a device to the machine. Devices run in the order they are
// added.
func (m *Machine) AddDevice(name string, clock clocks.Hz, proc device.Processor) (*device.Device, error) {
	if err := m.configurable("add device " + name); err != nil {
		return nil, err
	}
	if _, ok := m.devices[name]; ok {
		return nil, fmt.Errorf("hardware: device %q: %w", name, ErrDuplicate)
	}
	d, err := device.NewDevice(name, clock, proc)
	if err != nil {
		return nil, fmt.Errorf("hardware: %w", err)
	}
	m.devices[name] = d
	m.sched.AddDevice(d)
	return d, nil
}

// StartHalted causes the device to be suspended when the machine starts and
// after every reset. The device can be resumed with ResumeDevice().
func (m *Machine) StartHalted(name string) error {
	if err := m.configurable("start halted " + name); err != nil {
		return err
	}
	d, err := m.device(name)
	if err != nil {
		return err
	}
	d.InitialState = device.Suspended
	d.State = device.Suspended
	return nil
}

// Device returns the named device.
func (m *Machine) Device(name string) (*device.Device, error) {
	return m.device(name)
}

func (m *Machine) device(name string) (*device.Device, error) {
	d, ok := m.devices[name]
	if !ok {
		return nil, fmt.Errorf("hardware: device %q: %w", name, ErrUnknown)
	}
	return d, nil
}

// Devices returns the devices of the machine in round-robin order.
func (m *Machine) Devices() []*device.Device {
	return m.sched.Devices()
}

// AddAddressSpace adds an address space of the class to the device.
func (m *Machine) AddAddressSpace(name string, class memory.Class, addrWidth uint, dataWidth bus.Width) (*memory.AddressSpace, error) {
	if err := m.configurable("add address space"); err != nil {
		return nil, err
	}
	d, err := m.device(name)
	if err != nil {
		return nil, err
	}
	if _, ok := d.Spaces[class]; ok {
		return nil, fmt.Errorf("hardware: device %q: %s address space: %w", name, class, ErrDuplicate)
	}
	as, err := memory.NewAddressSpace(m.Instance, m.Faults, name, class, addrWidth, dataWidth)
	if err != nil {
		return nil, fmt.Errorf("hardware: %w", err)
	}
	d.Spaces[class] = as
	m.spaces = append(m.spaces, as)
	return as, nil
}

// ShareAddressSpace gives the other device the same address space as the
// owner, for the class.
func (m *Machine) ShareAddressSpace(owner string, class memory.Class, other string) error {
	if err := m.configurable("share address space"); err != nil {
		return err
	}
	as, err := m.AddressSpace(owner, class)
	if err != nil {
		return err
	}
	d, err := m.device(other)
	if err != nil {
		return err
	}
	if _, ok := d.Spaces[class]; ok {
		return fmt.Errorf("hardware: device %q: %s address space: %w", other, class, ErrDuplicate)
	}
	d.Spaces[class] = as
	return nil
}

// AddressSpace returns the address space of the class for the device.
func (m *Machine) AddressSpace(name string, class memory.Class) (*memory.AddressSpace, error) {
	d, err := m.device(name)
	if err != nil {
		return nil, err
	}
	as, ok := d.Spaces[class]
	if !ok {
		return nil, fmt.Errorf("hardware: device %q: %s address space: %w", name, class, ErrUnknown)
	}
	return as, nil
}

// AddStore adds a backing store to the machine.
func (m *Machine) AddStore(name string, size int) (*store.Store, error) {
	if err := m.configurable("add store " + name); err != nil {
		return nil, err
	}
	if _, ok := m.stores[name]; ok {
		return nil, fmt.Errorf("hardware: store %q: %w", name, ErrDuplicate)
	}
	st, err := store.NewStore(name, size)
	if err != nil {
		return nil, fmt.Errorf("hardware: %w", err)
	}
	m.stores[name] = st
	m.storeNames = append(m.storeNames, name)
	return st, nil
}

// Store returns the named backing store.
func (m *Machine) Store(name string) (*store.Store, error) {
	st, ok := m.stores[name]
	if !ok {
		return nil, fmt.Errorf("hardware: store %q: %w", name, ErrUnknown)
	}
	return st, nil
}

// Stores returns the backing stores in the order they were added.
func (m *Machine) Stores() []*store.Store {
	sts := make([]*store.Store, 0, len(m.storeNames))
	for _, n := range m.storeNames {
		sts = append(sts, m.stores[n])
	}
	return sts
}

// AddBank adds a bank to the machine. The bank must be configured with
// ConfigureBank() before the machine is started.
func (m *Machine) AddBank(name string, pages int, pageSize uint32) (*bank.Bank, error) {
	if err := m.configurable("add bank " + name); err != nil {
		return nil, err
	}
	if _, ok := m.banks[name]; ok {
		return nil, fmt.Errorf("hardware: bank %q: %w", name, ErrDuplicate)
	}
	b, err := bank.NewBank(name, pages, pageSize)
	if err != nil {
		return nil, fmt.Errorf("hardware: %w", err)
	}
	m.banks[name] = b
	m.bankNames = append(m.bankNames, name)
	return b, nil
}

// ConfigureBank places the pages of the bank in the named store, beginning at
// base.
func (m *Machine) ConfigureBank(name string, storeName string, base uint32) error {
	if err := m.configurable("configure bank " + name); err != nil {
		return err
	}
	b, err := m.Bank(name)
	if err != nil {
		return err
	}
	st, err := m.Store(storeName)
	if err != nil {
		return err
	}
	if err := b.Configure(st, base); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	return nil
}

// Bank returns the named bank.
func (m *Machine) Bank(name string) (*bank.Bank, error) {
	b, ok := m.banks[name]
	if !ok {
		return nil, fmt.Errorf("hardware: bank %q: %w", name, ErrUnknown)
	}
	return b, nil
}

// AddInterruptLine adds an interrupt line to the device.
func (m *Machine) AddInterruptLine(name string, id interrupts.ID) error {
	if err := m.configurable("add interrupt line"); err != nil {
		return err
	}
	d, err := m.device(name)
	if err != nil {
		return err
	}
	if err := d.Lines.Add(id); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	return nil
}

// RegisterCallback registers a timer callback function. Callbacks can be
// registered after the machine has started but the same callbacks must be
// registered, in any order, on any machine that is to load saved state.
func (m *Machine) RegisterCallback(name string, fn timer.Func) (timer.Callback, error) {
	cb, err := m.queue.Register(name, fn)
	if err != nil {
		return "", fmt.Errorf("hardware: %w", err)
	}
	m.funcs[cb] = fn
	return cb, nil
}

// AddStateful adds a part of the machine with state that must be included in
// snapshots and saved state. Processors that implement device.Snapshotter are
// added automatically when the machine starts.
func (m *Machine) AddStateful(name string, s device.Snapshotter) error {
	if err := m.configurable("add stateful " + name); err != nil {
		return err
	}
	if _, ok := m.stateful[name]; ok {
		return fmt.Errorf("hardware: stateful %q: %w", name, ErrDuplicate)
	}
	m.stateful[name] = s
	m.statefulNames = append(m.statefulNames, name)
	return nil
}

// SetTrace sets the function called whenever a deferred effect is applied.
// A nil function turns off tracing.
func (m *Machine) SetTrace(trace func(t clocks.Time, effect string)) {
	m.trace = trace
}

// Start the machine. The configuration is checked and sealed. The scheduling
// quantum must be set by this point.
func (m *Machine) Start() error {
	if m.started {
		return fmt.Errorf("hardware: %w", ErrStarted)
	}

	devices := m.sched.Devices()
	if len(devices) == 0 {
		return fmt.Errorf("hardware: %w", ErrNoDevices)
	}

	for _, n := range m.bankNames {
		if !m.banks[n].Configured() {
			return fmt.Errorf("hardware: bank %q: %w", n, bank.ErrNotConfigured)
		}
	}

	reference := m.reference
	if reference == 0 {
		for _, d := range devices {
			reference = max(reference, d.Clock)
		}
	}
	for _, d := range devices {
		if err := d.SetReference(reference); err != nil {
			return fmt.Errorf("hardware: %w", err)
		}
	}

	// the quantum is checked against the device clocks
	if _, err := m.sched.Quantum(); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}

	for _, d := range devices {
		if s, ok := d.Proc.(device.Snapshotter); ok {
			name := "device:" + d.Name
			if _, ok := m.stateful[name]; !ok {
				m.stateful[name] = s
				m.statefulNames = append(m.statefulNames, name)
			}
		}
	}

	for _, as := range m.spaces {
		as.Seal()
	}

	m.queue.SetMaxCascade(m.Instance.Prefs.MaxCascade.Get().(int))

	m.reference = reference

	// the first goroutine to use the runtime API becomes the owner
	m.owner.Release()
	m.started = true

	logger.Logf(m.Instance, "hardware", "started with %d devices, reference clock %s", len(devices), m.reference)

	return nil
}

// Started returns true if the machine has been started.
func (m *Machine) Started() bool {
	return m.started
}

// Close the machine. Processors and stateful parts of the machine that
// implement io.Closer are closed.
func (m *Machine) Close() error {
	var errs []error
	closed := make(map[any]bool)
	closeIt := func(v any) {
		if c, ok := v.(io.Closer); ok && !closed[v] {
			closed[v] = true
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, d := range m.sched.Devices() {
		closeIt(d.Proc)
	}
	for _, n := range m.statefulNames {
		closeIt(m.stateful[n])
	}
	return errors.Join(errs...)
}

// Summary returns a description of the configuration of the machine.
func (m *Machine) Summary() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "reference clock: %s\n", m.reference)
	for _, d := range m.sched.Devices() {
		fmt.Fprintf(&s, "device %s: %s\n", d.Name, d.Clock)
		if l := d.Lines.String(); l != "" {
			fmt.Fprintf(&s, "  lines: %s\n", l)
		}
	}
	for _, st := range m.Stores() {
		fmt.Fprintf(&s, "store %s\n", st)
	}
	for _, n := range m.bankNames {
		b := m.banks[n]
		fmt.Fprintf(&s, "bank %s: %d pages of %#x bytes\n", b, b.Pages(), b.PageSize())
	}
	for _, as := range m.spaces {
		s.WriteString(as.Summary())
	}
	return s.String()
}
