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

package scripted

import (
	"fmt"
	"math/rand"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/scheduler"
	"github.com/lockstep-emu/lockstep/logger"
	"github.com/lockstep-emu/lockstep/random"
	lua "github.com/yuin/gopher-lua"
)

// Machine is the part of hardware.Machine used by a scripted processor.
type Machine interface {
	BusRead(name string, class memory.Class, address uint32, width bus.Width) (uint32, error)
	BusWrite(name string, class memory.Class, address uint32, width bus.Width, value uint32, mask uint32) error
	BankSelect(name string, page int) error
	AssertLine(name string, id interrupts.ID, mode interrupts.Mode) error
	ClearLine(name string, id interrupts.ID) error
	Resynchronize(delay clocks.Time, effects ...scheduler.Effect) error
	HaltDevice(name string) error
	ResumeDevice(name string) error
	LocalNow() clocks.Time
}

// name of the global table that is saved with the state of the machine
const stateTable = "state"

// Processor is a device.Processor implemented by a Lua script.
type Processor struct {
	m      Machine
	device string
	name   string

	L *lua.LState

	step      lua.LValue
	interrupt lua.LValue
	accept    lua.LValue
	reset     lua.LValue

	// the log permission. log() output from the script is sent here
	perm logger.Permission

	// source of math.random(). the generator is seeded on first use in every
	// call into the script
	rnd *random.Random
	rng *rand.Rand
}

// NewProcessor is the preferred method of initialisation for the Processor
// type. The device argument is the name of the device the processor will be
// added to. The name argument is used in error messages and is usually the
// filename of the script.
func NewProcessor(m Machine, perm logger.Permission, device string, name string, script string) (*Processor, error) {
	p := &Processor{
		m:      m,
		device: device,
		name:   name,
		perm:   perm,
		rnd:    &random.Random{ZeroSeed: true},
		L:      lua.NewState(lua.Options{SkipOpenLibs: true}),
	}

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		p.L.Push(p.L.NewFunction(lib.fn))
		p.L.Push(lua.LString(lib.name))
		p.L.Call(1, 0)
	}

	p.L.SetGlobal(stateTable, p.L.NewTable())
	p.register()

	if err := p.L.DoString(script); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("scripted: %s: %w", name, err)
	}

	p.step = p.L.GetGlobal("step")
	if p.step.Type() != lua.LTFunction {
		p.L.Close()
		return nil, fmt.Errorf("scripted: %s: step() function is not defined", name)
	}
	p.interrupt = p.L.GetGlobal("interrupt")
	p.accept = p.L.GetGlobal("accept")
	p.reset = p.L.GetGlobal("reset")

	return p, nil
}

// SetRandom changes the source of random numbers for the script.
func (p *Processor) SetRandom(rnd *random.Random) {
	p.rnd = rnd
}

func (p *Processor) String() string {
	return fmt.Sprintf("%s (%s)", p.device, p.name)
}

// call the function with the arguments and return the single result.
func (p *Processor) call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	p.rng = nil
	err := p.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return lua.LNil, fmt.Errorf("scripted: %s: %w", p.name, err)
	}
	ret := p.L.Get(-1)
	p.L.Pop(1)
	return ret, nil
}

func cycles(v lua.LValue) int {
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 1
}

// Step implements the device.Processor interface.
func (p *Processor) Step() (int, error) {
	ret, err := p.call(p.step)
	if err != nil {
		return 0, err
	}
	return cycles(ret), nil
}

// AcceptInterrupt implements the device.Processor interface.
func (p *Processor) AcceptInterrupt(id interrupts.ID) bool {
	if p.interrupt.Type() != lua.LTFunction {
		return false
	}
	if p.accept.Type() != lua.LTFunction {
		return true
	}
	ret, err := p.call(p.accept, lua.LString(id.String()))
	if err != nil {
		logger.Log(p.perm, "scripted", err)
		return false
	}
	return lua.LVAsBool(ret)
}

// TakeInterrupt implements the device.Processor interface.
func (p *Processor) TakeInterrupt(id interrupts.ID) (int, error) {
	ret, err := p.call(p.interrupt, lua.LString(id.String()))
	if err != nil {
		return 0, err
	}
	return cycles(ret), nil
}

// Reset implements the device.Processor interface.
func (p *Processor) Reset() {
	if p.reset.Type() != lua.LTFunction {
		return
	}
	if _, err := p.call(p.reset); err != nil {
		logger.Log(p.perm, "scripted", err)
	}
}

// Close implements the io.Closer interface.
func (p *Processor) Close() error {
	p.L.Close()
	return nil
}
