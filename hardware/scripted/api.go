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

	"github.com/lockstep-emu/lockstep/hardware"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/logger"
	lua "github.com/yuin/gopher-lua"
)

// register the functions available to the script.
func (p *Processor) register() {
	for name, fn := range map[string]lua.LGFunction{
		"read":         p.luaRead,
		"write":        p.luaWrite,
		"resync":       p.luaResync,
		"resync_write": p.luaResyncWrite,
		"resync_line":  p.luaResyncLine,
		"resync_bank":  p.luaResyncBank,
		"assert_line":  p.luaAssertLine,
		"clear_line":   p.luaClearLine,
		"bank":         p.luaBank,
		"halt":         p.luaHalt,
		"resume":       p.luaResume,
		"now":          p.luaNow,
		"log":          p.luaLog,
	} {
		p.L.SetGlobal(name, p.L.NewFunction(fn))
	}

	// replace the random functions of the math library
	if math, ok := p.L.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		math.RawSetString("random", p.L.NewFunction(p.luaRandom))
		math.RawSetString("randomseed", p.L.NewFunction(func(L *lua.LState) int {
			L.RaiseError("randomseed() is not available")
			return 0
		}))
	}
}

// raise a Lua error if err is not nil. returns the number of results
// pushed to the stack, which is always zero.
func (p *Processor) check(L *lua.LState, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func checkClass(L *lua.LState, n int) memory.Class {
	c, err := memory.ParseClass(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return c
}

func checkWidth(L *lua.LState, n int) bus.Width {
	w := bus.Width(L.CheckInt(n))
	if !w.Valid() {
		L.ArgError(n, fmt.Sprintf("invalid width: %d", w))
	}
	return w
}

func checkLine(L *lua.LState, n int) interrupts.ID {
	id, err := interrupts.ParseID(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return id
}

func checkMode(L *lua.LState, n int) interrupts.Mode {
	mode, err := interrupts.ParseMode(L.OptString(n, "hold"))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return mode
}

func checkUint32(L *lua.LState, n int) uint32 {
	return uint32(int64(L.CheckNumber(n)))
}

func checkTime(L *lua.LState, n int) clocks.Time {
	v := L.CheckInt64(n)
	if v < 0 {
		L.ArgError(n, "negative delay")
	}
	return clocks.Time(v)
}

func (p *Processor) luaRead(L *lua.LState) int {
	class := checkClass(L, 1)
	address := checkUint32(L, 2)
	width := checkWidth(L, 3)
	v, err := p.m.BusRead(p.device, class, address, width)
	p.check(L, err)
	L.Push(lua.LNumber(v))
	return 1
}

func (p *Processor) luaWrite(L *lua.LState) int {
	class := checkClass(L, 1)
	address := checkUint32(L, 2)
	width := checkWidth(L, 3)
	value := checkUint32(L, 4)
	return p.check(L, p.m.BusWrite(p.device, class, address, width, value, width.Mask()))
}

func (p *Processor) luaResync(L *lua.LState) int {
	return p.check(L, p.m.Resynchronize(checkTime(L, 1)))
}

func (p *Processor) luaResyncWrite(L *lua.LState) int {
	delay := checkTime(L, 1)
	width := checkWidth(L, 4)
	e := hardware.WriteEffect{
		Device:  p.device,
		Class:   checkClass(L, 2),
		Address: checkUint32(L, 3),
		Width:   width,
		Value:   checkUint32(L, 5),
		Mask:    width.Mask(),
	}
	return p.check(L, p.m.Resynchronize(delay, e))
}

func (p *Processor) luaResyncLine(L *lua.LState) int {
	delay := checkTime(L, 1)
	e := hardware.LineEffect{
		Device: L.CheckString(2),
		Line:   checkLine(L, 3),
		Assert: true,
		Mode:   checkMode(L, 4),
	}
	return p.check(L, p.m.Resynchronize(delay, e))
}

func (p *Processor) luaResyncBank(L *lua.LState) int {
	delay := checkTime(L, 1)
	e := hardware.BankEffect{
		Bank: L.CheckString(2),
		Page: L.CheckInt(3),
	}
	return p.check(L, p.m.Resynchronize(delay, e))
}

func (p *Processor) luaAssertLine(L *lua.LState) int {
	return p.check(L, p.m.AssertLine(L.CheckString(1), checkLine(L, 2), checkMode(L, 3)))
}

func (p *Processor) luaClearLine(L *lua.LState) int {
	return p.check(L, p.m.ClearLine(L.CheckString(1), checkLine(L, 2)))
}

func (p *Processor) luaBank(L *lua.LState) int {
	return p.check(L, p.m.BankSelect(L.CheckString(1), L.CheckInt(2)))
}

func (p *Processor) luaHalt(L *lua.LState) int {
	return p.check(L, p.m.HaltDevice(L.CheckString(1)))
}

func (p *Processor) luaResume(L *lua.LState) int {
	return p.check(L, p.m.ResumeDevice(L.CheckString(1)))
}

func (p *Processor) luaNow(L *lua.LState) int {
	L.Push(lua.LNumber(p.m.LocalNow()))
	return 1
}

// random numbers follow the conventions of the standard Lua library
func (p *Processor) luaRandom(L *lua.LState) int {
	if p.rng == nil {
		p.rng = p.rnd.Rand(p.m.LocalNow(), p.device)
	}

	switch L.GetTop() {
	case 0:
		L.Push(lua.LNumber(p.rng.Float64()))
	case 1:
		m := L.CheckInt(1)
		if m < 1 {
			L.ArgError(1, "interval is empty")
		}
		L.Push(lua.LNumber(1 + p.rng.Intn(m)))
	default:
		m := L.CheckInt(1)
		n := L.CheckInt(2)
		if n < m {
			L.ArgError(2, "interval is empty")
		}
		L.Push(lua.LNumber(m + p.rng.Intn(n-m+1)))
	}
	return 1
}

func (p *Processor) luaLog(L *lua.LState) int {
	logger.Log(p.perm, p.device, L.CheckString(1))
	return 0
}
