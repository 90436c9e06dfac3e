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

package scripted_test

import (
	"context"
	"testing"

	"github.com/lockstep-emu/lockstep/hardware"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/device"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/interrupts"
	"github.com/lockstep-emu/lockstep/hardware/memory"
	"github.com/lockstep-emu/lockstep/hardware/memory/bus"
	"github.com/lockstep-emu/lockstep/hardware/peripherals"
	"github.com/lockstep-emu/lockstep/hardware/scripted"
	"github.com/lockstep-emu/lockstep/test"
)

const hostScript = `
state.count = 0
function step()
	state.count = state.count + 1
	if state.count % 50 == 0 then
		write("io", 0, 1, state.count / 50)
		assert_line("sound", "NMI", "pulse")
	end
	return 4
end
`

const soundScript = `
state.commands = 0
state.last = 0
function step()
	return 2
end
function interrupt(line)
	state.last = read("io", 0, 1)
	state.commands = state.commands + 1
	write("io", 0x10, 1, state.last * 16)
	return 10
end
`

func newMachine(t *testing.T) (*hardware.Machine, *scripted.Processor, *peripherals.DAC) {
	t.Helper()

	ins, err := instance.NewInstance("test", nil)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, ins.Prefs.Quantum.Set(40))
	m, err := hardware.NewMachine(ins)
	test.DemandSuccess(t, err)

	host, err := scripted.NewProcessor(m, ins, "host", "host.lua", hostScript)
	test.DemandSuccess(t, err)
	sound, err := scripted.NewProcessor(m, ins, "sound", "sound.lua", soundScript)
	test.DemandSuccess(t, err)

	_, err = m.AddDevice("host", 4*clocks.MHz, host)
	test.DemandSuccess(t, err)
	_, err = m.AddDevice("sound", 2*clocks.MHz, sound)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, m.AddInterruptLine("sound", interrupts.NMI))

	latch := peripherals.NewLatch("latch")
	dac := peripherals.NewDAC("dac")

	as, err := m.AddAddressSpace("host", memory.IO, 8, bus.Byte)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, as.InstallHandler(0x00, 0x01, "latch", latch))

	as, err = m.AddAddressSpace("sound", memory.IO, 8, bus.Byte)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, as.InstallHandler(0x00, 0x01, "latch", latch))
	test.DemandSuccess(t, as.InstallHandler(0x10, 0x10, "dac", dac))

	test.DemandSuccess(t, m.AddStateful("latch", latch))
	test.DemandSuccess(t, m.AddStateful("dac", dac))
	test.DemandSuccess(t, m.Start())

	return m, sound, dac
}

func TestScriptedHandshake(t *testing.T) {
	m, sound, dac := newMachine(t)
	var _ device.Processor = sound
	var _ device.Snapshotter = sound

	// host steps take 4 cycles at 4MHz so a command is sent every 200 ticks
	test.DemandSuccess(t, m.RunFor(context.Background(), 1000))
	test.ExpectEquality(t, dac.Writes(), uint64(5))
	test.ExpectEquality(t, dac.Level(), uint8(0x50))

	data, err := sound.SaveState()
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, m.RunFor(context.Background(), 1000))
	test.ExpectEquality(t, dac.Level(), uint8(0xa0))

	test.DemandSuccess(t, sound.RestoreState(data))
	test.ExpectEquality(t, sound.L.GetField(sound.L.GetGlobal("state"), "commands").String(), "5")

	test.ExpectSuccess(t, m.Close())
}

func TestScriptErrors(t *testing.T) {
	ins, err := instance.NewInstance("test", nil)
	test.DemandSuccess(t, err)
	m, err := hardware.NewMachine(ins)
	test.DemandSuccess(t, err)

	// syntax error
	_, err = scripted.NewProcessor(m, ins, "cpu", "bad.lua", "function step(")
	test.ExpectFailure(t, err)

	// no step function
	_, err = scripted.NewProcessor(m, ins, "cpu", "empty.lua", "x = 1")
	test.ExpectFailure(t, err)

	// runtime errors are returned from Step() so that the device faults
	p, err := scripted.NewProcessor(m, ins, "cpu", "fault.lua", `function step() error("illegal instruction") end`)
	test.DemandSuccess(t, err)
	_, err = p.Step()
	test.ExpectFailure(t, err)

	// bad arguments to the API are errors
	p, err = scripted.NewProcessor(m, ins, "cpu", "args.lua", `function step() return read("rom", 0, 1) end`)
	test.DemandSuccess(t, err)
	_, err = p.Step()
	test.ExpectFailure(t, err)

	// interrupts are not accepted if there is no interrupt function
	test.ExpectEquality(t, p.AcceptInterrupt(interrupts.NMI), false)
	test.ExpectSuccess(t, p.Close())
}

func TestRandom(t *testing.T) {
	ins, err := instance.NewInstance("test", nil)
	test.DemandSuccess(t, err)
	ins.Normalise()
	m, err := hardware.NewMachine(ins)
	test.DemandSuccess(t, err)

	const script = `
function step()
	state.a = math.random(1, 6)
	state.b = math.random(10)
	state.f = math.random()
	return 1
end
`
	result := func(p *scripted.Processor) string {
		st := p.L.GetGlobal("state")
		return p.L.GetField(st, "a").String() + " " + p.L.GetField(st, "b").String() + " " + p.L.GetField(st, "f").String()
	}

	a, err := scripted.NewProcessor(m, ins, "cpu", "a.lua", script)
	test.DemandSuccess(t, err)
	a.SetRandom(ins.Random)
	b, err := scripted.NewProcessor(m, ins, "cpu", "b.lua", script)
	test.DemandSuccess(t, err)
	b.SetRandom(ins.Random)

	_, err = a.Step()
	test.DemandSuccess(t, err)
	first := result(a)
	_, err = b.Step()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, result(b), first)

	// reseeded on every call at the same time
	_, err = a.Step()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, result(a), first)

	p, err := scripted.NewProcessor(m, ins, "cpu", "seed.lua", `function step() math.randomseed(10) end`)
	test.DemandSuccess(t, err)
	_, err = p.Step()
	test.ExpectFailure(t, err)

	p, err = scripted.NewProcessor(m, ins, "cpu", "range.lua", `function step() return math.random(0) end`)
	test.DemandSuccess(t, err)
	_, err = p.Step()
	test.ExpectFailure(t, err)

	test.ExpectSuccess(t, a.Close())
	test.ExpectSuccess(t, b.Close())
	test.ExpectSuccess(t, m.Close())
}
