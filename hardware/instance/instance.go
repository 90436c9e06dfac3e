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

// Package instance defines those parts of the emulation that might change from
// instance to instance of the Machine type, but is not actually the Machine
// itself.
//
// Particularly useful when running more than one instance of the emulation in
// parallel.
package instance

import (
	"github.com/lockstep-emu/lockstep/hardware/preferences"
	"github.com/lockstep-emu/lockstep/logger"
	"github.com/lockstep-emu/lockstep/random"
)

// Label indicates the context of the instance.
type Label string

// List of common Label values. Other values can be used as required.
const (
	Main   Label = ""
	Verify Label = "verify"
)

// maximum number of log entries kept by an instance
const maxLogEntries = 1024

// Instance defines those parts of the emulation that might change between
// different instantiations of the Machine type, but is not actually the
// Machine itself.
//
// Instance implements the logger.Permission and logger.Router interfaces. Log
// entries made with the Instance as the permission are added to the Log of
// the instance and not to the central logger.
type Instance struct {
	Label Label

	// the prefrences of the running instance. this instance can be shared
	// with other running instances of the emulation
	Prefs *preferences.Preferences

	// the log for the instance
	Log *logger.Logger

	// random numbers for scripted devices
	Random *random.Random
}

// NewInstance is the preferred method of initialisation for the Instance type.
//
// The prefs argument can be nil, in which case a new preferences instance will
// be created that is not backed by a file. Providing a non-nil value allows the
// preferences of more than one instance to be synchronised.
func NewInstance(label Label, prefs *preferences.Preferences) (*Instance, error) {
	ins := &Instance{
		Label:  label,
		Log:    logger.NewLogger(maxLogEntries),
		Random: random.NewRandom(),
	}

	var err error

	if prefs == nil {
		prefs, err = preferences.NewPreferences("")
		if err != nil {
			return nil, err
		}
	}

	ins.Prefs = prefs

	return ins, nil
}

func (ins *Instance) String() string {
	if ins.Label == Main {
		return "main"
	}
	return string(ins.Label)
}

// Normalise ensures the instance is in an known default state. Useful for
// testing where the initial state must be the same for every run. The
// scheduling quantum is not changed.
func (ins *Instance) Normalise() {
	q := ins.Prefs.Quantum.Get()
	ins.Prefs.SetDefaults()
	ins.Prefs.Quantum.Set(q)
	ins.Random.ZeroSeed = true
}

// AllowLogging implements the logger.Permission interface.
func (ins *Instance) AllowLogging() bool {
	return ins.Prefs.Logging.Get().(bool)
}

// Logger implements the logger.Router interface.
func (ins *Instance) Logger() *logger.Logger {
	return ins.Log
}
