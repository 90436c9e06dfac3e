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

// Package clocks defines clock rates and the canonical machine time.
//
// Machine time is counted in ticks of a reference clock. Every device in a
// machine has its own clock rate and counts its own cycles. The Ratio type
// converts between the two exactly, without floating point, so that the
// interleaving of devices is reproducible from run to run.
//
// Intermediate values use 128-bit arithmetic so conversions do not overflow
// for any realistic run length.
package clocks

import (
	"fmt"
	"math/bits"
)

// Hz is a clock frequency in cycles per second.
type Hz uint64

func (h Hz) String() string {
	switch {
	case h >= 1000000 && h%1000 == 0:
		return fmt.Sprintf("%.3fMHz", float64(h)/1000000)
	case h >= 1000:
		return fmt.Sprintf("%.3fkHz", float64(h)/1000)
	}
	return fmt.Sprintf("%dHz", uint64(h))
}

// Common clock values found on arcade boards.
const (
	KHz Hz = 1000
	MHz Hz = 1000000
)

// Time is machine time, measured in ticks of the reference clock.
type Time uint64

// Never is a time that is never reached.
const Never = Time(^uint64(0))

// Seconds converts machine time to seconds, given the reference clock.
func (t Time) Seconds(reference Hz) float64 {
	if reference == 0 {
		return 0
	}
	return float64(t) / float64(reference)
}

// FromSeconds converts seconds to machine time, given the reference clock.
// Fractional ticks are truncated.
func FromSeconds(seconds float64, reference Hz) Time {
	if seconds <= 0 {
		return 0
	}
	return Time(seconds * float64(reference))
}

// Ratio relates a device clock to the reference clock.
type Ratio struct {
	Rate      Hz
	Reference Hz
}

// NewRatio is the preferred method of initialisation for the Ratio type.
func NewRatio(rate Hz, reference Hz) (Ratio, error) {
	if rate == 0 {
		return Ratio{}, fmt.Errorf("clocks: device clock rate is zero")
	}
	if reference == 0 {
		return Ratio{}, fmt.Errorf("clocks: reference clock rate is zero")
	}
	return Ratio{Rate: rate, Reference: reference}, nil
}

func (r Ratio) String() string {
	return fmt.Sprintf("%s/%s", r.Rate, r.Reference)
}

// muldiv returns floor(a*b/c) and whether there was a remainder. the result
// saturates at the maximum uint64 value
func muldiv(a, b, c uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return ^uint64(0), false
	}
	q, rem := bits.Div64(hi, lo, c)
	return q, rem != 0
}

// Time returns the machine time at which the device will have completed the
// number of cycles. Partial ticks are truncated.
func (r Ratio) Time(cycles uint64) Time {
	if r.Rate == r.Reference {
		return Time(cycles)
	}
	t, _ := muldiv(cycles, uint64(r.Reference), uint64(r.Rate))
	return Time(t)
}

// Period returns the number of reference ticks taken by one device cycle,
// rounded up. A device clock faster than the reference clock has a period of
// one tick.
func (r Ratio) Period() Time {
	if r.Rate >= r.Reference {
		return 1
	}
	return Time((uint64(r.Reference) + uint64(r.Rate) - 1) / uint64(r.Rate))
}

// Cycles returns the smallest number of device cycles that reach at least
// machine time t. In other words, the cycle count a device must have reached
// to be considered up to date with time t.
func (r Ratio) Cycles(t Time) uint64 {
	if r.Rate == r.Reference {
		return uint64(t)
	}
	c, rem := muldiv(uint64(t), uint64(r.Rate), uint64(r.Reference))
	if rem && c < ^uint64(0) {
		c++
	}
	return c
}
