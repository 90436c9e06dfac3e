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

// Package wavwriter records the output of a DAC to a WAV file.
package wavwriter

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/lockstep-emu/lockstep/hardware"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/peripherals"
	"github.com/lockstep-emu/lockstep/hardware/timer"
	"github.com/lockstep-emu/lockstep/logger"
)

const (
	bitDepth    = 16
	numChannels = 1

	// PCM audio format in the WAV header
	pcmFormat = 1
)

// WavWriter samples a DAC with a periodic timer. The samples are written to
// file when Close() is called.
type WavWriter struct {
	filename string
	m        *hardware.Machine
	dac      *peripherals.DAC

	// sample rate of the output. this may be slightly different to the
	// requested sample rate because the timer interval is a whole number of
	// reference ticks
	rate int

	handle timer.Handle
	buffer []int
}

// New is the preferred method of initialisation for the WavWriter type. The
// machine should have been started. Sampling begins immediately.
func New(filename string, m *hardware.Machine, dac *peripherals.DAC, rate int) (*WavWriter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("wavwriter: invalid sample rate %d", rate)
	}

	interval := clocks.Time(m.Reference()) / clocks.Time(rate)
	if interval == 0 {
		return nil, fmt.Errorf("wavwriter: sample rate %d is faster than the reference clock %s", rate, m.Reference())
	}

	aw := &WavWriter{
		filename: filename,
		m:        m,
		dac:      dac,
		rate:     int(clocks.Time(m.Reference()) / interval),
		buffer:   make([]int, 0, rate),
	}

	cb, err := m.RegisterCallback(fmt.Sprintf("wavwriter:%s", dac.Name()), aw.sample)
	if err != nil {
		return nil, fmt.Errorf("wavwriter: %w", err)
	}

	aw.handle, err = m.ScheduleAfter(interval, 0, cb, interval)
	if err != nil {
		return nil, fmt.Errorf("wavwriter: %w", err)
	}

	return aw, nil
}

func (aw *WavWriter) String() string {
	return fmt.Sprintf("%s: %d samples at %dHz", aw.filename, len(aw.buffer), aw.rate)
}

func (aw *WavWriter) sample(_ uint64) {
	aw.buffer = append(aw.buffer, aw.dac.Sample())
}

// Rate returns the sample rate of the recording.
func (aw *WavWriter) Rate() int {
	return aw.rate
}

// Len returns the number of samples recorded so far.
func (aw *WavWriter) Len() int {
	return len(aw.buffer)
}

// Close stops sampling and writes the WAV file.
func (aw *WavWriter) Close() (rerr error) {
	aw.m.CancelTimer(aw.handle)

	f, err := os.Create(aw.filename)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			rerr = errors.Join(rerr, fmt.Errorf("wavwriter: %w", err))
		}
	}()

	enc := wav.NewEncoder(f, aw.rate, bitDepth, numChannels, pcmFormat)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  aw.rate,
		},
		Data:           aw.buffer,
		SourceBitDepth: bitDepth,
	}

	logger.Logf(logger.Allow, "wavwriter", "writing %s", aw)

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}

	return nil
}
