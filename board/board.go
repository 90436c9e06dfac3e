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

// Package board reads board description files. A board description is a YAML
// file that describes the devices, memory and peripherals of a machine. The
// Build() function creates a started hardware.Machine from the description.
//
// An example board description:
//
//	name: twin
//	quantum: 16
//	stores:
//	  - {name: ram, size: 0x800}
//	  - {name: rom, size: 0x400, file: sound.bin}
//	banks:
//	  - {name: rombank, pages: 4, page_size: 0x100, store: rom}
//	peripherals:
//	  - {name: soundlatch, kind: latch, interrupt: {device: sound, line: NMI, mode: pulse}}
//	  - {name: dac, kind: dac}
//	devices:
//	  - name: main
//	    clock: 4MHz
//	    script: main.lua
//	    spaces:
//	      - class: io
//	        address_bits: 8
//	        map:
//	          - {start: 0x00, end: 0x01, peripheral: soundlatch}
//	  - name: sound
//	    clock: 2MHz
//	    script: sound.lua
//	    lines: [NMI]
//	    spaces:
//	      - class: io
//	        address_bits: 8
//	        map:
//	          - {start: 0x00, end: 0x01, peripheral: soundlatch}
//	          - {start: 0x10, end: 0x10, peripheral: dac}
//	          - {start: 0x80, end: 0xff, bank: rombank, mode: ro}
//
// Filenames are relative to the directory of the board description.
package board

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"gopkg.in/yaml.v3"
)

// Board is the top level of a board description.
type Board struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Quantum     int          `yaml:"quantum"`
	Reference   Frequency    `yaml:"reference"`
	Stores      []Store      `yaml:"stores"`
	Banks       []Bank       `yaml:"banks"`
	Peripherals []Peripheral `yaml:"peripherals"`
	Devices     []Device     `yaml:"devices"`

	// directory of the board description. filenames are relative to this
	dir string
}

// Store describes a backing store.
type Store struct {
	Name string `yaml:"name"`
	Size int    `yaml:"size"`
	Fill uint8  `yaml:"fill"`

	// contents of the store are loaded from the file, at the offset
	File   string `yaml:"file"`
	Offset int    `yaml:"offset"`
}

// Bank describes a bank and the store it is placed in.
type Bank struct {
	Name     string `yaml:"name"`
	Pages    int    `yaml:"pages"`
	PageSize uint32 `yaml:"page_size"`
	Store    string `yaml:"store"`
	Base     uint32 `yaml:"base"`
	Select   int    `yaml:"select"`
}

// Line refers to an interrupt line of a device.
type Line struct {
	Device string `yaml:"device"`
	Line   string `yaml:"line"`
	Mode   string `yaml:"mode"`
}

// Peripheral describes one of the peripherals in the peripherals package.
type Peripheral struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// interrupt line asserted when a latch is written
	Interrupt *Line `yaml:"interrupt,omitempty"`
}

// Device describes a device and its processor.
type Device struct {
	Name   string    `yaml:"name"`
	Clock  Frequency `yaml:"clock"`
	Halted bool      `yaml:"halted"`

	// the processor is a Lua script, either in a file or inline
	Script string `yaml:"script"`
	Source string `yaml:"source"`

	Lines  []string `yaml:"lines"`
	Spaces []Space  `yaml:"spaces"`
}

// Space describes an address space of a device.
type Space struct {
	Class       string `yaml:"class"`
	AddressBits uint   `yaml:"address_bits"`
	DataWidth   int    `yaml:"data_width"`
	Endian      string `yaml:"endian"`
	Sentinel    *int64 `yaml:"sentinel,omitempty"`

	// the address space of another device of the same class is used rather
	// than creating a new one
	Share string `yaml:"share"`

	Map []Range `yaml:"map"`
}

// Range describes a single range of an address space. Only one of Store,
// Bank, Peripheral and Unmapped should be specified.
type Range struct {
	Start      uint32 `yaml:"start"`
	End        uint32 `yaml:"end"`
	Mode       string `yaml:"mode"`
	Store      string `yaml:"store"`
	Base       uint32 `yaml:"base"`
	Bank       string `yaml:"bank"`
	Peripheral string `yaml:"peripheral"`
	Unmapped   bool   `yaml:"unmapped"`
}

// Frequency wraps clocks.Hz for YAML unmarshaling. Values can be plain
// numbers or have a Hz, kHz or MHz suffix.
type Frequency clocks.Hz

// UnmarshalYAML implements yaml.Unmarshaler for Frequency.
func (f *Frequency) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	hz, err := ParseFrequency(s)
	if err != nil {
		return err
	}
	*f = Frequency(hz)
	return nil
}

// ParseFrequency parses strings such as "4MHz", "500kHz", "3579545Hz" or
// "1000000".
func ParseFrequency(s string) (clocks.Hz, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mult := 1.0
	l := strings.ToLower(s)
	switch {
	case strings.HasSuffix(l, "mhz"):
		mult = 1e6
		s = s[:len(s)-3]
	case strings.HasSuffix(l, "khz"):
		mult = 1e3
		s = s[:len(s)-3]
	case strings.HasSuffix(l, "hz"):
		s = s[:len(s)-2]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	return clocks.Hz(v*mult + 0.5), nil
}

// Load a board description from a file.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("board: %s: %w", path, err)
	}
	b.dir = filepath.Dir(path)
	return b, nil
}

// Parse a board description. Filenames in the description will be relative
// to the current directory.
func Parse(data []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing board: %w", err)
	}
	if len(b.Devices) == 0 {
		return nil, fmt.Errorf("board has no devices")
	}
	return &b, nil
}

// path returns the filename relative to the directory of the board
// description.
func (b *Board) path(filename string) string {
	if filepath.IsAbs(filename) || b.dir == "" {
		return filename
	}
	return filepath.Join(b.dir, filename)
}

func (b *Board) String() string {
	if b.Name == "" {
		return "unnamed board"
	}
	return b.Name
}
