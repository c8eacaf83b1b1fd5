// xc-recorder - delay tracking and UV imaging for an AHP cross-correlator
//  Copyright (C) 2026, The OpenAstro Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package xc talks to an AHP cross-correlator over its serial link.
package xc

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by ReadPacket when no complete packet
	// arrived within the read timeout.
	ErrTimeout     = errors.New("timed out waiting for packet")
	ErrShortPacket = errors.New("packet has wrong length")
	ErrBaudRate    = errors.New("unsupported baud rate")
	ErrClosed      = errors.New("device closed")
)

// Supported link speeds, in the order the correlator numbers them.
var BaudRates = []int{57600, 115200, 230400}

// Properties describe the correlator as reported at connect time.
type Properties struct {
	// Bits is the width of every count and correlation field.
	Bits      int
	Lines     int
	DelaySize int
	// Frequency is the sampling clock in Hz after the divider.
	Frequency float64
}

// Baselines returns the number of line pairs.
func (p Properties) Baselines() int {
	if p.Lines < 2 {
		return 0
	}
	return p.Lines * (p.Lines - 1) / 2
}

// Packet is one polling cycle of counts per line and correlations per
// baseline in row-major pair order.
type Packet struct {
	Counts       []uint64
	Correlations []uint64
	Timestamp    time.Time
}

// NewPacket returns a Packet sized for props.
func NewPacket(props Properties) *Packet {
	return &Packet{
		Counts:       make([]uint64, props.Lines),
		Correlations: make([]uint64, props.Baselines()),
	}
}

// Device is a connected correlator.
type Device interface {
	Properties() Properties
	// ReadPacket blocks until the next packet arrives or the read times
	// out with ErrTimeout.
	ReadPacket(*Packet) error
	SetDelay(line, ticks int) error
	SetLeds(line int, enabled, powered bool) error
	EnableCapture(bool) error
	SetBaudRate(int) error
	SetFrequencyDivider(uint) error
	Close() error
}

func baudIndex(rate int) (int, error) {
	for i, r := range BaudRates {
		if r == rate {
			return i, nil
		}
	}
	return 0, ErrBaudRate
}

func ledBits(enabled, powered bool) uint32 {
	var v uint32
	if enabled {
		v |= 1
	}
	if powered {
		v |= 2
	}
	return v
}
