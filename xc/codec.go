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

package xc

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strconv"
)

const (
	propertiesLength = 14
	commandLength    = 7
	commandStart     = 'C'
	lineEnd          = '\r'
)

type opcode byte

const (
	opGetProperties opcode = iota
	opSetDelay
	opSetLeds
	opEnableCapture
	opSetBaudRate
	opSetFrequencyDivider
)

// ParseProperties decodes a properties response: two hex digits each of
// field width, line count and log2 delay size, then eight hex digits of
// clock frequency in Hz.
func ParseProperties(line []byte) (Properties, error) {
	if len(line) != propertiesLength {
		return Properties{}, fmt.Errorf("properties %q: %w", line, ErrShortPacket)
	}
	var raw [propertiesLength / 2]byte
	if _, err := hex.Decode(raw[:], line); err != nil {
		return Properties{}, fmt.Errorf("properties %q: %w", line, err)
	}
	props := Properties{
		Bits:      int(raw[0]),
		Lines:     int(raw[1]),
		DelaySize: 1 << raw[2],
		Frequency: float64(binary.BigEndian.Uint32(raw[3:])),
	}
	if props.Bits == 0 || props.Bits%4 != 0 || props.Bits > 64 {
		return Properties{}, fmt.Errorf("unsupported field width %d", props.Bits)
	}
	if props.Lines == 0 {
		return Properties{}, fmt.Errorf("correlator reports no lines")
	}
	if raw[2] > 30 {
		return Properties{}, fmt.Errorf("unsupported delay size 2^%d", raw[2])
	}
	return props, nil
}

// FormatProperties is the inverse of ParseProperties.
func FormatProperties(props Properties) []byte {
	log2 := bits.Len(uint(props.DelaySize)) - 1
	if log2 < 0 {
		log2 = 0
	}
	return []byte(fmt.Sprintf("%02X%02X%02X%08X", props.Bits, props.Lines, log2, uint32(props.Frequency)))
}

func packetLength(props Properties) int {
	return (props.Lines + props.Baselines()) * props.Bits / 4
}

// DecodePacket parses one packet line into p, which must be sized for
// props.
func DecodePacket(line []byte, props Properties, p *Packet) error {
	if len(line) != packetLength(props) {
		return fmt.Errorf("got %d digits, want %d: %w", len(line), packetLength(props), ErrShortPacket)
	}
	if len(p.Counts) != props.Lines || len(p.Correlations) != props.Baselines() {
		return fmt.Errorf("packet buffer not sized for %d lines", props.Lines)
	}
	width := props.Bits / 4
	field := func(i int) (uint64, error) {
		return strconv.ParseUint(string(line[i*width:(i+1)*width]), 16, 64)
	}
	var err error
	for i := range p.Counts {
		if p.Counts[i], err = field(i); err != nil {
			return fmt.Errorf("count %d: %w", i, err)
		}
	}
	for i := range p.Correlations {
		if p.Correlations[i], err = field(props.Lines + i); err != nil {
			return fmt.Errorf("correlation %d: %w", i, err)
		}
	}
	return nil
}

// EncodePacket renders p in the wire format read by DecodePacket. Values
// wider than the field are truncated to its low bits.
func EncodePacket(props Properties, p *Packet) []byte {
	width := props.Bits / 4
	out := make([]byte, 0, packetLength(props))
	put := func(v uint64) {
		if props.Bits < 64 {
			v &= 1<<uint(props.Bits) - 1
		}
		out = append(out, fmt.Sprintf("%0*X", width, v)...)
	}
	for _, c := range p.Counts {
		put(c)
	}
	for _, c := range p.Correlations {
		put(c)
	}
	return out
}

func encodeCommand(op opcode, line int, value uint32) []byte {
	cmd := make([]byte, commandLength)
	cmd[0] = commandStart
	cmd[1] = byte(op)
	cmd[2] = byte(line)
	binary.LittleEndian.PutUint32(cmd[3:], value)
	return cmd
}
