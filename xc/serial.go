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
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/term"
)

const (
	maxLineLength    = 1 << 16
	baudSwitchSettle = 50 * time.Millisecond
	// Lines read while waiting for the properties response.
	propertiesAttempts = 16
)

type port interface {
	io.ReadWriteCloser
	SetSpeed(baud int) error
}

// Serial is a correlator attached to a serial port.
type Serial struct {
	port port

	mu       sync.Mutex
	props    Properties
	baseFreq float64

	// writeMu serialises command frames from the control path and the
	// acquisition loop.
	writeMu sync.Mutex
	pending []byte
	chunk   []byte
}

// Open connects to the correlator on the named serial port and reads its
// properties.
func Open(name string, baud int, readTimeout time.Duration) (*Serial, error) {
	if _, err := baudIndex(baud); err != nil {
		return nil, fmt.Errorf("%d: %w", baud, err)
	}
	t, err := term.Open(name, term.RawMode)
	if err != nil {
		return nil, err
	}
	if err := t.SetSpeed(baud); err != nil {
		t.Close()
		return nil, err
	}
	if err := t.SetReadTimeout(readTimeout); err != nil {
		t.Close()
		return nil, err
	}
	s, err := newSerial(t)
	if err != nil {
		t.Close()
		return nil, err
	}
	return s, nil
}

func newSerial(p port) (*Serial, error) {
	s := &Serial{
		port:  p,
		chunk: make([]byte, 4096),
	}
	if err := s.readProperties(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Serial) readProperties() error {
	if err := s.send(opGetProperties, 0, 0); err != nil {
		return err
	}
	// The correlator may already be streaming; skip lines until one
	// parses as properties.
	for i := 0; i < propertiesAttempts; i++ {
		line, err := s.readLine()
		if err == ErrTimeout {
			continue
		}
		if err != nil {
			return err
		}
		props, err := ParseProperties(line)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.props = props
		s.baseFreq = props.Frequency
		s.mu.Unlock()
		return nil
	}
	return fmt.Errorf("no properties from correlator: %w", ErrTimeout)
}

func (s *Serial) Properties() Properties {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.props
}

// ReadPacket reads the next packet line. Partial lines are kept across
// timeouts.
func (s *Serial) ReadPacket(p *Packet) error {
	line, err := s.readLine()
	if err != nil {
		return err
	}
	p.Timestamp = time.Now()
	return DecodePacket(line, s.Properties(), p)
}

func (s *Serial) readLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(s.pending, lineEnd); i >= 0 {
			line := bytes.TrimLeft(s.pending[:i], "\n")
			line = append([]byte(nil), line...)
			s.pending = s.pending[i+1:]
			return line, nil
		}
		if len(s.pending) > maxLineLength {
			s.pending = s.pending[:0]
		}
		n, err := s.port.Read(s.chunk)
		s.pending = append(s.pending, s.chunk[:n]...)
		if n == 0 && (err == nil || err == io.EOF) {
			return nil, ErrTimeout
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
	}
}

func (s *Serial) send(op opcode, line int, value uint32) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.port.Write(encodeCommand(op, line, value))
	return err
}

func (s *Serial) SetDelay(line, ticks int) error {
	if ticks < 0 {
		ticks = 0
	}
	return s.send(opSetDelay, line, uint32(ticks))
}

func (s *Serial) SetLeds(line int, enabled, powered bool) error {
	return s.send(opSetLeds, line, ledBits(enabled, powered))
}

func (s *Serial) EnableCapture(enable bool) error {
	var v uint32
	if enable {
		v = 1
	}
	return s.send(opEnableCapture, 0, v)
}

// SetBaudRate asks the correlator to switch speed and then re-clocks the
// local port to match.
func (s *Serial) SetBaudRate(rate int) error {
	idx, err := baudIndex(rate)
	if err != nil {
		return fmt.Errorf("%d: %w", rate, err)
	}
	if err := s.send(opSetBaudRate, 0, uint32(idx)); err != nil {
		return err
	}
	// Let the command frame leave at the old speed.
	time.Sleep(baudSwitchSettle)
	return s.port.SetSpeed(rate)
}

// SetFrequencyDivider divides the sampling clock by 2^div.
func (s *Serial) SetFrequencyDivider(div uint) error {
	if div > 31 {
		return fmt.Errorf("frequency divider %d out of range", div)
	}
	if err := s.send(opSetFrequencyDivider, 0, uint32(div)); err != nil {
		return err
	}
	s.mu.Lock()
	s.props.Frequency = s.baseFreq / float64(uint32(1)<<div)
	s.mu.Unlock()
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
