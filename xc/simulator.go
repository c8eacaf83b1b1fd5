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
	"fmt"
	"sync"
	"time"
)

// Simulator is an in-memory correlator. Packets queued with Feed are
// returned first; after that every read returns the constant Counts and
// Correlations. Register writes are recorded for inspection.
type Simulator struct {
	// Interval paces ReadPacket like a real packet rate.
	Interval time.Duration

	mu           sync.Mutex
	props        Properties
	baseFreq     float64
	counts       []uint64
	correlations []uint64
	queue        []Packet
	readErrs     []error
	delayErr     error
	ledErr       error
	delays       []int
	leds         []uint32
	delayWrites  int
	capturing    bool
	baud         int
	closed       bool
}

func NewSimulator(props Properties) *Simulator {
	return &Simulator{
		props:        props,
		baseFreq:     props.Frequency,
		counts:       make([]uint64, props.Lines),
		correlations: make([]uint64, props.Baselines()),
		delays:       make([]int, props.Lines),
		leds:         make([]uint32, props.Lines),
		baud:         BaudRates[0],
	}
}

// SetConstant sets the values returned once the queue is empty.
func (s *Simulator) SetConstant(count, correlation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.counts {
		s.counts[i] = count
	}
	for i := range s.correlations {
		s.correlations[i] = correlation
	}
}

// Feed queues packets to be read in order.
func (s *Simulator) Feed(packets ...Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, packets...)
}

// FailReads makes the next n reads return err.
func (s *Simulator) FailReads(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.readErrs = append(s.readErrs, err)
	}
}

// FailDelays makes every SetDelay return err until called with nil.
func (s *Simulator) FailDelays(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delayErr = err
}

// FailLeds makes every SetLeds return err until called with nil.
func (s *Simulator) FailLeds(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledErr = err
}

func (s *Simulator) Properties() Properties {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.props
}

// ReadPacket renders the next packet through the wire codec and decodes
// it into p.
func (s *Simulator) ReadPacket(p *Packet) error {
	if s.Interval > 0 {
		time.Sleep(s.Interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(s.readErrs) > 0 {
		err := s.readErrs[0]
		s.readErrs = s.readErrs[1:]
		return err
	}
	next := Packet{Counts: s.counts, Correlations: s.correlations}
	if len(s.queue) > 0 {
		next = s.queue[0]
		s.queue = s.queue[1:]
	}
	if len(next.Counts) != s.props.Lines || len(next.Correlations) != s.props.Baselines() {
		return fmt.Errorf("simulated packet: %w", ErrShortPacket)
	}
	if err := DecodePacket(EncodePacket(s.props, &next), s.props, p); err != nil {
		return err
	}
	p.Timestamp = time.Now()
	return nil
}

func (s *Simulator) SetDelay(line, ticks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delayErr != nil {
		return s.delayErr
	}
	if line < 0 || line >= len(s.delays) {
		return fmt.Errorf("no line %d", line)
	}
	s.delays[line] = ticks
	s.delayWrites++
	return nil
}

// Delays returns the last value written to every delay register.
func (s *Simulator) Delays() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.delays...)
}

// DelayWrites returns the number of successful delay register writes.
func (s *Simulator) DelayWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayWrites
}

func (s *Simulator) SetLeds(line int, enabled, powered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledErr != nil {
		return s.ledErr
	}
	if line < 0 || line >= len(s.leds) {
		return fmt.Errorf("no line %d", line)
	}
	s.leds[line] = ledBits(enabled, powered)
	return nil
}

// Leds returns the LED register of a line.
func (s *Simulator) Leds(line int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leds[line]
}

func (s *Simulator) EnableCapture(enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturing = enable
	return nil
}

func (s *Simulator) Capturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

func (s *Simulator) SetBaudRate(rate int) error {
	if _, err := baudIndex(rate); err != nil {
		return fmt.Errorf("%d: %w", rate, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baud = rate
	return nil
}

func (s *Simulator) BaudRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

func (s *Simulator) SetFrequencyDivider(div uint) error {
	if div > 31 {
		return fmt.Errorf("frequency divider %d out of range", div)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props.Frequency = s.baseFreq / float64(uint32(1)<<div)
	return nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.capturing = false
	return nil
}
