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

// Package correlation integrates correlator packets into running totals
// for reporting and into a UV plane image while an exposure is active.
package correlation

import (
	"fmt"

	"github.com/openastro/xc-recorder/array"
	"github.com/openastro/xc-recorder/xc"
)

// Totals are the counts and correlations accumulated over one reporting
// interval.
type Totals struct {
	Counts       []uint64
	Correlations []uint64
	Packets      int
}

// Accumulator keeps running totals per line and per baseline. It is not
// safe for concurrent use.
type Accumulator struct {
	counts       []uint64
	correlations []uint64
	packets      int
}

func NewAccumulator(lines int) *Accumulator {
	return &Accumulator{
		counts:       make([]uint64, lines),
		correlations: make([]uint64, array.NumBaselines(lines)),
	}
}

// Add adds one packet to the totals.
func (a *Accumulator) Add(p *xc.Packet) error {
	if len(p.Counts) != len(a.counts) || len(p.Correlations) != len(a.correlations) {
		return fmt.Errorf("packet has %d lines and %d baselines, want %d and %d: %w",
			len(p.Counts), len(p.Correlations), len(a.counts), len(a.correlations), xc.ErrShortPacket)
	}
	for i, c := range p.Counts {
		a.counts[i] += c
	}
	for i, c := range p.Correlations {
		a.correlations[i] += c
	}
	a.packets++
	return nil
}

func (a *Accumulator) Counts() []uint64 {
	return append([]uint64(nil), a.counts...)
}

func (a *Accumulator) Correlations() []uint64 {
	return append([]uint64(nil), a.correlations...)
}

// Flush returns the totals and resets them to zero.
func (a *Accumulator) Flush() Totals {
	t := Totals{
		Counts:       a.Counts(),
		Correlations: a.Correlations(),
		Packets:      a.packets,
	}
	for i := range a.counts {
		a.counts[i] = 0
	}
	for i := range a.correlations {
		a.correlations[i] = 0
	}
	a.packets = 0
	return t
}

// Coherence is the normalised correlation of a baseline, or 0 when
// neither line saw any counts.
func Coherence(correlation, countsA, countsB uint64) float64 {
	sum := float64(countsA) + float64(countsB)
	if sum == 0 {
		return 0
	}
	return float64(correlation) * 2 / sum
}
