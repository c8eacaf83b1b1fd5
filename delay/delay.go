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

// Package delay keeps every line of the array time aligned at the
// correlator by choosing a reference line and computing the geometric
// delay of the others against it.
package delay

import (
	"math"
	"time"

	"github.com/openastro/xc-recorder/array"
)

// SpeedOfLight in metres per second.
const SpeedOfLight = 299792458.0

const degToRad = math.Pi / 180

// SelectReference returns the index of the tracked line with the lowest
// altitude, or -1 when no line is tracked. Ties keep the lowest index.
func SelectReference(lines []array.Line) int {
	ref := -1
	for i := range lines {
		if !lines[i].Tracked {
			continue
		}
		if ref < 0 || lines[i].Altitude < lines[ref].Altitude {
			ref = i
		}
	}
	return ref
}

// Ticks converts a delay in metres into clock ticks of a correlator
// sampling at frequency Hz, clamped to [0, size-1].
func Ticks(meters, frequency float64, size int) int {
	if size <= 0 {
		return 0
	}
	ticks := meters * frequency / SpeedOfLight
	if math.IsNaN(ticks) || ticks <= 0 {
		return 0
	}
	if ticks >= float64(size-1) {
		return size - 1
	}
	return int(ticks)
}

// Controller runs one delay computation per acquisition cycle.
type Controller struct {
	Frequency float64
	Size      int
	reference int
	ticks     []int
}

func NewController(frequency float64, size int) *Controller {
	return &Controller{
		Frequency: frequency,
		Size:      size,
		reference: -1,
	}
}

// Reference returns the line chosen as reference by the last Update.
func (c *Controller) Reference() int {
	return c.reference
}

// Update tracks every line for time t and then runs Compute.
func (c *Controller) Update(arr *array.Array, t time.Time) []int {
	arr.Track(t)
	return c.Compute(arr)
}

// Compute selects the reference line from the current altitudes and
// recomputes the delays of lines sharing a baseline with it. Lines on
// baselines not touching the reference keep their previous delay. The
// returned slice holds the register value of every line and is reused by
// the next call.
func (c *Controller) Compute(arr *array.Array) []int {
	c.reference = SelectReference(arr.Lines)
	if c.reference >= 0 {
		ref := &arr.Lines[c.reference]
		ref.Delay = 0
		minAlt := ref.Altitude * degToRad
		for k := range arr.Baselines {
			b := &arr.Baselines[k]
			if !b.Touches(c.reference) || !b.Valid() {
				continue
			}
			other := &arr.Lines[b.Other(c.reference)]
			if !other.Tracked {
				continue
			}
			d := b.Length() * math.Cos(minAlt-other.Altitude*degToRad)
			other.Delay = math.Max(d, 0)
		}
	}

	if len(c.ticks) != len(arr.Lines) {
		c.ticks = make([]int, len(arr.Lines))
	}
	for i := range arr.Lines {
		c.ticks[i] = Ticks(arr.Lines[i].Delay, c.Frequency, c.Size)
	}
	return c.ticks
}
