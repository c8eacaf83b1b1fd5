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

package array

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"

	"github.com/openastro/xc-recorder/geometry"
	"github.com/openastro/xc-recorder/sky"
)

var ErrLineRange = errors.New("line index out of range")

// Line is one correlator input channel.
type Line struct {
	Index    int
	Enabled  bool
	Powered  bool
	Position geometry.Position
	Target   sky.Equatorial

	// Optics, in metres.
	Aperture    float64
	FocalLength float64

	sky.Horizontal
	// Delay is the geometric delay in metres applied to this line.
	Delay float64
	// Tracked is false until the line has a position to track from.
	Tracked bool
}

// Track recomputes the line's altitude and azimuth for time t. A line
// without a position is left untracked.
func (l *Line) Track(t time.Time) {
	if !l.Position.IsSet() {
		l.Tracked = false
		return
	}
	l.Horizontal = sky.Track(t, l.Position.Lat, l.Position.Lng, l.Target)
	l.Tracked = true
}

// Baseline is the pair of lines (A, B) with A < B.
type Baseline struct {
	A, B   int
	Vector r3.Vector
	valid  bool
}

// Length returns the baseline length in metres.
func (b *Baseline) Length() float64 {
	return b.Vector.Norm()
}

// Valid reports whether both endpoints have had a position set and are
// not co-located.
func (b *Baseline) Valid() bool {
	return b.valid && b.Length() > 0
}

// Touches reports whether line is one of the baseline's endpoints.
func (b *Baseline) Touches(line int) bool {
	return b.A == line || b.B == line
}

// Other returns the endpoint of the baseline that is not line.
func (b *Baseline) Other(line int) int {
	if b.A == line {
		return b.B
	}
	return b.A
}

// Array holds every line and baseline of a correlator. It is sized once
// when the line count is known and never grows.
type Array struct {
	Lines     []Line
	Baselines []Baseline
	longest   float64
}

// New returns an Array of n lines with all lines enabled and powered.
func New(n int) *Array {
	if n < 0 {
		n = 0
	}
	a := &Array{
		Lines:     make([]Line, n),
		Baselines: make([]Baseline, 0, NumBaselines(n)),
	}
	for i := range a.Lines {
		a.Lines[i].Index = i
		a.Lines[i].Enabled = true
		a.Lines[i].Powered = true
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a.Baselines = append(a.Baselines, Baseline{A: i, B: j})
		}
	}
	return a
}

// NumBaselines returns n(n-1)/2.
func NumBaselines(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// BaselineIndex returns the position of the pair (i, j) in the row-major
// baseline order, where j increments fastest. The pair may be given in
// either order.
func BaselineIndex(n, i, j int) (int, error) {
	if i > j {
		i, j = j, i
	}
	if i < 0 || j >= n || i == j {
		return 0, fmt.Errorf("baseline (%d, %d) of %d lines: %w", i, j, n, ErrLineRange)
	}
	return i*(2*n-i-1)/2 + (j - i - 1), nil
}

// Line returns line i.
func (a *Array) Line(i int) (*Line, error) {
	if i < 0 || i >= len(a.Lines) {
		return nil, fmt.Errorf("line %d of %d: %w", i, len(a.Lines), ErrLineRange)
	}
	return &a.Lines[i], nil
}

// Baseline returns the baseline joining lines i and j.
func (a *Array) Baseline(i, j int) (*Baseline, error) {
	idx, err := BaselineIndex(len(a.Lines), i, j)
	if err != nil {
		return nil, err
	}
	return &a.Baselines[idx], nil
}

// SetPosition moves line i and recomputes every baseline touching it.
func (a *Array) SetPosition(i int, pos geometry.Position) error {
	line, err := a.Line(i)
	if err != nil {
		return err
	}
	line.Position = pos
	for k := range a.Baselines {
		b := &a.Baselines[k]
		if !b.Touches(i) {
			continue
		}
		pa, pb := a.Lines[b.A].Position, a.Lines[b.B].Position
		b.valid = pa.IsSet() && pb.IsSet()
		if b.valid {
			b.Vector = geometry.BaselineVector(pa, pb)
		} else {
			b.Vector = r3.Vector{}
		}
	}
	a.longest = 0
	for k := range a.Baselines {
		if l := a.Baselines[k].Length(); a.Baselines[k].valid && l > a.longest {
			a.longest = l
		}
	}
	return nil
}

func (a *Array) SetTarget(i int, target sky.Equatorial) error {
	line, err := a.Line(i)
	if err != nil {
		return err
	}
	line.Target = target
	return nil
}

func (a *Array) SetOptics(i int, aperture, focalLength float64) error {
	line, err := a.Line(i)
	if err != nil {
		return err
	}
	line.Aperture = aperture
	line.FocalLength = focalLength
	return nil
}

func (a *Array) SetActive(i int, enabled, powered bool) error {
	line, err := a.Line(i)
	if err != nil {
		return err
	}
	line.Enabled = enabled
	line.Powered = powered
	return nil
}

// Track recomputes altitude and azimuth of every line for time t.
func (a *Array) Track(t time.Time) {
	for i := range a.Lines {
		a.Lines[i].Track(t)
	}
}

// MaxBaselineLength returns the length of the longest valid baseline.
func (a *Array) MaxBaselineLength() float64 {
	return a.longest
}

// UV returns the normalised UV coordinate of baseline k while pointing at
// the target of its first endpoint at time t. The coordinate is scaled by
// the longest baseline so that it lies in [-1, 1].
func (a *Array) UV(k int, t time.Time) (u, v float64) {
	b := &a.Baselines[k]
	if !b.valid {
		return 0, 0
	}
	target := a.Lines[b.A].Target
	ha := sky.HourAngle(sky.GreenwichSiderealTime(t), target.RA)
	dec := s1.Angle(target.Dec) * s1.Degree
	return geometry.UV(b.Vector, ha, dec, a.longest)
}
