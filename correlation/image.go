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

package correlation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Image is a square UV plane buffer. Every sample is written twice, at
// a pixel and at its reflection through the centre.
type Image struct {
	Width  int
	Height int
	Pix    []float64
}

func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// Offsets maps a UV coordinate in [-1, 1] onto a pixel offset and the
// offset of its mirror. ok is false when the coordinate falls outside
// the image.
func (im *Image) Offsets(u, v float64) (z, mirror int, ok bool) {
	w, h := im.Width, im.Height
	if w <= 0 || h <= 0 || math.IsNaN(u) || math.IsNaN(v) || math.Abs(u) > 1 || math.Abs(v) > 1 {
		return 0, 0, false
	}
	xx := int(float64(w) * u / 2)
	yy := int(float64(h) * v / 2)
	if xx < -w/2 || xx >= w/2 || yy < -h/2 || yy >= h/2 {
		return 0, 0, false
	}
	z = w*h/2 + w/2 + xx + yy*w
	mirror = w*h - 1 - z
	if z < 0 || z >= len(im.Pix) || mirror < 0 || mirror >= len(im.Pix) {
		return 0, 0, false
	}
	return z, mirror, true
}

// AddSample adds value at (u, v) and its mirror. Samples outside the
// image are dropped.
func (im *Image) AddSample(u, v, value float64) bool {
	z, mirror, ok := im.Offsets(u, v)
	if !ok {
		return false
	}
	im.Pix[z] += value
	im.Pix[mirror] += value
	return true
}

// Stretch scales the image linearly onto [0, 65535]. A flat image
// stretches to all zeros.
func (im *Image) Stretch() []uint16 {
	out := make([]uint16, len(im.Pix))
	if len(im.Pix) == 0 {
		return out
	}
	lo, hi := floats.Min(im.Pix), floats.Max(im.Pix)
	if hi <= lo || math.IsNaN(lo) || math.IsNaN(hi) {
		return out
	}
	scaled := append([]float64(nil), im.Pix...)
	floats.AddConst(-lo, scaled)
	floats.Scale(math.MaxUint16/(hi-lo), scaled)
	for i, v := range scaled {
		out[i] = uint16(math.Round(math.Min(math.Max(v, 0), math.MaxUint16)))
	}
	return out
}

// Reset zeroes every pixel.
func (im *Image) Reset() {
	for i := range im.Pix {
		im.Pix[i] = 0
	}
}
