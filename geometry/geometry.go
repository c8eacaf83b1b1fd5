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

package geometry

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	EarthRadiusEquatorial = 6378137.0
	EarthRadiusPolar      = 6356752.0
)

// Position is a geodetic antenna location. Elevation is in metres above
// the polar radius of the radius model used by Cartesian.
type Position struct {
	s2.LatLng
	Elevation float64
	set       bool
}

// NewPosition returns a Position from latitude and longitude in degrees
// and elevation in metres.
func NewPosition(latitude, longitude, elevation float64) Position {
	return Position{
		LatLng:    s2.LatLngFromDegrees(latitude, longitude),
		Elevation: elevation,
		set:       true,
	}
}

// IsSet reports whether the position was ever given real coordinates.
// The zero Position is not set.
func (p Position) IsSet() bool {
	return p.set
}

// Radius returns the Earth radius used for a latitude and elevation.
// This is a linear interpolation between the polar and equatorial radii,
// not a WGS84 transform, and existing delay tables depend on it.
func Radius(lat s1.Angle, elevation float64) float64 {
	return (EarthRadiusPolar + elevation) + (EarthRadiusEquatorial-EarthRadiusPolar)*math.Cos(lat.Radians())
}

// Cartesian converts the position to Earth-centred coordinates in metres.
func (p Position) Cartesian() r3.Vector {
	lat := p.Lat.Radians()
	lng := p.Lng.Radians()
	radius := Radius(p.Lat, p.Elevation)
	return r3.Vector{
		X: math.Cos(lat) * math.Cos(lng) * radius,
		Y: math.Cos(lat) * math.Sin(lng) * radius,
		Z: math.Sin(lat) * radius,
	}
}

// BaselineVector returns the separation a - b in Earth-centred metres.
func BaselineVector(a, b Position) r3.Vector {
	return a.Cartesian().Sub(b.Cartesian())
}

// UV projects a baseline onto the plane normal to the pointing direction
// given by the Greenwich hour angle and declination. The result is divided
// by scale, so with scale set to the longest baseline length u and v lie
// in [-1, 1]. A non-positive scale yields (0, 0).
func UV(baseline r3.Vector, hourAngle, declination s1.Angle, scale float64) (u, v float64) {
	if scale <= 0 {
		return 0, 0
	}
	sinH, cosH := math.Sincos(hourAngle.Radians())
	sinD, cosD := math.Sincos(declination.Radians())

	u = sinH*baseline.X + cosH*baseline.Y
	v = -sinD*cosH*baseline.X + sinD*sinH*baseline.Y + cosD*baseline.Z
	return u / scale, v / scale
}
