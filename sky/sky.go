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

// Package sky converts equatorial targets into horizontal coordinates for
// an observer on the ground.
package sky

import (
	"math"
	"time"

	"github.com/golang/geo/s1"
	satellite "github.com/joshuaferrara/go-satellite"
)

const (
	hourAngle   = 15 * s1.Degree
	fullCircle  = 2 * math.Pi
	secondsADay = 86400.0
)

// Equatorial is a target position. RA is in hours, Dec in degrees.
type Equatorial struct {
	RA  float64
	Dec float64
}

// Horizontal is a position on the observer's sky in degrees. Azimuth
// is measured from north through east.
type Horizontal struct {
	Altitude float64
	Azimuth  float64
}

// GreenwichSiderealTime returns the Greenwich mean sidereal time at t.
func GreenwichSiderealTime(t time.Time) s1.Angle {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	jd += float64(t.Nanosecond()) / 1e9 / secondsADay
	return normalise(s1.Angle(satellite.ThetaG_JD(jd)))
}

// LocalSiderealTime returns the sidereal time at t for an observer at the
// given east longitude.
func LocalSiderealTime(t time.Time, longitude s1.Angle) s1.Angle {
	return normalise(GreenwichSiderealTime(t) + longitude)
}

// HourAngle returns the hour angle of a right ascension (in hours) for a
// sidereal time.
func HourAngle(siderealTime s1.Angle, ra float64) s1.Angle {
	return normalise(siderealTime - s1.Angle(ra)*hourAngle)
}

// ToHorizontal is the standard equatorial to horizontal transform. The
// returned altitude is in [-90, 90]; targets below the horizon are not
// rejected.
func ToHorizontal(ha, dec, lat s1.Angle) Horizontal {
	sinH, cosH := math.Sincos(ha.Radians())
	sinD, cosD := math.Sincos(dec.Radians())
	sinL, cosL := math.Sincos(lat.Radians())

	sinAlt := sinD*sinL + cosD*cosL*cosH
	alt := math.Asin(clamp(sinAlt, -1, 1))

	az := math.Atan2(-cosD*sinH, sinD*cosL-cosD*cosH*sinL)
	if az < 0 {
		az += fullCircle
	}

	return Horizontal{
		Altitude: s1.Angle(alt).Degrees(),
		Azimuth:  s1.Angle(az).Degrees(),
	}
}

// Track returns where target sits on the sky at t for an observer at
// latitude and longitude.
func Track(t time.Time, latitude, longitude s1.Angle, target Equatorial) Horizontal {
	lst := LocalSiderealTime(t, longitude)
	ha := HourAngle(lst, target.RA)
	return ToHorizontal(ha, s1.Angle(target.Dec)*s1.Degree, latitude)
}

func normalise(a s1.Angle) s1.Angle {
	r := math.Mod(a.Radians(), fullCircle)
	if r < 0 {
		r += fullCircle
	}
	return s1.Angle(r)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
