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
	"errors"
	"math"
	"time"

	"github.com/openastro/xc-recorder/array"
)

const (
	PlanckConstant = 6.62607015e-34
	SpeedOfLight   = 299792458.0

	// Hydrogen line.
	DefaultWavelength = 0.211121449
	DefaultBandwidth  = 1199.169832
)

// Settings describe the observing band.
type Settings struct {
	Wavelength float64 `yaml:"wavelength"`
	Bandwidth  float64 `yaml:"bandwidth"`
}

func DefaultSettings() Settings {
	return Settings{
		Wavelength: DefaultWavelength,
		Bandwidth:  DefaultBandwidth,
	}
}

func (s Settings) Validate() error {
	if s.Wavelength <= 0 {
		return errors.New("wavelength must be positive")
	}
	if s.Bandwidth <= 0 {
		return errors.New("bandwidth must be positive")
	}
	return nil
}

// PhotonEnergy returns the energy in joules of one photon at the
// configured wavelength.
func (s Settings) PhotonEnergy() float64 {
	return PlanckConstant * SpeedOfLight / s.Wavelength
}

// Steradian is the solid angle seen by a telescope of the given aperture
// and focal length.
func Steradian(aperture, focalLength float64) float64 {
	if aperture <= 0 || focalLength <= 0 {
		return 0
	}
	return math.Pow(math.Asin(math.Min(aperture*0.5/focalLength, 1)), 2)
}

// Magnitude is the relative magnitude of flux against flux0. It is 0
// when either flux is not positive.
func Magnitude(flux, flux0 float64) float64 {
	if flux <= 0 || flux0 <= 0 {
		return 0
	}
	return -2.5 * math.Log10(flux/flux0)
}

type LineStats struct {
	Line      int     `yaml:"line"`
	Enabled   bool    `yaml:"enabled"`
	Delay     float64 `yaml:"delay"`
	Altitude  float64 `yaml:"altitude"`
	Azimuth   float64 `yaml:"azimuth"`
	CountRate float64 `yaml:"count-rate"`
	Flux      float64 `yaml:"flux"`
	Flux0     float64 `yaml:"flux0"`
	Magnitude float64 `yaml:"magnitude"`
}

type BaselineStats struct {
	A               int     `yaml:"a"`
	B               int     `yaml:"b"`
	Length          float64 `yaml:"length"`
	CorrelationRate float64 `yaml:"correlation-rate"`
	Coherence       float64 `yaml:"coherence"`
}

// Report is published once per reporting interval. Rates are per second
// over that interval only.
type Report struct {
	Timestamp    time.Time       `yaml:"timestamp"`
	Interval     time.Duration   `yaml:"interval"`
	Packets      int             `yaml:"packets"`
	Reference    int             `yaml:"reference"`
	Fault        bool            `yaml:"fault"`
	Exposing     bool            `yaml:"exposing"`
	ExposureLeft float64         `yaml:"exposure-left"`
	Lines        []LineStats     `yaml:"lines"`
	Baselines    []BaselineStats `yaml:"baselines"`
}

// NewReport turns one interval's totals into rates. An interval of zero
// reports zero rates.
func NewReport(totals Totals, interval time.Duration, arr *array.Array, settings Settings) *Report {
	seconds := interval.Seconds()
	rate := func(v uint64) float64 {
		if seconds <= 0 {
			return 0
		}
		return float64(v) / seconds
	}
	count := func(i int) uint64 {
		if i < len(totals.Counts) {
			return totals.Counts[i]
		}
		return 0
	}
	energy := settings.PhotonEnergy()

	r := &Report{
		Interval:  interval,
		Packets:   totals.Packets,
		Reference: -1,
		Lines:     make([]LineStats, len(arr.Lines)),
		Baselines: make([]BaselineStats, len(arr.Baselines)),
	}
	for i := range arr.Lines {
		line := &arr.Lines[i]
		countRate := rate(count(i))
		flux := countRate * energy
		flux0 := energy * Steradian(line.Aperture, line.FocalLength) * settings.Bandwidth
		r.Lines[i] = LineStats{
			Line:      i,
			Enabled:   line.Enabled,
			Delay:     line.Delay,
			Altitude:  line.Altitude,
			Azimuth:   line.Azimuth,
			CountRate: countRate,
			Flux:      flux,
			Flux0:     flux0,
			Magnitude: Magnitude(flux, flux0),
		}
	}
	for k := range arr.Baselines {
		b := &arr.Baselines[k]
		var corr uint64
		if k < len(totals.Correlations) {
			corr = totals.Correlations[k]
		}
		r.Baselines[k] = BaselineStats{
			A:               b.A,
			B:               b.B,
			Length:          b.Length(),
			CorrelationRate: rate(corr),
			Coherence:       Coherence(corr, count(b.A), count(b.B)),
		}
	}
	return r
}
