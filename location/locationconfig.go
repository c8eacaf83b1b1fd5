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

// Package location holds where the array is: the site location shared
// with the rest of the device and the surveyed position and optics of
// each antenna line.
package location

import (
	"errors"
	"fmt"
	"time"

	goconfig "github.com/TheCacophonyProject/go-config"
	yaml "gopkg.in/yaml.v2"

	"github.com/openastro/xc-recorder/geometry"
	"github.com/openastro/xc-recorder/sky"
)

const (
	maxLatitude  = 90
	maxLongitude = 180
	maxRA        = 24
	maxDec       = 90
)

// LocationConfig is the site location.
type LocationConfig struct {
	Latitude     float32   `yaml:"latitude"`
	Longitude    float32   `yaml:"longitude"`
	LocTimestamp time.Time `yaml:"timestamp"`
	Altitude     float32   `yaml:"altitude"`
	Accuracy     float32   `yaml:"accuracy"`
}

// DefaultLocationConfig is an unknown site. Lines without a surveyed
// position stay untracked until one arrives.
func DefaultLocationConfig() LocationConfig {
	return LocationConfig{}
}

// LoadSite reads the site location from the device config directory.
func LoadSite(configDir string) (LocationConfig, error) {
	configRW, err := goconfig.New(configDir)
	if err != nil {
		return LocationConfig{}, err
	}
	var loc goconfig.Location
	if err := configRW.Unmarshal(goconfig.LocationKey, &loc); err != nil {
		return LocationConfig{}, err
	}
	site := LocationConfig{
		Latitude:     float32(loc.Latitude),
		Longitude:    float32(loc.Longitude),
		LocTimestamp: loc.Timestamp,
		Altitude:     float32(loc.Altitude),
		Accuracy:     float32(loc.Accuracy),
	}
	return site, site.Validate()
}

func (conf *LocationConfig) IsLocationEmpty() bool {
	return conf.Latitude == 0 && conf.Longitude == 0
}

// ParseConfig reads a site location stored as yaml.
func (conf *LocationConfig) ParseConfig(buf []byte) error {
	if err := yaml.Unmarshal(buf, conf); err != nil {
		return err
	}
	return conf.Validate()
}

func (conf *LocationConfig) Validate() error {
	if conf.Latitude < -maxLatitude || conf.Latitude > maxLatitude {
		return errors.New("Latitude outside of normal range")
	}
	if conf.Longitude < -maxLongitude || conf.Longitude > maxLongitude {
		return errors.New("Longitude outside of normal range")
	}

	// NB: The LocTimestamp, Altitude and Accuracy fields are
	//     a) Optional and
	//     b) Set by the management interface. Their values are checked at that time.

	return nil
}

// Position returns the site as a line position. ok is false for an
// unknown site.
func (conf *LocationConfig) Position() (pos geometry.Position, ok bool) {
	if conf.IsLocationEmpty() {
		return geometry.Position{}, false
	}
	return geometry.NewPosition(float64(conf.Latitude), float64(conf.Longitude), float64(conf.Altitude)), true
}

// LineConfig describes one antenna line. Aperture and focal length are in
// metres; RA in hours and Dec in degrees give the initial target.
type LineConfig struct {
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	Elevation   float64 `yaml:"elevation"`
	Aperture    float64 `yaml:"aperture"`
	FocalLength float64 `yaml:"focal-length"`
	RA          float64 `yaml:"ra"`
	Dec         float64 `yaml:"dec"`
	Disabled    bool    `yaml:"disabled"`
}

func (conf *LineConfig) IsPositionEmpty() bool {
	return conf.Latitude == 0 && conf.Longitude == 0
}

func (conf *LineConfig) Validate() error {
	if conf.Latitude < -maxLatitude || conf.Latitude > maxLatitude {
		return errors.New("latitude outside of normal range")
	}
	if conf.Longitude < -maxLongitude || conf.Longitude > maxLongitude {
		return errors.New("longitude outside of normal range")
	}
	if conf.Aperture < 0 || conf.FocalLength < 0 {
		return errors.New("aperture and focal-length can't be negative")
	}
	if conf.RA < 0 || conf.RA >= maxRA {
		return errors.New("ra should be in range 0 - 24")
	}
	if conf.Dec < -maxDec || conf.Dec > maxDec {
		return errors.New("dec should be in range -90 - 90")
	}
	return nil
}

// Position returns the surveyed position of the line. ok is false for an
// unsurveyed line, which stays untracked.
func (conf *LineConfig) Position() (pos geometry.Position, ok bool) {
	if conf.IsPositionEmpty() {
		return geometry.Position{}, false
	}
	return geometry.NewPosition(conf.Latitude, conf.Longitude, conf.Elevation), true
}

func (conf *LineConfig) Target() sky.Equatorial {
	return sky.Equatorial{RA: conf.RA, Dec: conf.Dec}
}

// ValidateLines checks every line config.
func ValidateLines(lines []LineConfig) error {
	for i := range lines {
		if err := lines[i].Validate(); err != nil {
			return fmt.Errorf("line %d: %v", i, err)
		}
	}
	return nil
}
