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

package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/TheCacophonyProject/window"
)

const (
	timeOnly = "15:04"

	// A window that starts and ends at the same time never closes.
	alwaysActive = "12:00"
)

type RecorderConfig struct {
	// Resolution is the width and height of the UV image in pixels.
	Resolution  int     `yaml:"resolution"`
	MinSecs     float64 `yaml:"min-secs"`
	MaxSecs     float64 `yaml:"max-secs"`
	WindowStart string  `yaml:"window-start"`
	WindowEnd   string  `yaml:"window-end"`
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Resolution: 512,
		MinSecs:    1,
		MaxSecs:    StellarDay.Seconds(),
	}
}

func (conf *RecorderConfig) Validate() error {
	if conf.Resolution <= 0 || conf.Resolution > 8192 {
		return errors.New("resolution should be in range 1 - 8192")
	}
	if conf.MinSecs < 1 {
		return errors.New("min-secs should be at least 1")
	}
	if conf.MaxSecs > StellarDay.Seconds() {
		return errors.New("max-secs should be at most one stellar day")
	}
	if conf.MaxSecs < conf.MinSecs {
		return errors.New("max-secs should be larger than min-secs")
	}
	if conf.WindowStart == "" && conf.WindowEnd != "" {
		return errors.New("window-end is set but window-start isn't")
	}
	if conf.WindowStart != "" && conf.WindowEnd == "" {
		return errors.New("window-start is set but window-end isn't")
	}
	if err := conf.checkWindowTime(conf.WindowStart, "window-start"); err != nil {
		return err
	}
	return conf.checkWindowTime(conf.WindowEnd, "window-end")
}

func (conf *RecorderConfig) checkWindowTime(s, name string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(timeOnly, s); err != nil {
		return errors.New("invalid " + name)
	}
	return nil
}

// Window returns the observing window for a site. With no window
// configured the window is always active.
func (conf *RecorderConfig) Window(latitude, longitude float64) (*window.Window, error) {
	if conf.WindowStart == "" {
		return window.New(alwaysActive, alwaysActive, latitude, longitude)
	}
	return window.New(conf.WindowStart, conf.WindowEnd, latitude, longitude)
}

// CheckDuration checks an exposure request against the configured limits.
func (conf *RecorderConfig) CheckDuration(d time.Duration) error {
	secs := d.Seconds()
	if secs < conf.MinSecs || secs > conf.MaxSecs {
		return fmt.Errorf("%v not in %gs - %gs: %w", d, conf.MinSecs, conf.MaxSecs, ErrExposureDuration)
	}
	return nil
}
