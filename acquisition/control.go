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

package acquisition

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/openastro/xc-recorder/geometry"
	"github.com/openastro/xc-recorder/recorder"
	"github.com/openastro/xc-recorder/sky"
)

var ErrOutsideWindow = errors.New("outside the observing window")

// StartExposure begins integrating the UV image for d. The image is
// cleared first; running counts are not touched.
func (l *Loop) StartExposure(d time.Duration) error {
	if err := l.recConf.CheckDuration(d); err != nil {
		return err
	}
	if !l.window.Active() {
		return ErrOutsideWindow
	}
	if err := l.rec.CheckCanRecord(); err != nil {
		return fmt.Errorf("can't record: %w", err)
	}

	l.mu.Lock()
	err := l.exposure.Start(d, l.now())
	if err == nil {
		l.image.Reset()
	}
	ls := l.listeners
	l.mu.Unlock()
	if err != nil {
		return err
	}

	log.Printf("exposure of %v started", d)
	ls.each(func(x Listener) { x.ExposureStarted(d) })
	return nil
}

// AbortExposure discards the exposure in progress. It returns false if
// there was none.
func (l *Loop) AbortExposure() bool {
	l.mu.Lock()
	aborted := l.exposure.Abort()
	if aborted {
		l.image.Reset()
	}
	ls := l.listeners
	l.mu.Unlock()

	if aborted {
		log.Print("exposure aborted")
		ls.each(func(x Listener) { x.ExposureEnded(nil) })
	}
	return aborted
}

// ExposureLeft returns the time left in the current exposure and whether
// one is running.
func (l *Loop) ExposureLeft() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exposure.Remaining(l.now()), l.exposure.Active()
}

// Snapshot returns the image integrated so far, or nil when no exposure
// is running. Duration is the time exposed so far.
func (l *Loop) Snapshot() *recorder.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.exposure.Active() {
		return nil
	}
	return &recorder.Frame{
		Pix:       l.image.Stretch(),
		Width:     l.image.Width,
		Height:    l.image.Height,
		Duration:  l.exposure.Duration() - l.exposure.Remaining(l.now()),
		Timestamp: l.exposure.Started(),
	}
}

// SetPosition updates a line's surveyed position and the baselines that
// touch it.
func (l *Loop) SetPosition(line int, pos geometry.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arr.SetPosition(line, pos)
}

func (l *Loop) SetTarget(line int, target sky.Equatorial) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arr.SetTarget(line, target)
}

// SetOptics sets the telescope aperture and focal length of a line in
// metres.
func (l *Loop) SetOptics(line int, aperture, focalLength float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.arr.SetOptics(line, aperture, focalLength)
}

// SetLine switches a line on or off and writes its LED/power register.
// A disabled line keeps counting but adds nothing to the image.
func (l *Loop) SetLine(line int, enabled, powered bool) error {
	l.mu.Lock()
	if err := l.arr.SetActive(line, enabled, powered); err != nil {
		l.mu.Unlock()
		return err
	}
	err := l.dev.SetLeds(line, enabled, powered)
	if err != nil {
		l.softFaults++
	}
	ls := l.listeners
	l.mu.Unlock()

	if err != nil {
		ls.each(func(x Listener) { x.LedWriteFailed(line, err) })
		return fmt.Errorf("setting leds on line %d: %w", line, err)
	}
	return nil
}

func (l *Loop) SetBaudRate(rate int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.SetBaudRate(rate)
}

// SetFrequencyDivider slows the correlator clock by 2^div. Delays are
// recomputed against the new clock from the next packet.
func (l *Loop) SetFrequencyDivider(div uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.dev.SetFrequencyDivider(div); err != nil {
		return err
	}
	l.controller.Frequency = l.dev.Properties().Frequency
	return nil
}
