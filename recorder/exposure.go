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
)

// StellarDay is the longest exposure accepted.
const StellarDay = 86164098903691 * time.Nanosecond

var (
	ErrExposureActive   = errors.New("exposure already in progress")
	ErrExposureDuration = errors.New("exposure duration out of range")
)

// Exposure tracks one image integration. The zero value is idle.
type Exposure struct {
	started  time.Time
	duration time.Duration
	active   bool
}

// Start begins an exposure of length d at now.
func (e *Exposure) Start(d time.Duration, now time.Time) error {
	if e.active {
		return ErrExposureActive
	}
	if d <= 0 {
		return fmt.Errorf("%v: %w", d, ErrExposureDuration)
	}
	e.started = now
	e.duration = d
	e.active = true
	return nil
}

// Abort ends the exposure without a frame. It reports whether one was
// running.
func (e *Exposure) Abort() bool {
	wasActive := e.active
	e.active = false
	return wasActive
}

func (e *Exposure) Active() bool {
	return e.active
}

func (e *Exposure) Duration() time.Duration {
	return e.duration
}

func (e *Exposure) Started() time.Time {
	return e.started
}

// Remaining returns the time left at now, never negative. It is zero when
// no exposure is running.
func (e *Exposure) Remaining(now time.Time) time.Duration {
	if !e.active {
		return 0
	}
	left := e.duration - now.Sub(e.started)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a running exposure has reached its duration.
func (e *Exposure) Expired(now time.Time) bool {
	return e.active && now.Sub(e.started) >= e.duration
}

// Finish ends the exposure and returns the frame metadata for it.
func (e *Exposure) Finish() (started time.Time, duration time.Duration) {
	e.active = false
	return e.started, e.duration
}
