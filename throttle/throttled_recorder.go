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

package throttle

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/juju/ratelimit"

	"github.com/openastro/xc-recorder/recorder"
)

func NewThrottledRecorder(
	baseRecorder recorder.Recorder,
	config *ThrottlerConfig,
	eventListener ThrottledEventListener,
) *ThrottledRecorder {
	return NewThrottledRecorderWithClock(
		baseRecorder,
		config,
		eventListener,
		new(realClock),
	)
}

func NewThrottledRecorderWithClock(
	baseRecorder recorder.Recorder,
	config *ThrottlerConfig,
	listener ThrottledEventListener,
	clock ratelimit.Clock,
) *ThrottledRecorder {
	// The token bucket tracks the number of *exposures* available for writing.
	bucket := ratelimit.NewBucketWithRateAndClock(1/config.MinRefill.Seconds(), config.BucketSize, clock)

	if listener == nil {
		listener = new(nullListener)
	}

	return &ThrottledRecorder{
		recorder: baseRecorder,
		listener: listener,
		bucket:   bucket,
	}
}

// ThrottledRecorder wraps a standard recorder so that completed exposures
// are dropped (ie get throttled) when they arrive faster than the bucket
// refills. This keeps a client looping short exposures from filling the
// disk.
type ThrottledRecorder struct {
	recorder recorder.Recorder
	listener ThrottledEventListener
	bucket   *ratelimit.Bucket
}

type ThrottledEventListener interface {
	WhenThrottled()
}

// ThrottledEventListeners fans a throttle event out to several listeners.
type ThrottledEventListeners []ThrottledEventListener

func (ls ThrottledEventListeners) WhenThrottled() {
	for _, l := range ls {
		l.WhenThrottled()
	}
}

type nullListener struct{}

func (lis *nullListener) WhenThrottled() {}

func (throttler *ThrottledRecorder) CheckCanRecord() error {
	return throttler.recorder.CheckCanRecord()
}

func (throttler *ThrottledRecorder) WriteFrame(frame *recorder.Frame) error {
	if throttler.bucket.TakeAvailable(1) > 0 {
		return throttler.recorder.WriteFrame(frame)
	}

	log.Warn("exposure throttled", "started", frame.Timestamp, "duration", frame.Duration)
	throttler.listener.WhenThrottled()
	return nil
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

// Now implements Clock.Now by calling time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// Now implements Clock.Sleep by calling time.Sleep.
func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
