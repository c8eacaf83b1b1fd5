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
	"testing"
	"time"

	"github.com/juju/ratelimit"
	"github.com/stretchr/testify/assert"

	"github.com/openastro/xc-recorder/recorder"
)

const (
	bucketSize = 5
	minRefill  = 20 * time.Second
)

func newTestConfig() *ThrottlerConfig {
	return &ThrottlerConfig{
		ApplyThrottling: true,
		BucketSize:      bucketSize,
		MinRefill:       minRefill,
	}
}

func newTestThrottledRecorder() (*writeRecorder, *throttleListener, *ThrottledRecorder, *testClock) {
	clock := new(testClock)
	recorder := new(writeRecorder)
	listener := new(throttleListener)
	return recorder, listener, NewThrottledRecorderWithClock(recorder, newTestConfig(), listener, clock), clock
}

type writeRecorder struct {
	recorder.NoWriteRecorder
	writes int
}

func (rec *writeRecorder) WriteFrame(frame *recorder.Frame) error {
	rec.writes++
	return nil
}

func (rec *writeRecorder) Reset() {
	rec.writes = 0
}

type throttleListener struct {
	events int
}

func (tc *throttleListener) WhenThrottled() {
	tc.events++
}

func writeFrames(throttler *ThrottledRecorder, frames int) {
	f := &recorder.Frame{Width: 2, Height: 2, Pix: make([]uint16, 4), Duration: time.Second}
	for i := 0; i < frames; i++ {
		throttler.WriteFrame(f)
	}
}

func TestOnlyWritesUntilBucketIsEmpty(t *testing.T) {
	recorder, listener, throtRecorder, _ := newTestThrottledRecorder()

	writeFrames(throtRecorder, bucketSize+2)
	assert.Equal(t, bucketSize, recorder.writes)
	assert.Equal(t, 2, listener.events)
}

func TestEventsReachEveryListener(t *testing.T) {
	first, second := new(throttleListener), new(throttleListener)
	conf := &ThrottlerConfig{ApplyThrottling: true, BucketSize: 1, MinRefill: minRefill}
	clock := new(testClock)
	throtRecorder := NewThrottledRecorderWithClock(new(writeRecorder), conf, ThrottledEventListeners{first, second}, clock)

	writeFrames(throtRecorder, 3)
	assert.Equal(t, 2, first.events)
	assert.Equal(t, 2, second.events)
}

func TestWaitingRefillsBucket(t *testing.T) {
	recorder, listener, throtRecorder, clock := newTestThrottledRecorder()

	writeFrames(throtRecorder, bucketSize) // empty bucket
	clock.Sleep(2 * minRefill)

	recorder.Reset()
	writeFrames(throtRecorder, bucketSize)
	assert.Equal(t, 2, recorder.writes)
	assert.Equal(t, bucketSize-2, listener.events)
}

func TestRefillStopsAtBucketSize(t *testing.T) {
	recorder, _, throtRecorder, clock := newTestThrottledRecorder()

	writeFrames(throtRecorder, bucketSize)
	clock.Sleep(100 * minRefill)

	recorder.Reset()
	writeFrames(throtRecorder, 2*bucketSize)
	assert.Equal(t, bucketSize, recorder.writes)
}

func TestPartialRefillIsNotEnough(t *testing.T) {
	recorder, _, throtRecorder, clock := newTestThrottledRecorder()

	writeFrames(throtRecorder, bucketSize)
	clock.Sleep(minRefill / 2)

	recorder.Reset()
	writeFrames(throtRecorder, 1)
	assert.Equal(t, 0, recorder.writes)
}

func TestNilListener(t *testing.T) {
	recorder := new(writeRecorder)
	throtRecorder := NewThrottledRecorderWithClock(recorder, newTestConfig(), nil, new(testClock))
	writeFrames(throtRecorder, bucketSize+1)
	assert.Equal(t, bucketSize, recorder.writes)
}

func TestConfigValidate(t *testing.T) {
	conf := DefaultThrottlerConfig()
	assert.NoError(t, conf.Validate())

	conf.BucketSize = 0
	assert.EqualError(t, conf.Validate(), "bucket-size should be at least 1")

	conf.ApplyThrottling = false
	assert.NoError(t, conf.Validate())
}

var _ ratelimit.Clock = new(realClock)
var _ ratelimit.Clock = new(testClock)

// testClock implements a fake ratelimit.Clock for testing.
type testClock struct {
	now time.Time
}

// Now implements Clock.Now by calling time.Now.
func (c *testClock) Now() time.Time {
	return c.now
}

// Now implements Clock.Sleep by calling time.Sleep.
func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestThrottleEventDetails(t *testing.T) {
	details, err := throttleEvent("throttle")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"description": {"type": "throttle"}}`, string(details))
}
