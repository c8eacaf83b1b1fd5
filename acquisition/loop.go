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

// Package acquisition runs the correlator's real-time packet loop: each
// packet is accumulated, binned into the UV image while exposing, and the
// delay lines are re-steered toward the current reference.
package acquisition

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"

	"github.com/openastro/xc-recorder/array"
	"github.com/openastro/xc-recorder/correlation"
	"github.com/openastro/xc-recorder/delay"
	"github.com/openastro/xc-recorder/loglimiter"
	"github.com/openastro/xc-recorder/recorder"
	"github.com/openastro/xc-recorder/xc"
)

const (
	logInterval  = time.Minute
	retryInitial = 100 * time.Millisecond
)

var (
	ErrNotRunning     = errors.New("acquisition loop not running")
	ErrAlreadyRunning = errors.New("acquisition loop already running")
)

// Window reports whether exposures may start now.
type Window interface {
	Active() bool
}

// Loop owns the correlator while capture is enabled. The packet goroutine
// and the control path share state under mu, which is held for one cycle
// at a time and never across a packet read.
type Loop struct {
	dev      xc.Device
	conf     Config
	recConf  recorder.RecorderConfig
	window   Window
	rec      recorder.Recorder
	settings correlation.Settings
	logLimit *loglimiter.LogLimiter
	now      func() time.Time

	mu         sync.Mutex
	arr        *array.Array
	acc        *correlation.Accumulator
	image      *correlation.Image
	controller *delay.Controller
	exposure   recorder.Exposure
	failures   int
	fault      bool
	softFaults int
	reportedAt time.Time
	lastReport *correlation.Report
	listeners  listeners

	// frames is nil once stopped; guarded by mu.
	frames  chan *recorder.Frame
	running bool

	// lifeMu serialises Start and Stop. The channels below are replaced
	// on every Start.
	lifeMu     sync.Mutex
	stop       chan struct{}
	done       chan struct{}
	reportDone chan struct{}
	writerDone chan struct{}
}

// New sizes the per-line state from the device properties. Lines start
// enabled and powered with no position, so nothing is tracked until
// positions are set.
func New(
	dev xc.Device,
	conf Config,
	recConf recorder.RecorderConfig,
	w Window,
	rec recorder.Recorder,
	settings correlation.Settings,
) *Loop {
	props := dev.Properties()
	return &Loop{
		dev:        dev,
		conf:       conf,
		recConf:    recConf,
		window:     w,
		rec:        rec,
		settings:   settings,
		logLimit:   loglimiter.New(logInterval),
		now:        time.Now,
		reportedAt: time.Now(),
		arr:        array.New(props.Lines),
		acc:        correlation.NewAccumulator(props.Lines),
		image:      correlation.NewImage(recConf.Resolution, recConf.Resolution),
		controller: delay.NewController(props.Frequency, props.DelaySize),
		frames:     make(chan *recorder.Frame, conf.FrameQueue),
	}
}

// AddListener registers l. It must be called before Start.
func (l *Loop) AddListener(listener Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, listener)
}

// Start enables capture and launches the packet, reporting and frame
// writer goroutines. A stopped loop can be started again.
func (l *Loop) Start() error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()
	if l.Running() {
		return ErrAlreadyRunning
	}
	if err := l.dev.EnableCapture(true); err != nil {
		return fmt.Errorf("enabling capture: %w", err)
	}

	stop := make(chan struct{})
	l.stop = stop
	l.done = make(chan struct{})
	l.reportDone = make(chan struct{})
	l.writerDone = make(chan struct{})

	l.mu.Lock()
	if l.frames == nil {
		l.frames = make(chan *recorder.Frame, l.conf.FrameQueue)
	}
	frames := l.frames
	l.reportedAt = l.now()
	l.running = true
	l.mu.Unlock()

	go l.run(stop, l.done)
	go l.reporter(stop, l.reportDone)
	go l.writer(frames, l.writerDone)
	return nil
}

// Stop signals the packet loop, waits for it to finish the current cycle
// and exit, flushes pending frames and disables capture.
func (l *Loop) Stop() error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()
	if !l.Running() {
		return ErrNotRunning
	}

	close(l.stop)
	<-l.done
	<-l.reportDone

	l.mu.Lock()
	close(l.frames)
	l.frames = nil
	l.running = false
	l.mu.Unlock()
	<-l.writerDone

	return l.dev.EnableCapture(false)
}

// Running reports whether the packet loop is running.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func stopping(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// sleep waits for d or until stop is closed. It returns false if the
// loop is stopping.
func sleep(d time.Duration, stop <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = retryInitial
	retry.MaxInterval = l.conf.RetryMaxInterval
	retry.MaxElapsedTime = 0

	packet := xc.NewPacket(l.dev.Properties())
	for !stopping(stop) {
		err := l.dev.ReadPacket(packet)
		if err == nil {
			err = l.Process(packet)
		}
		if err != nil {
			l.readFailed(err)
			if errors.Is(err, xc.ErrTimeout) {
				continue
			}
			if wait := retry.NextBackOff(); wait != backoff.Stop && !sleep(wait, stop) {
				return
			}
			continue
		}
		retry.Reset()
	}
}

func (l *Loop) readFailed(err error) {
	l.mu.Lock()
	l.failures++
	enter := !l.fault && l.failures >= l.conf.MaxTransportFailures
	if enter {
		l.fault = true
	}
	failures := l.failures
	ls := l.listeners
	l.mu.Unlock()

	if !errors.Is(err, xc.ErrTimeout) {
		l.logLimit.Warnf("packet read failed: %v", err)
	}
	ls.each(func(x Listener) { x.ReadFailed(err) })
	if enter {
		log.Error("correlator not responding", "failures", failures, "err", err)
		ls.each(func(x Listener) { x.FaultChanged(true) })
	}
}

// Process runs one acquisition cycle for a packet: accumulate, bin into
// the image while exposing, track and re-steer the delay lines, then
// complete the exposure if its time is up.
func (l *Loop) Process(p *xc.Packet) error {
	now := l.now()
	type delayFailure struct {
		line int
		err  error
	}
	var failed []delayFailure

	l.mu.Lock()
	if err := l.acc.Add(p); err != nil {
		l.mu.Unlock()
		return err
	}
	cleared := l.fault
	l.failures = 0
	l.fault = false

	if l.exposure.Active() {
		l.integrate(p, now)
	}

	ticks := l.controller.Update(l.arr, now)
	for i, t := range ticks {
		if err := l.dev.SetDelay(i, t); err != nil {
			l.softFaults++
			failed = append(failed, delayFailure{i, err})
		}
	}
	reference := l.controller.Reference()

	var frame *recorder.Frame
	queued := false
	if l.exposure.Expired(now) {
		frame = l.completeExposure()
		queued = l.queue(frame)
	}
	ls := l.listeners
	l.mu.Unlock()

	if cleared {
		log.Info("correlator responding again")
		ls.each(func(x Listener) { x.FaultChanged(false) })
	}
	for _, f := range failed {
		l.logLimit.Warnf("setting delay on line %d: %v", f.line, f.err)
		ls.each(func(x Listener) { x.DelayWriteFailed(f.line, f.err) })
	}
	ls.each(func(x Listener) { x.PacketProcessed(reference) })
	if frame != nil {
		log.Printf("exposure of %v complete", frame.Duration)
		ls.each(func(x Listener) { x.ExposureEnded(frame) })
		if !queued {
			log.Warn("frame queue full, dropping exposure", "started", frame.Timestamp)
			ls.each(func(x Listener) { x.FrameDropped() })
		}
	}
	return nil
}

// integrate bins this packet's coherence for every known baseline between
// two enabled lines at its current UV point and the mirrored point.
func (l *Loop) integrate(p *xc.Packet, now time.Time) {
	for k := range l.arr.Baselines {
		b := &l.arr.Baselines[k]
		if !b.Valid() || !l.arr.Lines[b.A].Enabled || !l.arr.Lines[b.B].Enabled {
			continue
		}
		u, v := l.arr.UV(k, now)
		coherence := correlation.Coherence(p.Correlations[k], p.Counts[b.A], p.Counts[b.B])
		l.image.AddSample(u, v, coherence)
	}
}

func (l *Loop) completeExposure() *recorder.Frame {
	started, duration := l.exposure.Finish()
	frame := &recorder.Frame{
		Pix:       l.image.Stretch(),
		Width:     l.image.Width,
		Height:    l.image.Height,
		Duration:  duration,
		Timestamp: started,
	}
	l.image.Reset()
	return frame
}

// queue hands a completed frame to the writer without waiting. It
// returns false when the queue is full or the loop has been stopped.
// Called with mu held.
func (l *Loop) queue(frame *recorder.Frame) bool {
	select {
	case l.frames <- frame:
		return true
	default:
		return false
	}
}

func (l *Loop) writer(frames <-chan *recorder.Frame, done chan<- struct{}) {
	defer close(done)
	for frame := range frames {
		if err := l.rec.WriteFrame(frame); err != nil {
			log.Error("writing exposure", "err", err)
		}
	}
}

func (l *Loop) reporter(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.conf.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.Report()
		}
	}
}

// Report flushes the accumulated totals into a report covering the time
// since the previous report and publishes it to the listeners.
func (l *Loop) Report() *correlation.Report {
	now := l.now()

	l.mu.Lock()
	totals := l.acc.Flush()
	report := correlation.NewReport(totals, now.Sub(l.reportedAt), l.arr, l.settings)
	report.Timestamp = now
	report.Reference = l.controller.Reference()
	report.Fault = l.fault
	report.Exposing = l.exposure.Active()
	report.ExposureLeft = l.exposure.Remaining(now).Seconds()
	l.reportedAt = now
	l.lastReport = report
	ls := l.listeners
	l.mu.Unlock()

	ls.each(func(x Listener) { x.Reported(report) })
	return report
}

// LastReport returns the most recent report, or nil before the first
// reporting tick.
func (l *Loop) LastReport() *correlation.Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastReport
}

func (l *Loop) Fault() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fault
}

// SoftFaults returns the number of failed register writes.
func (l *Loop) SoftFaults() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.softFaults
}
