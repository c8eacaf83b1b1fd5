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

// Package metrics exports acquisition telemetry to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openastro/xc-recorder/acquisition"
	"github.com/openastro/xc-recorder/correlation"
	"github.com/openastro/xc-recorder/recorder"
)

const namespace = "xc"

// Collector bundles the correlator metrics. It is an acquisition.Listener.
type Collector struct {
	gatherer prometheus.Gatherer

	Packets            prometheus.Counter
	ReadFailures       prometheus.Counter
	DelayWriteFailures *prometheus.CounterVec
	LedWriteFailures   *prometheus.CounterVec
	Fault              prometheus.Gauge
	Reference          prometheus.Gauge
	Exposing           prometheus.Gauge
	Exposures          *prometheus.CounterVec
	FramesDropped      prometheus.Counter
	Throttled          prometheus.Counter

	CountRate       *prometheus.GaugeVec
	Delay           *prometheus.GaugeVec
	Altitude        *prometheus.GaugeVec
	Magnitude       *prometheus.GaugeVec
	CorrelationRate *prometheus.GaugeVec
	Coherence       *prometheus.GaugeVec
}

var _ acquisition.Listener = (*Collector)(nil)

// NewCollector registers the metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &Collector{gatherer: gatherer}

	var err error
	counter := func(name, help string) prometheus.Counter {
		if err != nil {
			return nil
		}
		var m prometheus.Counter
		m, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help,
		}), name)
		return m
	}
	gauge := func(name, help string) prometheus.Gauge {
		if err != nil {
			return nil
		}
		var m prometheus.Gauge
		m, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help,
		}), name)
		return m
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		if err != nil {
			return nil
		}
		var m *prometheus.CounterVec
		m, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help,
		}, labels), name)
		return m
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		if err != nil {
			return nil
		}
		var m *prometheus.GaugeVec
		m, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help,
		}, labels), name)
		return m
	}

	c.Packets = counter("packets_total", "Packets processed by the acquisition loop.")
	c.ReadFailures = counter("read_failures_total", "Failed or timed out packet reads.")
	c.DelayWriteFailures = counterVec("delay_write_failures_total", "Failed delay register writes.", "line")
	c.LedWriteFailures = counterVec("led_write_failures_total", "Failed LED/power register writes.", "line")
	c.Fault = gauge("fault", "1 while the correlator has stopped responding.")
	c.Reference = gauge("reference_line", "Index of the delay reference line, -1 when none.")
	c.Exposing = gauge("exposing", "1 while an exposure is running.")
	c.Exposures = counterVec("exposures_total", "Exposures ended, by result.", "result")
	c.FramesDropped = counter("frames_dropped_total", "Completed exposures dropped because the writer was busy.")
	c.Throttled = counter("exposures_throttled_total", "Completed exposures discarded by the throttler.")
	c.CountRate = gaugeVec("line_count_rate", "Photon counts per second.", "line")
	c.Delay = gaugeVec("line_delay_meters", "Geometric delay applied to the line.", "line")
	c.Altitude = gaugeVec("line_altitude_degrees", "Altitude of the line's target.", "line")
	c.Magnitude = gaugeVec("line_magnitude", "Estimated magnitude of the line's target.", "line")
	c.CorrelationRate = gaugeVec("baseline_correlation_rate", "Correlations per second.", "baseline")
	c.Coherence = gaugeVec("baseline_coherence", "Coherence ratio over the last report interval.", "baseline")
	if err != nil {
		return nil, err
	}
	c.Reference.Set(-1)
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) PacketProcessed(reference int) {
	c.Packets.Inc()
	c.Reference.Set(float64(reference))
}

func (c *Collector) ReadFailed(error) {
	c.ReadFailures.Inc()
}

func (c *Collector) DelayWriteFailed(line int, _ error) {
	c.DelayWriteFailures.WithLabelValues(strconv.Itoa(line)).Inc()
}

func (c *Collector) LedWriteFailed(line int, _ error) {
	c.LedWriteFailures.WithLabelValues(strconv.Itoa(line)).Inc()
}

// WhenThrottled makes the collector a throttle.ThrottledEventListener.
func (c *Collector) WhenThrottled() {
	c.Throttled.Inc()
}

func (c *Collector) FaultChanged(fault bool) {
	c.Fault.Set(boolValue(fault))
}

func (c *Collector) ExposureStarted(time.Duration) {
	c.Exposing.Set(1)
}

func (c *Collector) ExposureEnded(frame *recorder.Frame) {
	c.Exposing.Set(0)
	result := "completed"
	if frame == nil {
		result = "aborted"
	}
	c.Exposures.WithLabelValues(result).Inc()
}

func (c *Collector) FrameDropped() {
	c.FramesDropped.Inc()
}

func (c *Collector) Reported(r *correlation.Report) {
	for _, line := range r.Lines {
		label := strconv.Itoa(line.Line)
		c.CountRate.WithLabelValues(label).Set(line.CountRate)
		c.Delay.WithLabelValues(label).Set(line.Delay)
		c.Altitude.WithLabelValues(label).Set(line.Altitude)
		c.Magnitude.WithLabelValues(label).Set(line.Magnitude)
	}
	for _, b := range r.Baselines {
		label := BaselineLabel(b.A, b.B)
		c.CorrelationRate.WithLabelValues(label).Set(b.CorrelationRate)
		c.Coherence.WithLabelValues(label).Set(b.Coherence)
	}
	c.Fault.Set(boolValue(r.Fault))
	c.Exposing.Set(boolValue(r.Exposing))
}

// BaselineLabel names the baseline joining lines a and b.
func BaselineLabel(a, b int) string {
	return strconv.Itoa(a) + "-" + strconv.Itoa(b)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return c, err
	}
	return c, nil
}
