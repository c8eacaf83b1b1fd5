package main

import (
	"testing"

	"github.com/godbus/dbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/openastro/xc-recorder/correlation"
	"github.com/openastro/xc-recorder/output"
)

func TestServiceWithoutCorrelator(t *testing.T) {
	s := new(service)

	err := s.StartExposure(10)
	require.NotNil(t, err)
	assert.Equal(t, dbusName+".StartExposure", err.Name)
	assert.Equal(t, []interface{}{errNoCorrelator.Error()}, err.Body)

	_, err = s.Stats()
	assert.NotNil(t, err)
}

func TestServiceExposure(t *testing.T) {
	loop, _ := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)

	assert.Nil(t, s.StartExposure(10))
	_, running := loop.ExposureLeft()
	assert.True(t, running)

	aborted, err := s.AbortExposure()
	assert.Nil(t, err)
	assert.True(t, aborted)

	aborted, err = s.AbortExposure()
	assert.Nil(t, err)
	assert.False(t, aborted)
}

func TestServiceRejectsShortExposure(t *testing.T) {
	loop, _ := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)

	err := s.StartExposure(0.1)
	require.NotNil(t, err)
	assert.Equal(t, dbusName+".StartExposure", err.Name)
}

func TestServiceTakeSnapshot(t *testing.T) {
	loop, _ := newTestLoop(t)
	s := &service{snapshots: output.NewSnapshotter(t.TempDir())}
	s.setLoop(loop)

	err := s.TakeSnapshot()
	require.NotNil(t, err, "no exposure running")
	assert.Equal(t, dbusName+".TakeSnapshot", err.Name)

	require.Nil(t, s.StartExposure(10))
	assert.Nil(t, s.TakeSnapshot())
	assert.FileExists(t, s.snapshots.Path())
}

func TestServiceSetLine(t *testing.T) {
	loop, sim := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)

	assert.Nil(t, s.SetLine(1, false, true))
	assert.Equal(t, uint32(2), sim.Leds(1))

	assert.NotNil(t, s.SetLine(int32(testProps.Lines), true, true))
}

func TestServiceValidatesArguments(t *testing.T) {
	loop, _ := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)

	assert.Nil(t, s.SetTarget(0, 5.5, -5))
	assert.NotNil(t, s.SetTarget(0, 25, 0))
	assert.NotNil(t, s.SetTarget(0, 1, 91))

	assert.Nil(t, s.SetTelescopeInfo(0, 0.2, 1.2))
	assert.NotNil(t, s.SetTelescopeInfo(0, -0.2, 1.2))

	assert.Nil(t, s.SetLocation(0, -43.5, 172.6, 20))
	assert.NotNil(t, s.SetLocation(0, 95, 0, 0))
}

func TestServiceRegisters(t *testing.T) {
	loop, sim := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)

	assert.Nil(t, s.SetBaudRate(115200))
	assert.Equal(t, 115200, sim.BaudRate())
	assert.NotNil(t, s.SetBaudRate(1234))

	assert.Nil(t, s.SetFrequencyDivider(1))
	assert.Equal(t, testProps.Frequency/2, sim.Properties().Frequency)
}

func TestServiceStats(t *testing.T) {
	loop, _ := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)

	_, err := s.Stats()
	assert.NotNil(t, err, "no report yet")

	loop.Report()
	stats, err := s.Stats()
	require.Nil(t, err)

	var report correlation.Report
	require.NoError(t, yaml.Unmarshal([]byte(stats), &report))
	assert.Len(t, report.Lines, testProps.Lines)
	assert.Len(t, report.Baselines, testProps.Baselines())
}

func TestServiceRemoveLoop(t *testing.T) {
	loop, _ := newTestLoop(t)
	s := new(service)
	s.setLoop(loop)
	s.removeLoop()

	var err *dbus.Error = s.SetLine(0, true, true)
	assert.NotNil(t, err)
}
