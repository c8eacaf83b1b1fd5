package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openastro/xc-recorder/acquisition"
	"github.com/openastro/xc-recorder/correlation"
	"github.com/openastro/xc-recorder/recorder"
	"github.com/openastro/xc-recorder/xc"
)

var testProps = xc.Properties{
	Bits:      16,
	Lines:     3,
	DelaySize: 1024,
	Frequency: 100e6,
}

type openWindow bool

func (w openWindow) Active() bool { return bool(w) }

func newTestLoop(t *testing.T) (*acquisition.Loop, *xc.Simulator) {
	sim := xc.NewSimulator(testProps)
	recConf := recorder.DefaultRecorderConfig()
	recConf.Resolution = 16
	loop := acquisition.New(
		sim,
		acquisition.DefaultConfig(),
		recConf,
		openWindow(true),
		new(recorder.NoWriteRecorder),
		correlation.DefaultSettings(),
	)
	require.NotNil(t, loop)
	return loop, sim
}
