package acquisition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openastro/xc-recorder/xc"
)

// TestPacketMaker plays scripted packets straight into a loop, advancing
// the test clock by Interval for each one.
type TestPacketMaker struct {
	t             *testing.T
	loop          *Loop
	clock         *testClock
	props         xc.Properties
	packetCounter int
	CountVal      uint64
	CorrelatedVal uint64
	Interval      time.Duration
}

func MakeTestPacketMaker(t *testing.T, loop *Loop, clock *testClock) *TestPacketMaker {
	return &TestPacketMaker{
		t:             t,
		loop:          loop,
		clock:         clock,
		props:         testProps,
		CountVal:      100,
		CorrelatedVal: 50,
		Interval:      100 * time.Millisecond,
	}
}

func (tpm *TestPacketMaker) AddQuietPackets(packets int) *TestPacketMaker {
	for i := 0; i < packets; i++ {
		tpm.PlayPacket(tpm.makePacket(0))
	}
	return tpm
}

func (tpm *TestPacketMaker) AddCorrelatedPackets(packets int) *TestPacketMaker {
	for i := 0; i < packets; i++ {
		tpm.PlayPacket(tpm.makePacket(tpm.CorrelatedVal))
	}
	return tpm
}

func (tpm *TestPacketMaker) PlayPacket(p *xc.Packet) {
	require.NoError(tpm.t, tpm.loop.Process(p))
	tpm.clock.Advance(tpm.Interval)
}

func (tpm *TestPacketMaker) Played() int {
	return tpm.packetCounter
}

func (tpm *TestPacketMaker) makePacket(correlation uint64) *xc.Packet {
	p := xc.NewPacket(tpm.props)
	for i := range p.Counts {
		p.Counts[i] = tpm.CountVal
	}
	for i := range p.Correlations {
		p.Correlations[i] = correlation
	}
	p.Timestamp = tpm.clock.Now()
	tpm.packetCounter++
	return p
}

func TestQuietPacketsLeaveImageEmpty(t *testing.T) {
	l, _, _, _, clock := newTestLoop(t)
	placeOnEquator(t, l)
	require.NoError(t, l.StartExposure(10*time.Second))

	tpm := MakeTestPacketMaker(t, l, clock).AddQuietPackets(5)
	assert.Zero(t, floatsSum(l.image.Pix))
	assert.Equal(t, []uint64{500, 500, 500}, l.acc.Counts())

	tpm.AddCorrelatedPackets(5)
	assert.NotZero(t, floatsSum(l.image.Pix))
	assert.Equal(t, []uint64{250, 250, 250}, l.acc.Correlations())
	assert.Equal(t, 10, tpm.Played())

	_, active := l.ExposureLeft()
	assert.True(t, active)
}

func TestScriptedPacketsCompleteExposure(t *testing.T) {
	l, _, _, tl, clock := newTestLoop(t)
	placeOnEquator(t, l)
	require.NoError(t, l.StartExposure(time.Second))

	MakeTestPacketMaker(t, l, clock).AddCorrelatedPackets(12)

	require.Len(t, tl.ended, 1)
	assert.NotNil(t, tl.ended[0])
	assert.Equal(t, time.Second, tl.ended[0].Duration)
}

func TestSnapshotDuringExposure(t *testing.T) {
	l, _, _, _, clock := newTestLoop(t)
	placeOnEquator(t, l)
	assert.Nil(t, l.Snapshot())

	require.NoError(t, l.StartExposure(10*time.Second))
	MakeTestPacketMaker(t, l, clock).AddCorrelatedPackets(10)

	frame := l.Snapshot()
	require.NotNil(t, frame)
	assert.Equal(t, time.Second, frame.Duration)
	assert.Equal(t, epoch, frame.Timestamp)
	assert.Contains(t, frame.Pix, uint16(65535))

	// Taking a snapshot leaves the exposure running.
	_, active := l.ExposureLeft()
	assert.True(t, active)
	assert.NotZero(t, floatsSum(l.image.Pix))
}
