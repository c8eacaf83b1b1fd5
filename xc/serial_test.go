package xc

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort replays reads; a nil entry behaves like a read timeout.
type fakePort struct {
	reads   [][]byte
	written bytes.Buffer
	speed   int
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, io.EOF
	}
	next := p.reads[0]
	p.reads = p.reads[1:]
	if next == nil {
		return 0, io.EOF
	}
	return copy(b, next), nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetSpeed(baud int) error {
	p.speed = baud
	return nil
}

func newTestSerial(t *testing.T, reads ...[]byte) (*Serial, *fakePort) {
	port := &fakePort{
		reads: append([][]byte{[]byte("08030A05F5E100\r")}, reads...),
	}
	s, err := newSerial(port)
	require.NoError(t, err)
	port.written.Reset()
	return s, port
}

func TestOpenReadsProperties(t *testing.T) {
	port := &fakePort{
		reads: [][]byte{
			[]byte("0A0B\r"),
			nil,
			[]byte("08030A05F5E100\r"),
		},
	}
	s, err := newSerial(port)
	require.NoError(t, err)
	assert.Equal(t, testProps, s.Properties())
	assert.Equal(t, encodeCommand(opGetProperties, 0, 0), port.written.Bytes())
}

func TestOpenWithoutProperties(t *testing.T) {
	_, err := newSerial(&fakePort{})
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestReadPacketAcrossTimeouts(t *testing.T) {
	s, _ := newTestSerial(t,
		[]byte("6464"),
		nil,
		[]byte("64323232\r\n646464"),
	)
	p := NewPacket(s.Properties())

	assert.Equal(t, ErrTimeout, s.ReadPacket(p))
	require.NoError(t, s.ReadPacket(p))
	assert.Equal(t, []uint64{100, 100, 100}, p.Counts)
	assert.Equal(t, []uint64{50, 50, 50}, p.Correlations)
	assert.False(t, p.Timestamp.IsZero())

	// The rest of the next line is buffered.
	assert.Equal(t, ErrTimeout, s.ReadPacket(p))
}

func TestReadPacketShort(t *testing.T) {
	s, _ := newTestSerial(t, []byte("6464\r"))
	err := s.ReadPacket(NewPacket(s.Properties()))
	assert.True(t, errors.Is(err, ErrShortPacket))
}

func TestRegisterWrites(t *testing.T) {
	s, port := newTestSerial(t)

	require.NoError(t, s.SetDelay(1, 300))
	assert.Equal(t, encodeCommand(opSetDelay, 1, 300), port.written.Next(commandLength))

	require.NoError(t, s.SetDelay(1, -3))
	assert.Equal(t, encodeCommand(opSetDelay, 1, 0), port.written.Next(commandLength))

	require.NoError(t, s.SetLeds(2, true, false))
	assert.Equal(t, encodeCommand(opSetLeds, 2, 1), port.written.Next(commandLength))

	require.NoError(t, s.EnableCapture(true))
	assert.Equal(t, encodeCommand(opEnableCapture, 0, 1), port.written.Next(commandLength))
}

func TestSetBaudRate(t *testing.T) {
	s, port := newTestSerial(t)

	require.NoError(t, s.SetBaudRate(115200))
	assert.Equal(t, encodeCommand(opSetBaudRate, 0, 1), port.written.Bytes())
	assert.Equal(t, 115200, port.speed)

	assert.True(t, errors.Is(s.SetBaudRate(9600), ErrBaudRate))
	assert.Equal(t, 115200, port.speed)
}

func TestSetFrequencyDivider(t *testing.T) {
	s, port := newTestSerial(t)

	require.NoError(t, s.SetFrequencyDivider(2))
	assert.Equal(t, encodeCommand(opSetFrequencyDivider, 0, 2), port.written.Bytes())
	assert.Equal(t, 25e6, s.Properties().Frequency)

	require.NoError(t, s.SetFrequencyDivider(0))
	assert.Equal(t, 100e6, s.Properties().Frequency)

	assert.Error(t, s.SetFrequencyDivider(40))
}

func TestClose(t *testing.T) {
	s, port := newTestSerial(t)
	require.NoError(t, s.Close())
	assert.True(t, port.closed)
}
