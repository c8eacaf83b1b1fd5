package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogNotifiesAtMostEveryInterval(t *testing.T) {
	now := time.Date(2026, 3, 20, 22, 0, 0, 0, time.UTC)
	notified := 0
	w := &watchdog{
		notify: func() error { notified++; return nil },
		now:    func() time.Time { return now },
	}

	w.PacketProcessed(0)
	assert.Equal(t, 1, notified)

	now = now.Add(sdNotifyInterval / 2)
	w.PacketProcessed(0)
	assert.Equal(t, 1, notified)

	now = now.Add(sdNotifyInterval)
	w.PacketProcessed(0)
	assert.Equal(t, 2, notified)
}

func TestWatchdogNotifyFailureIsIgnored(t *testing.T) {
	w := &watchdog{
		notify: func() error { return errors.New("no socket") },
		now:    time.Now,
	}
	assert.NotPanics(t, func() { w.PacketProcessed(0) })
}

func TestFaultWatcherSignalsOnce(t *testing.T) {
	f := newFaultWatcher()

	f.FaultChanged(false)
	assert.Len(t, f.c, 0)

	f.FaultChanged(true)
	f.FaultChanged(true)
	assert.Len(t, f.c, 1)
}
