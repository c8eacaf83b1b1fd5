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

package main

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-systemd/daemon"

	"github.com/openastro/xc-recorder/acquisition"
)

const sdNotifyInterval = 5 * time.Second

// watchdog pets systemd while packets keep arriving.
type watchdog struct {
	acquisition.NopListener
	notify     func() error
	lastNotify time.Time
	now        func() time.Time
}

func newWatchdog() *watchdog {
	return &watchdog{
		notify: func() error {
			_, err := daemon.SdNotify(false, "WATCHDOG=1")
			return err
		},
		now: time.Now,
	}
}

func (w *watchdog) PacketProcessed(int) {
	now := w.now()
	if now.Sub(w.lastNotify) < sdNotifyInterval {
		return
	}
	w.lastNotify = now
	if err := w.notify(); err != nil {
		log.Debug("watchdog notify failed", "err", err)
	}
}

// faultWatcher signals when the correlator stops responding.
type faultWatcher struct {
	acquisition.NopListener
	c chan struct{}
}

func newFaultWatcher() *faultWatcher {
	return &faultWatcher{c: make(chan struct{}, 1)}
}

func (f *faultWatcher) FaultChanged(fault bool) {
	if !fault {
		return
	}
	select {
	case f.c <- struct{}{}:
	default:
	}
}
