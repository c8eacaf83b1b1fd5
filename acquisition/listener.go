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

package acquisition

import (
	"time"

	"github.com/openastro/xc-recorder/correlation"
	"github.com/openastro/xc-recorder/recorder"
)

// Listener is told about events in the acquisition loop. Methods are
// called from the loop's goroutines and must not block.
type Listener interface {
	PacketProcessed(reference int)
	ReadFailed(err error)
	DelayWriteFailed(line int, err error)
	LedWriteFailed(line int, err error)
	FaultChanged(fault bool)
	ExposureStarted(d time.Duration)
	ExposureEnded(frame *recorder.Frame)
	FrameDropped()
	Reported(report *correlation.Report)
}

// NopListener ignores every event. Embed it to implement only some of
// Listener.
type NopListener struct{}

func (NopListener) PacketProcessed(int)           {}
func (NopListener) ReadFailed(error)              {}
func (NopListener) DelayWriteFailed(int, error)   {}
func (NopListener) LedWriteFailed(int, error)     {}
func (NopListener) FaultChanged(bool)             {}
func (NopListener) ExposureStarted(time.Duration) {}
func (NopListener) ExposureEnded(*recorder.Frame) {}
func (NopListener) FrameDropped()                 {}
func (NopListener) Reported(*correlation.Report)  {}

type listeners []Listener

func (ls listeners) each(f func(Listener)) {
	for _, l := range ls {
		f(l)
	}
}
