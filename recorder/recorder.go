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

package recorder

import "time"

// Frame is a completed exposure, stretched to 16 bits.
type Frame struct {
	Pix       []uint16
	Width     int
	Height    int
	Duration  time.Duration
	Timestamp time.Time
}

type Recorder interface {
	CheckCanRecord() error
	WriteFrame(*Frame) error
}

type NoWriteRecorder struct {
}

func (*NoWriteRecorder) CheckCanRecord() error   { return nil }
func (*NoWriteRecorder) WriteFrame(*Frame) error { return nil }
