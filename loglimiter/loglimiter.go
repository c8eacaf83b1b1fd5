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

package loglimiter

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a new LogLimiter with the configured minimum log interval
// writing to the default logger.
func New(interval time.Duration) *LogLimiter {
	return NewWithLogger(interval, log.Default())
}

// NewWithLogger is New writing to logger.
func NewWithLogger(interval time.Duration, logger *log.Logger) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		logger:   logger,
	}
}

// LogLimiter will suppress log messages if the same log message is
// seen within some time interval.
type LogLimiter struct {
	logger        *log.Logger
	interval      time.Duration
	nowFunc       func() time.Time
	previousEntry string
	previousTime  time.Time
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

// Print logs s unless it repeats the previous message within the
// interval.
func (limiter *LogLimiter) Print(s string) {
	if limiter.allow(s) {
		limiter.logger.Print(s)
	}
}

// Warnf is Printf at warning level. Warnings and plain messages share
// the same suppression state.
func (limiter *LogLimiter) Warnf(format string, v ...interface{}) {
	s := fmt.Sprintf(format, v...)
	if limiter.allow(s) {
		limiter.logger.Warn(s)
	}
}

func (limiter *LogLimiter) allow(s string) bool {
	now := limiter.nowFunc()
	if now.Sub(limiter.previousTime) < limiter.interval && s == limiter.previousEntry {
		return false
	}
	limiter.previousTime = now
	limiter.previousEntry = s
	return true
}
