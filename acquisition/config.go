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
	"errors"
	"time"
)

type Config struct {
	ReportInterval       time.Duration `yaml:"report-interval"`
	ReadTimeout          time.Duration `yaml:"read-timeout"`
	MaxTransportFailures int           `yaml:"max-transport-failures"`
	RetryMaxInterval     time.Duration `yaml:"retry-max-interval"`
	FrameQueue           int           `yaml:"frame-queue"`
}

func DefaultConfig() Config {
	return Config{
		ReportInterval:       time.Second,
		ReadTimeout:          500 * time.Millisecond,
		MaxTransportFailures: 10,
		RetryMaxInterval:     5 * time.Second,
		FrameQueue:           2,
	}
}

func (conf *Config) Validate() error {
	if conf.ReportInterval <= 0 {
		return errors.New("report-interval must be positive")
	}
	if conf.ReadTimeout <= 0 {
		return errors.New("read-timeout must be positive")
	}
	if conf.MaxTransportFailures < 1 {
		return errors.New("max-transport-failures should be at least 1")
	}
	if conf.RetryMaxInterval < 0 {
		return errors.New("retry-max-interval can't be negative")
	}
	if conf.FrameQueue < 1 {
		return errors.New("frame-queue should be at least 1")
	}
	return nil
}
