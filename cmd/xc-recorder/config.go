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
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/openastro/xc-recorder/acquisition"
	"github.com/openastro/xc-recorder/correlation"
	"github.com/openastro/xc-recorder/location"
	"github.com/openastro/xc-recorder/recorder"
	"github.com/openastro/xc-recorder/throttle"
	"github.com/openastro/xc-recorder/xc"
)

type Config struct {
	SerialPort       string                   `yaml:"serial-port"`
	BaudRate         int                      `yaml:"baud-rate"`
	FrequencyDivider uint                     `yaml:"frequency-divider"`
	PowerPin         string                   `yaml:"power-pin"`
	OutputDir        string                   `yaml:"output-dir"`
	MinDiskSpace     uint64                   `yaml:"min-disk-space"`
	MetricsAddress   string                   `yaml:"metrics-address"`
	Acquisition      acquisition.Config       `yaml:"acquisition"`
	Recorder         recorder.RecorderConfig  `yaml:"recorder"`
	Throttler        throttle.ThrottlerConfig `yaml:"throttler"`
	Interferometer   correlation.Settings     `yaml:"interferometer"`
	Lines            []location.LineConfig    `yaml:"lines"`
}

func (conf *Config) Validate() error {
	if !validBaudRate(conf.BaudRate) {
		return fmt.Errorf("baud-rate should be one of %v", xc.BaudRates)
	}
	if conf.FrequencyDivider > 31 {
		return fmt.Errorf("frequency-divider should be in range 0 - 31")
	}
	if err := conf.Acquisition.Validate(); err != nil {
		return err
	}
	if err := conf.Recorder.Validate(); err != nil {
		return err
	}
	if err := conf.Throttler.Validate(); err != nil {
		return err
	}
	if err := conf.Interferometer.Validate(); err != nil {
		return err
	}
	return location.ValidateLines(conf.Lines)
}

func validBaudRate(rate int) bool {
	for _, r := range xc.BaudRates {
		if r == rate {
			return true
		}
	}
	return false
}

var defaultConfig = Config{
	SerialPort:     "/dev/ttyUSB0",
	BaudRate:       57600,
	PowerPin:       "",
	OutputDir:      "/var/spool/xc",
	MinDiskSpace:   200,
	Acquisition:    acquisition.DefaultConfig(),
	Recorder:       recorder.DefaultRecorderConfig(),
	Throttler:      throttle.DefaultThrottlerConfig(),
	Interferometer: correlation.DefaultSettings(),
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
