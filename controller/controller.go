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

// Package controller is the D-Bus client for a running xc-recorder.
package controller

import (
	"time"

	"github.com/godbus/dbus"
)

const (
	DbusName = "org.openastro.xcrecorder"
	DbusPath = "/org/openastro/xcrecorder"
)

type Client struct {
	call func(method string, args ...interface{}) *dbus.Call
}

// New connects to the system bus.
func New() (*Client, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(DbusName, DbusPath)
	return &Client{
		call: func(method string, args ...interface{}) *dbus.Call {
			return obj.Call(DbusName+"."+method, 0, args...)
		},
	}, nil
}

func (c *Client) StartExposure(d time.Duration) error {
	return c.call("StartExposure", d.Seconds()).Store()
}

// AbortExposure reports whether an exposure was running.
func (c *Client) AbortExposure() (bool, error) {
	var aborted bool
	err := c.call("AbortExposure").Store(&aborted)
	return aborted, err
}

// TakeSnapshot saves the exposure in progress as still.png in the output
// directory.
func (c *Client) TakeSnapshot() error {
	return c.call("TakeSnapshot").Store()
}

func (c *Client) SetLine(line int, enabled, powered bool) error {
	return c.call("SetLine", int32(line), enabled, powered).Store()
}

// SetTarget points a line at ra (hours) and dec (degrees).
func (c *Client) SetTarget(line int, ra, dec float64) error {
	return c.call("SetTarget", int32(line), ra, dec).Store()
}

func (c *Client) SetTelescopeInfo(line int, aperture, focalLength float64) error {
	return c.call("SetTelescopeInfo", int32(line), aperture, focalLength).Store()
}

func (c *Client) SetLocation(line int, latitude, longitude, elevation float64) error {
	return c.call("SetLocation", int32(line), latitude, longitude, elevation).Store()
}

func (c *Client) SetBaudRate(rate int) error {
	return c.call("SetBaudRate", int32(rate)).Store()
}

func (c *Client) SetFrequencyDivider(div uint) error {
	return c.call("SetFrequencyDivider", uint32(div)).Store()
}

// Stats returns the last report as YAML.
func (c *Client) Stats() (string, error) {
	var stats string
	err := c.call("Stats").Store(&stats)
	return stats, err
}
