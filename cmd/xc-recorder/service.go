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
	"errors"
	"sync"
	"time"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"
	yaml "gopkg.in/yaml.v2"

	"github.com/openastro/xc-recorder/acquisition"
	"github.com/openastro/xc-recorder/controller"
	"github.com/openastro/xc-recorder/geometry"
	"github.com/openastro/xc-recorder/location"
	"github.com/openastro/xc-recorder/output"
)

const (
	dbusName = controller.DbusName
	dbusPath = controller.DbusPath
)

var errNoCorrelator = errors.New("no correlator connected")

type service struct {
	snapshots *output.Snapshotter

	mu   sync.Mutex
	loop *acquisition.Loop
}

func startService(snapshots *output.Snapshotter) (*service, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("name already taken")
	}
	s := &service{snapshots: snapshots}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return s, nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

func (s *service) setLoop(loop *acquisition.Loop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

func (s *service) removeLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = nil
}

// withLoop runs f against the connected correlator, converting any error
// into a D-Bus error named after method.
func (s *service) withLoop(method string, f func(*acquisition.Loop) error) *dbus.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loop == nil {
		return makeDbusError(method, errNoCorrelator)
	}
	if err := f(s.loop); err != nil {
		return makeDbusError(method, err)
	}
	return nil
}

// StartExposure starts integrating the UV image for the given number of
// seconds.
func (s *service) StartExposure(seconds float64) *dbus.Error {
	return s.withLoop("StartExposure", func(loop *acquisition.Loop) error {
		return loop.StartExposure(time.Duration(seconds * float64(time.Second)))
	})
}

// AbortExposure discards the running exposure.
func (s *service) AbortExposure() (bool, *dbus.Error) {
	var aborted bool
	err := s.withLoop("AbortExposure", func(loop *acquisition.Loop) error {
		aborted = loop.AbortExposure()
		return nil
	})
	return aborted, err
}

// TakeSnapshot saves the exposure in progress as a still.
func (s *service) TakeSnapshot() *dbus.Error {
	return s.withLoop("TakeSnapshot", func(loop *acquisition.Loop) error {
		return s.snapshots.Take(loop.Snapshot())
	})
}

func (s *service) SetLine(line int32, enabled, powered bool) *dbus.Error {
	return s.withLoop("SetLine", func(loop *acquisition.Loop) error {
		return loop.SetLine(int(line), enabled, powered)
	})
}

// SetTarget points a line at ra (hours) and dec (degrees).
func (s *service) SetTarget(line int32, ra, dec float64) *dbus.Error {
	return s.withLoop("SetTarget", func(loop *acquisition.Loop) error {
		lc := location.LineConfig{RA: ra, Dec: dec}
		if err := lc.Validate(); err != nil {
			return err
		}
		return loop.SetTarget(int(line), lc.Target())
	})
}

// SetTelescopeInfo sets the aperture and focal length of a line in metres.
func (s *service) SetTelescopeInfo(line int32, aperture, focalLength float64) *dbus.Error {
	return s.withLoop("SetTelescopeInfo", func(loop *acquisition.Loop) error {
		lc := location.LineConfig{Aperture: aperture, FocalLength: focalLength}
		if err := lc.Validate(); err != nil {
			return err
		}
		return loop.SetOptics(int(line), aperture, focalLength)
	})
}

// SetLocation moves a line to a new surveyed position.
func (s *service) SetLocation(line int32, latitude, longitude, elevation float64) *dbus.Error {
	return s.withLoop("SetLocation", func(loop *acquisition.Loop) error {
		lc := location.LineConfig{Latitude: latitude, Longitude: longitude, Elevation: elevation}
		if err := lc.Validate(); err != nil {
			return err
		}
		return loop.SetPosition(int(line), geometry.NewPosition(latitude, longitude, elevation))
	})
}

func (s *service) SetBaudRate(rate int32) *dbus.Error {
	return s.withLoop("SetBaudRate", func(loop *acquisition.Loop) error {
		return loop.SetBaudRate(int(rate))
	})
}

func (s *service) SetFrequencyDivider(div uint32) *dbus.Error {
	return s.withLoop("SetFrequencyDivider", func(loop *acquisition.Loop) error {
		return loop.SetFrequencyDivider(uint(div))
	})
}

// Stats returns the most recent report as YAML.
func (s *service) Stats() (string, *dbus.Error) {
	var stats string
	err := s.withLoop("Stats", func(loop *acquisition.Loop) error {
		report := loop.LastReport()
		if report == nil {
			return errors.New("no report yet")
		}
		buf, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		stats = string(buf)
		return nil
	})
	return stats, err
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
