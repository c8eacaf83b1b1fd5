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
	"fmt"
	"os"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/charmbracelet/log"

	"github.com/openastro/xc-recorder/controller"
)

var version = "<not set>"

type StartCmd struct {
	Seconds float64 `arg:"positional,required" help:"exposure length in seconds"`
}

type AbortCmd struct{}

type SnapshotCmd struct{}

type LineCmd struct {
	Line     int  `arg:"positional,required"`
	Disable  bool `arg:"--disable" help:"leave the line out of the image"`
	PowerOff bool `arg:"--power-off" help:"switch the line's power off"`
}

type TargetCmd struct {
	Line int     `arg:"positional,required"`
	RA   float64 `arg:"--ra,required" help:"right ascension in hours"`
	Dec  float64 `arg:"--dec,required" help:"declination in degrees, use --dec=-5 for southern targets"`
}

type TelescopeCmd struct {
	Line        int     `arg:"positional,required"`
	Aperture    float64 `arg:"--aperture,required" help:"aperture in metres"`
	FocalLength float64 `arg:"--focal-length,required" help:"focal length in metres"`
}

type LocationCmd struct {
	Line      int     `arg:"positional,required"`
	Latitude  float64 `arg:"--lat,required"`
	Longitude float64 `arg:"--lon,required"`
	Elevation float64 `arg:"--elevation" help:"metres"`
}

type BaudCmd struct {
	Rate int `arg:"positional,required"`
}

type DividerCmd struct {
	Divider uint `arg:"positional,required" help:"clock divider exponent, 0 - 31"`
}

type StatsCmd struct{}

type Args struct {
	Start     *StartCmd     `arg:"subcommand:start" help:"start an exposure"`
	Abort     *AbortCmd     `arg:"subcommand:abort" help:"abort the running exposure"`
	Snapshot  *SnapshotCmd  `arg:"subcommand:snapshot" help:"save the exposure in progress as a still"`
	Line      *LineCmd      `arg:"subcommand:line" help:"switch a line on or off"`
	Target    *TargetCmd    `arg:"subcommand:target" help:"point a line at a target"`
	Telescope *TelescopeCmd `arg:"subcommand:telescope" help:"set a line's optics"`
	Location  *LocationCmd  `arg:"subcommand:location" help:"move a line"`
	Baud      *BaudCmd      `arg:"subcommand:baud" help:"change the serial baud rate"`
	Divider   *DividerCmd   `arg:"subcommand:divider" help:"change the correlator clock divider"`
	Stats     *StatsCmd     `arg:"subcommand:stats" help:"print the last report"`
}

func (Args) Version() string {
	return version
}

func main() {
	var args Args
	p := arg.MustParse(&args)
	if args == (Args{}) {
		p.Fail("missing subcommand")
	}

	client, err := controller.New()
	if err != nil {
		log.Fatal(err)
	}
	if err := run(client, args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

type recorderClient interface {
	StartExposure(time.Duration) error
	AbortExposure() (bool, error)
	TakeSnapshot() error
	SetLine(line int, enabled, powered bool) error
	SetTarget(line int, ra, dec float64) error
	SetTelescopeInfo(line int, aperture, focalLength float64) error
	SetLocation(line int, latitude, longitude, elevation float64) error
	SetBaudRate(rate int) error
	SetFrequencyDivider(div uint) error
	Stats() (string, error)
}

func run(c recorderClient, args Args) error {
	switch {
	case args.Start != nil:
		return c.StartExposure(time.Duration(args.Start.Seconds * float64(time.Second)))
	case args.Abort != nil:
		aborted, err := c.AbortExposure()
		if err != nil {
			return err
		}
		if !aborted {
			fmt.Println("no exposure running")
		}
		return nil
	case args.Snapshot != nil:
		return c.TakeSnapshot()
	case args.Line != nil:
		return c.SetLine(args.Line.Line, !args.Line.Disable, !args.Line.PowerOff)
	case args.Target != nil:
		return c.SetTarget(args.Target.Line, args.Target.RA, args.Target.Dec)
	case args.Telescope != nil:
		return c.SetTelescopeInfo(args.Telescope.Line, args.Telescope.Aperture, args.Telescope.FocalLength)
	case args.Location != nil:
		l := args.Location
		return c.SetLocation(l.Line, l.Latitude, l.Longitude, l.Elevation)
	case args.Baud != nil:
		return c.SetBaudRate(args.Baud.Rate)
	case args.Divider != nil:
		return c.SetFrequencyDivider(args.Divider.Divider)
	case args.Stats != nil:
		stats, err := c.Stats()
		if err != nil {
			return err
		}
		fmt.Print(stats)
		return nil
	}
	return errors.New("missing subcommand")
}
