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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goconfig "github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"
	"github.com/charmbracelet/log"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/openastro/xc-recorder/acquisition"
	"github.com/openastro/xc-recorder/location"
	"github.com/openastro/xc-recorder/metrics"
	"github.com/openastro/xc-recorder/output"
	"github.com/openastro/xc-recorder/recorder"
	"github.com/openastro/xc-recorder/throttle"
	"github.com/openastro/xc-recorder/xc"
)

const (
	simulatedInterval = 10 * time.Millisecond
	simulatedCount    = 100000
	simulatedCorr     = 2500
)

var simulatedProperties = xc.Properties{
	Bits:      24,
	Lines:     4,
	DelaySize: 1024,
	Frequency: 100e6,
}

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	ConfigDir  string `arg:"--config-dir" help:"path to the shared device configuration directory"`
	Quick      bool   `arg:"-q,--quick" help:"don't cycle correlator power on startup"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"log every packet"`
	Simulate   bool   `arg:"-s,--simulate" help:"run against a simulated correlator"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/xc-recorder.yaml"
	args.ConfigDir = goconfig.DefaultConfigDir
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	log.SetReportTimestamp(args.Timestamps)
	if args.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	log.Printf("version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	logConfig(conf)

	header, site, err := loadDevice(args.ConfigDir, conf)
	if err != nil {
		return err
	}

	w, err := conf.Recorder.Window(float64(site.Latitude), float64(site.Longitude))
	if err != nil {
		return err
	}

	log.Print("deleting temp files")
	if err := output.DeleteTempFiles(conf.OutputDir); err != nil {
		return err
	}
	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return err
	}

	var rec recorder.Recorder = output.NewPNGRecorder(conf.OutputDir, conf.MinDiskSpace, header)
	if conf.Throttler.ApplyThrottling {
		events := throttle.ThrottledEventListeners{new(throttle.ThrottledEventRecorder), collector}
		rec = throttle.NewThrottledRecorder(rec, &conf.Throttler, events)
	}
	if conf.MetricsAddress != "" {
		go serveMetrics(conf.MetricsAddress, collector)
	}

	snapshots := output.NewSnapshotter(conf.OutputDir)
	snapshots.Delete()
	svc, err := startService(snapshots)
	if err != nil {
		return err
	}

	if !args.Simulate {
		log.Print("host initialisation")
		if _, err := host.Init(); err != nil {
			return err
		}
		if !args.Quick {
			if err := cycleCorrelatorPower(conf.PowerPin); err != nil {
				return err
			}
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for {
		dev, err := openCorrelator(conf, args.Simulate)
		if err != nil {
			return err
		}

		faulted, err := runCorrelator(conf, dev, w, rec, svc, collector, signals)
		log.Print("closing correlator")
		dev.Close()
		if err != nil || !faulted {
			return err
		}

		if err := cycleCorrelatorPower(conf.PowerPin); err != nil {
			return err
		}
	}
}

// runCorrelator tracks with dev until the loop faults or a signal
// arrives. It reports whether it stopped because of a fault.
func runCorrelator(
	conf *Config,
	dev xc.Device,
	w acquisition.Window,
	rec recorder.Recorder,
	svc *service,
	collector *metrics.Collector,
	signals <-chan os.Signal,
) (bool, error) {
	loop := acquisition.New(dev, conf.Acquisition, conf.Recorder, w, rec, conf.Interferometer)
	if err := configureLines(loop, dev.Properties().Lines, conf.Lines); err != nil {
		return false, err
	}
	if conf.FrequencyDivider > 0 {
		if err := loop.SetFrequencyDivider(conf.FrequencyDivider); err != nil {
			return false, err
		}
	}

	faults := newFaultWatcher()
	loop.AddListener(collector)
	loop.AddListener(newWatchdog())
	loop.AddListener(faults)

	log.Print("starting acquisition")
	if err := loop.Start(); err != nil {
		return false, err
	}
	svc.setLoop(loop)
	defer svc.removeLoop()

	faulted := false
	select {
	case <-faults.c:
		log.Error("correlator faulted, restarting")
		faulted = true
	case sig := <-signals:
		log.Printf("received %v, stopping", sig)
	}

	if err := loop.Stop(); err != nil && !errors.Is(err, acquisition.ErrNotRunning) {
		log.Warn("stopping acquisition", "err", err)
	}
	return faulted, nil
}

func openCorrelator(conf *Config, simulate bool) (xc.Device, error) {
	if simulate {
		log.Print("using simulated correlator")
		sim := xc.NewSimulator(simulatedProperties)
		sim.Interval = simulatedInterval
		sim.SetConstant(simulatedCount, simulatedCorr)
		return sim, nil
	}
	log.Printf("opening correlator on %s", conf.SerialPort)
	dev, err := xc.Open(conf.SerialPort, conf.BaudRate, conf.Acquisition.ReadTimeout)
	if err != nil {
		return nil, err
	}
	props := dev.Properties()
	log.Info("correlator connected",
		"lines", props.Lines,
		"bits", props.Bits,
		"delay-size", props.DelaySize,
		"frequency", props.Frequency)
	return dev, nil
}

// loadDevice reads the device identity and site location from the shared
// config directory. The site places the observing window and is recorded
// with every exposure.
func loadDevice(configDir string, conf *Config) (output.Header, location.LocationConfig, error) {
	header := output.Header{
		Wavelength: conf.Interferometer.Wavelength,
		Bandwidth:  conf.Interferometer.Bandwidth,
	}

	gc, err := goconfig.New(configDir)
	if err != nil {
		return header, location.LocationConfig{}, err
	}
	var device goconfig.Device
	if err := gc.Unmarshal(goconfig.DeviceKey, &device); err != nil {
		return header, location.LocationConfig{}, err
	}
	header.DeviceName = device.Name
	header.DeviceID = device.ID

	site, err := location.LoadSite(configDir)
	if err != nil {
		return header, site, err
	}
	if site.IsLocationEmpty() {
		log.Warn("site location unknown")
	} else {
		header.Latitude = site.Latitude
		header.Longitude = site.Longitude
		header.Altitude = site.Altitude
	}
	return header, site, nil
}

func serveMetrics(address string, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	log.Printf("serving metrics on %s", address)
	if err := http.ListenAndServe(address, mux); err != nil {
		log.Error("metrics server stopped", "err", err)
	}
}

func logConfig(conf *Config) {
	log.Printf("serial port: %s", conf.SerialPort)
	log.Printf("baud rate: %d", conf.BaudRate)
	log.Printf("frequency divider: %d", conf.FrequencyDivider)
	log.Printf("power pin: %s", conf.PowerPin)
	log.Printf("output dir: %s", conf.OutputDir)
	log.Printf("report interval: %s", conf.Acquisition.ReportInterval)
	log.Printf("lines configured: %d", len(conf.Lines))
	if conf.Recorder.WindowStart != "" {
		log.Printf("exposure window: %s - %s", conf.Recorder.WindowStart, conf.Recorder.WindowEnd)
	}
}

func cycleCorrelatorPower(pinName string) error {
	if pinName == "" {
		return nil
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return fmt.Errorf("unknown power pin %q", pinName)
	}

	log.Print("turning correlator power off")
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to set correlator power pin low: %v", err)
	}
	time.Sleep(2 * time.Second)

	log.Print("turning correlator power on")
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to set correlator power pin high: %v", err)
	}

	log.Print("waiting for correlator startup")
	time.Sleep(3 * time.Second)
	log.Print("correlator should be ready")
	return nil
}
