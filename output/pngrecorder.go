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

// Package output writes completed exposures to disk as 16-bit grayscale
// PNG images with a YAML metadata file alongside.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	yaml "gopkg.in/yaml.v2"

	"github.com/openastro/xc-recorder/recorder"
)

const (
	pngTempExt   = "png.temp"
	metadataExt  = ".yaml"
	nameTimeForm = "20060102.150405.000"
)

// Header is written into the metadata of every exposure.
type Header struct {
	DeviceName string  `yaml:"device-name"`
	DeviceID   int     `yaml:"device-id,omitempty"`
	Latitude   float32 `yaml:"latitude"`
	Longitude  float32 `yaml:"longitude"`
	Altitude   float32 `yaml:"altitude"`
	Wavelength float64 `yaml:"wavelength"`
	Bandwidth  float64 `yaml:"bandwidth"`
}

type metadata struct {
	Header   `yaml:",inline"`
	Started  time.Time `yaml:"started"`
	Duration float64   `yaml:"duration"`
	Width    int       `yaml:"width"`
	Height   int       `yaml:"height"`
}

func NewPNGRecorder(outputDir string, minDiskSpace uint64, header Header) *PNGRecorder {
	return &PNGRecorder{
		outputDir:    outputDir,
		minDiskSpace: minDiskSpace,
		header:       header,
	}
}

// PNGRecorder implements recorder.Recorder. Images are written under a
// temporary name and renamed once complete so that anything watching the
// output directory never sees a partial file.
type PNGRecorder struct {
	outputDir    string
	minDiskSpace uint64
	header       Header
}

func (pr *PNGRecorder) CheckCanRecord() error {
	enoughSpace, err := checkDiskSpace(pr.minDiskSpace, pr.outputDir)
	if err != nil {
		return fmt.Errorf("Problem with checking disk space: %v", err)
	} else if !enoughSpace {
		return errors.New("not enough free disk space to start exposure")
	}
	return nil
}

func (pr *PNGRecorder) WriteFrame(frame *recorder.Frame) error {
	if len(frame.Pix) != frame.Width*frame.Height {
		return fmt.Errorf("frame has %d pixels, want %dx%d", len(frame.Pix), frame.Width, frame.Height)
	}
	tempName := filepath.Join(pr.outputDir, newExposureTempName(frame.Timestamp))
	if err := writePNG(tempName, frame); err != nil {
		os.Remove(tempName)
		return err
	}

	finalName := recordingFinalName(tempName)
	if err := pr.writeMetadata(finalName, frame); err != nil {
		os.Remove(tempName)
		return err
	}
	if _, err := renameTempRecording(tempName); err != nil {
		return err
	}
	log.Printf("exposure written: %s", finalName)
	return nil
}

func writePNG(filename string, frame *recorder.Frame) error {
	g16 := image.NewGray16(image.Rect(0, 0, frame.Width, frame.Height))
	for i, val := range frame.Pix {
		g16.Pix[2*i] = uint8(val >> 8)
		g16.Pix[2*i+1] = uint8(val)
	}

	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(out, g16); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (pr *PNGRecorder) writeMetadata(imageName string, frame *recorder.Frame) error {
	meta := metadata{
		Header:   pr.header,
		Started:  frame.Timestamp,
		Duration: frame.Duration.Seconds(),
		Width:    frame.Width,
		Height:   frame.Height,
	}
	buf, err := yaml.Marshal(&meta)
	if err != nil {
		return err
	}
	return os.WriteFile(metadataName(imageName), buf, 0644)
}

func metadataName(imageName string) string {
	return imageName[:len(imageName)-len(filepath.Ext(imageName))] + metadataExt
}

func newExposureTempName(started time.Time) string {
	return started.Format(nameTimeForm + "." + pngTempExt)
}

func renameTempRecording(tempName string) (string, error) {
	finalName := recordingFinalName(tempName)
	err := os.Rename(tempName, finalName)
	if err != nil {
		return "", err
	}
	return finalName, nil
}

var reTempName = regexp.MustCompile(`(.+)\.temp$`)

func recordingFinalName(filename string) string {
	return reTempName.ReplaceAllString(filename, `$1`)
}

// DeleteTempFiles removes exposures left half written by a previous run.
func DeleteTempFiles(directory string) error {
	matches, _ := filepath.Glob(filepath.Join(directory, "*."+pngTempExt))
	for _, filename := range matches {
		if err := os.Remove(filename); err != nil {
			return err
		}
	}
	return nil
}

func checkDiskSpace(mb uint64, dir string) (bool, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dir, &fs); err != nil {
		return false, err
	}
	return fs.Bavail*uint64(fs.Bsize)/1024/1024 >= mb, nil
}
