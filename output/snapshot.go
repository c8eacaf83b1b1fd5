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

package output

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/openastro/xc-recorder/recorder"
)

const (
	snapshotName          = "still.png"
	allowedSnapshotPeriod = 500 * time.Millisecond
)

// Snapshotter writes the exposure in progress as a still image so it can
// be checked before the exposure completes.
type Snapshotter struct {
	dir  string
	now  func() time.Time
	mu   sync.Mutex
	last time.Time
}

func NewSnapshotter(dir string) *Snapshotter {
	return &Snapshotter{dir: dir, now: time.Now}
}

// Take writes frame to still.png. Requests closer together than
// allowedSnapshotPeriod are ignored.
func (s *Snapshotter) Take(frame *recorder.Frame) error {
	if frame == nil {
		return errors.New("no exposure running")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.last) < allowedSnapshotPeriod {
		return nil
	}

	tempName := filepath.Join(s.dir, snapshotName+".temp")
	if err := writePNG(tempName, frame); err != nil {
		os.Remove(tempName)
		return err
	}
	if err := os.Rename(tempName, s.Path()); err != nil {
		return err
	}
	// only a successful write holds off the next one
	s.last = now
	return nil
}

func (s *Snapshotter) Path() string {
	return filepath.Join(s.dir, snapshotName)
}

// Delete removes any still left by a previous run.
func (s *Snapshotter) Delete() {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		log.Printf("error deleting snapshot image: %v", err)
	}
}
