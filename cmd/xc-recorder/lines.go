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
	"github.com/charmbracelet/log"

	"github.com/openastro/xc-recorder/acquisition"
	"github.com/openastro/xc-recorder/location"
)

// configureLines pushes the configured position, target, optics and
// switches of every line into the loop. Lines without a surveyed
// position are left untracked.
func configureLines(loop *acquisition.Loop, lineCount int, lines []location.LineConfig) error {
	if len(lines) > lineCount {
		log.Warn("more lines configured than the correlator has", "configured", len(lines), "lines", lineCount)
	}
	for i := 0; i < lineCount; i++ {
		var lc location.LineConfig
		if i < len(lines) {
			lc = lines[i]
		}
		if pos, ok := lc.Position(); ok {
			if err := loop.SetPosition(i, pos); err != nil {
				return err
			}
		} else {
			log.Printf("line %d has no position and won't be tracked", i)
		}
		if err := loop.SetTarget(i, lc.Target()); err != nil {
			return err
		}
		if err := loop.SetOptics(i, lc.Aperture, lc.FocalLength); err != nil {
			return err
		}
		if err := loop.SetLine(i, !lc.Disabled, true); err != nil {
			return err
		}
	}
	return nil
}
