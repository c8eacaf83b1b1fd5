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

package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	conf := DefaultRecorderConfig()
	assert.NoError(t, conf.Validate())
}

func TestWindowStartWithoutEndDoesntValidate(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.WindowStart = "09:10"
	assert.EqualError(t, conf.Validate(), "window-start is set but window-end isn't")
}

func TestWindowEndWithoutStartDoesntValidate(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.WindowEnd = "09:10"
	assert.EqualError(t, conf.Validate(), "window-end is set but window-start isn't")
}

func TestBadWindowDoesntValidate(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.WindowStart = "9am"
	conf.WindowEnd = "17:00"
	assert.EqualError(t, conf.Validate(), "invalid window-start")
}

func TestMinSecsGreaterThanMaxSecsDoesntValidate(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.MinSecs = 5
	conf.MaxSecs = 2
	assert.EqualError(t, conf.Validate(), "max-secs should be larger than min-secs")
}

func TestExposureLimits(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.MaxSecs = 86165
	assert.EqualError(t, conf.Validate(), "max-secs should be at most one stellar day")

	conf = DefaultRecorderConfig()
	conf.MinSecs = 0.5
	assert.EqualError(t, conf.Validate(), "min-secs should be at least 1")

	conf = DefaultRecorderConfig()
	conf.Resolution = 0
	assert.Error(t, conf.Validate())
}

func TestCheckDuration(t *testing.T) {
	conf := DefaultRecorderConfig()
	assert.NoError(t, conf.CheckDuration(time.Second))
	assert.NoError(t, conf.CheckDuration(StellarDay))
	assert.True(t, errors.Is(conf.CheckDuration(500*time.Millisecond), ErrExposureDuration))
	assert.True(t, errors.Is(conf.CheckDuration(StellarDay+time.Second), ErrExposureDuration))
}

func TestBadWindowEndDoesntValidate(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.WindowStart = "22:00"
	conf.WindowEnd = "25:99"
	assert.EqualError(t, conf.Validate(), "invalid window-end")
}

func TestWindowAcrossMidnightValidates(t *testing.T) {
	conf := DefaultRecorderConfig()
	conf.WindowStart = "22:00"
	conf.WindowEnd = "04:00"
	require.NoError(t, conf.Validate())
	_, err := conf.Window(-43.5, 172.6)
	assert.NoError(t, err)
}

func TestNoWindowAlwaysActive(t *testing.T) {
	conf := DefaultRecorderConfig()
	w, err := conf.Window(0, 0)
	require.NoError(t, err)
	assert.True(t, w.Active())
}
