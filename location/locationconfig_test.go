package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSite(t *testing.T) {
	var conf LocationConfig
	require.NoError(t, conf.ParseConfig([]byte(`
latitude: -43.5
longitude: 172.6
altitude: 20
`)))
	pos, ok := conf.Position()
	require.True(t, ok)
	assert.InDelta(t, -43.5, pos.Lat.Degrees(), 1e-5)
	assert.InDelta(t, 172.6, pos.Lng.Degrees(), 1e-5)
	assert.Equal(t, 20.0, pos.Elevation)
}

func TestSiteOutOfRange(t *testing.T) {
	var conf LocationConfig
	assert.EqualError(t, conf.ParseConfig([]byte("latitude: 91")), "Latitude outside of normal range")
	conf = LocationConfig{}
	assert.EqualError(t, conf.ParseConfig([]byte("longitude: -181")), "Longitude outside of normal range")
}

func TestUnknownSite(t *testing.T) {
	conf := DefaultLocationConfig()
	_, ok := conf.Position()
	assert.False(t, ok)
}

func TestLinePosition(t *testing.T) {
	surveyed := LineConfig{Latitude: 10.001, Longitude: 20.002, Elevation: 5}
	pos, ok := surveyed.Position()
	require.True(t, ok)
	assert.InDelta(t, 20.002, pos.Lng.Degrees(), 1e-9)
	assert.Equal(t, 5.0, pos.Elevation)
}

func TestUnsurveyedLineHasNoPosition(t *testing.T) {
	unsurveyed := LineConfig{RA: 5.5, Dec: -5, Aperture: 0.2}
	pos, ok := unsurveyed.Position()
	assert.False(t, ok)
	assert.False(t, pos.IsSet())
}

func TestValidateLines(t *testing.T) {
	lines := []LineConfig{
		{RA: 5.5, Dec: -5},
		{RA: 24},
	}
	assert.EqualError(t, ValidateLines(lines), "line 1: ra should be in range 0 - 24")

	lines[1] = LineConfig{Aperture: -1}
	assert.EqualError(t, ValidateLines(lines), "line 1: aperture and focal-length can't be negative")

	lines[1] = LineConfig{Dec: 90.5}
	assert.Error(t, ValidateLines(lines))

	lines[1] = LineConfig{Latitude: -90, Longitude: 180, Dec: 90}
	assert.NoError(t, ValidateLines(lines))
}

func TestLineTarget(t *testing.T) {
	line := LineConfig{RA: 5.5, Dec: -5}
	assert.Equal(t, 5.5, line.Target().RA)
	assert.Equal(t, -5.0, line.Target().Dec)
}
