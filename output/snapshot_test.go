package output

import (
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	s := NewSnapshotter(t.TempDir())
	require.NoError(t, s.Take(testFrame()))

	f, err := os.Open(s.Path())
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestSnapshotWithoutExposure(t *testing.T) {
	s := NewSnapshotter(t.TempDir())
	assert.Error(t, s.Take(nil))
	assert.NoFileExists(t, s.Path())
}

func TestSnapshotsAreRateLimited(t *testing.T) {
	now := started
	s := NewSnapshotter(t.TempDir())
	s.now = func() time.Time { return now }

	require.NoError(t, s.Take(testFrame()))
	s.Delete()
	assert.NoFileExists(t, s.Path())

	now = now.Add(allowedSnapshotPeriod / 2)
	require.NoError(t, s.Take(testFrame()))
	assert.NoFileExists(t, s.Path())

	now = now.Add(allowedSnapshotPeriod)
	require.NoError(t, s.Take(testFrame()))
	assert.FileExists(t, s.Path())
}

func TestDeleteMissingSnapshot(t *testing.T) {
	s := NewSnapshotter(t.TempDir())
	assert.NotPanics(t, s.Delete)
}
