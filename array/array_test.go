package array

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/openastro/xc-recorder/geometry"
	"github.com/openastro/xc-recorder/sky"
)

func TestNewSizesOnce(t *testing.T) {
	a := New(4)
	assert.Len(t, a.Lines, 4)
	assert.Len(t, a.Baselines, 6)
	for i, line := range a.Lines {
		assert.Equal(t, i, line.Index)
		assert.True(t, line.Enabled)
		assert.True(t, line.Powered)
		assert.False(t, line.Tracked)
	}
}

func TestBaselineOrderIsRowMajor(t *testing.T) {
	a := New(4)
	var pairs [][2]int
	for _, b := range a.Baselines {
		pairs = append(pairs, [2]int{b.A, b.B})
	}
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, pairs)
}

func TestBaselineIndexMatchesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 16).Draw(t, "n")
		a := New(n)
		k := rapid.IntRange(0, len(a.Baselines)-1).Draw(t, "k")
		b := a.Baselines[k]

		idx, err := BaselineIndex(n, b.A, b.B)
		require.NoError(t, err)
		assert.Equal(t, k, idx)

		idx, err = BaselineIndex(n, b.B, b.A)
		require.NoError(t, err)
		assert.Equal(t, k, idx)
	})
}

func TestBaselineIndexRange(t *testing.T) {
	_, err := BaselineIndex(3, 1, 1)
	assert.True(t, errors.Is(err, ErrLineRange))
	_, err = BaselineIndex(3, 0, 3)
	assert.True(t, errors.Is(err, ErrLineRange))
	_, err = BaselineIndex(3, -1, 2)
	assert.True(t, errors.Is(err, ErrLineRange))
}

func TestLineRange(t *testing.T) {
	a := New(2)
	_, err := a.Line(2)
	assert.True(t, errors.Is(err, ErrLineRange))
	assert.True(t, errors.Is(a.SetTarget(-1, sky.Equatorial{}), ErrLineRange))
	assert.True(t, errors.Is(a.SetPosition(5, geometry.NewPosition(0, 0, 0)), ErrLineRange))
}

func TestBaselineNeedsBothPositions(t *testing.T) {
	a := New(3)
	require.NoError(t, a.SetPosition(0, geometry.NewPosition(0, 0, 0)))
	for _, b := range a.Baselines {
		assert.False(t, b.Valid())
		assert.Zero(t, b.Length())
	}
	assert.Zero(t, a.MaxBaselineLength())

	require.NoError(t, a.SetPosition(1, geometry.NewPosition(0, 0.001, 0)))
	b, err := a.Baseline(0, 1)
	require.NoError(t, err)
	assert.True(t, b.Valid())
	assert.InDelta(t, 111.3, b.Length(), 0.1)

	b, err = a.Baseline(1, 2)
	require.NoError(t, err)
	assert.False(t, b.Valid())
}

func TestCoLocatedLinesHaveNoBaseline(t *testing.T) {
	a := New(2)
	require.NoError(t, a.SetPosition(0, geometry.NewPosition(-43.5, 172.6, 10)))
	require.NoError(t, a.SetPosition(1, geometry.NewPosition(-43.5, 172.6, 10)))

	b, err := a.Baseline(0, 1)
	require.NoError(t, err)
	assert.False(t, b.Valid())
}

func TestSetPositionRefreshesTouchingBaselines(t *testing.T) {
	a := New(3)
	require.NoError(t, a.SetPosition(0, geometry.NewPosition(45, 7, 200)))
	require.NoError(t, a.SetPosition(1, geometry.NewPosition(45, 7.001, 200)))
	require.NoError(t, a.SetPosition(2, geometry.NewPosition(45.001, 7, 200)))

	b12 := a.Baselines[2].Vector

	moved := geometry.NewPosition(45, 7.002, 200)
	require.NoError(t, a.SetPosition(0, moved))

	assert.Equal(t, geometry.BaselineVector(moved, a.Lines[1].Position), a.Baselines[0].Vector)
	assert.Equal(t, geometry.BaselineVector(moved, a.Lines[2].Position), a.Baselines[1].Vector)
	assert.Equal(t, b12, a.Baselines[2].Vector)
}

func TestMaxBaselineLength(t *testing.T) {
	a := New(3)
	require.NoError(t, a.SetPosition(0, geometry.NewPosition(0, 0, 0)))
	require.NoError(t, a.SetPosition(1, geometry.NewPosition(0, 0.001, 0)))
	require.NoError(t, a.SetPosition(2, geometry.NewPosition(0, 0.003, 0)))
	assert.Equal(t, a.Baselines[1].Length(), a.MaxBaselineLength())
}

func TestTrackSkipsLinesWithoutPosition(t *testing.T) {
	a := New(2)
	require.NoError(t, a.SetPosition(1, geometry.NewPosition(-43.5, 172.6, 10)))
	require.NoError(t, a.SetTarget(1, sky.Equatorial{RA: 5, Dec: -60}))

	a.Track(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC))

	assert.False(t, a.Lines[0].Tracked)
	assert.True(t, a.Lines[1].Tracked)
	assert.GreaterOrEqual(t, a.Lines[1].Altitude, -90.0)
	assert.LessOrEqual(t, a.Lines[1].Altitude, 90.0)
}

func TestUVIsNormalised(t *testing.T) {
	a := New(3)
	require.NoError(t, a.SetPosition(0, geometry.NewPosition(10, 20, 0)))
	require.NoError(t, a.SetPosition(1, geometry.NewPosition(10, 20.01, 0)))
	require.NoError(t, a.SetPosition(2, geometry.NewPosition(10.02, 20, 0)))
	for i := range a.Lines {
		require.NoError(t, a.SetTarget(i, sky.Equatorial{RA: 3, Dec: 30}))
	}

	now := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	for k := range a.Baselines {
		u, v := a.UV(k, now)
		assert.LessOrEqual(t, u*u+v*v, 1+1e-9)
	}
}
