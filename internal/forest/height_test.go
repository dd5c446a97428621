package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestgen/internal/grid"
)

func heightGrid(t *testing.T, rows [][]uint16) *grid.HeightGrid {
	t.Helper()
	h, err := grid.NewHeightGrid(grid.Dimensions{Rows: len(rows), Cols: len(rows[0])})
	require.NoError(t, err)
	for x, row := range rows {
		for y, v := range row {
			h.Set(x, y, v)
		}
	}
	return h
}

func TestRawHeightDirect(t *testing.T) {
	h := heightGrid(t, [][]uint16{
		{10, 20, 30},
		{40, 50, 60},
		{70, 80, 90},
	})
	s := &HeightSampler{Mode: SampleDirect, Raster: h.Dimensions(), Heights: h}
	raw, err := s.RawHeight(grid.Cell{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, 60.0, raw)
}

func TestRawHeightLowestPair(t *testing.T) {
	h := heightGrid(t, [][]uint16{
		{900, 512, 700},
		{800, 1000, 256},
		{600, 650, 990},
	})
	s := &HeightSampler{Mode: SampleLowestPair, Radius: 1, Raster: h.Dimensions(), Heights: h}
	raw, err := s.RawHeight(grid.Cell{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, (256.0+512.0)/2, raw)

	// Corner windows clamp to the edge instead of failing.
	raw, err = s.RawHeight(grid.Cell{X: 0, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, 512.0, raw)
}

func TestRawHeightLowestPairNeedsRadius(t *testing.T) {
	h := heightGrid(t, [][]uint16{{1, 2}, {3, 4}})
	s := &HeightSampler{Mode: SampleLowestPair, Raster: h.Dimensions(), Heights: h}
	_, err := s.RawHeight(grid.Cell{X: 0, Y: 0})
	assert.Error(t, err)
}

func TestRawHeightScalesToLargerDEM(t *testing.T) {
	h := heightGrid(t, [][]uint16{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 4},
		{3, 3, 4, 4},
	})
	s := &HeightSampler{Mode: SampleDirect, Raster: grid.Dimensions{Rows: 2, Cols: 2}, Heights: h}
	raw, err := s.RawHeight(grid.Cell{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, 4.0, raw)
}

func TestRawHeightRejectsUnknownMode(t *testing.T) {
	h := heightGrid(t, [][]uint16{{1}})
	s := &HeightSampler{Mode: "bilinear", Raster: h.Dimensions(), Heights: h}
	_, err := s.RawHeight(grid.Cell{})
	assert.Error(t, err)
}

func TestPositionFormula(t *testing.T) {
	h, err := grid.NewHeightGrid(grid.Dimensions{Rows: 8, Cols: 8})
	require.NoError(t, err)
	h.Fill(2560)

	s := &HeightSampler{
		Mode:       SampleDirect,
		PixelScale: 2,
		ZOffset:    -0.05,
		Raster:     h.Dimensions(),
		Heights:    h,
	}
	pos, err := s.Position(grid.Cell{X: 1, Y: 6}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.InDelta(t, (6.0-4)*2, pos.X, 1e-12)
	assert.InDelta(t, 2560.0/256-0.05, pos.Y, 1e-12)
	assert.InDelta(t, (1.0-4)*2, pos.Z, 1e-12)
}

func TestPositionJitterIsBounded(t *testing.T) {
	h, err := grid.NewHeightGrid(grid.Dimensions{Rows: 4, Cols: 4})
	require.NoError(t, err)
	s := &HeightSampler{Mode: SampleDirect, PixelScale: 1, Jitter: 1.25, Raster: h.Dimensions(), Heights: h}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		pos, err := s.Position(grid.Cell{X: 2, Y: 2}, rng)
		require.NoError(t, err)
		assert.LessOrEqual(t, pos.X, 1.25)
		assert.GreaterOrEqual(t, pos.X, -1.25)
		assert.LessOrEqual(t, pos.Z, 1.25)
		assert.GreaterOrEqual(t, pos.Z, -1.25)
	}
}

func TestRandomYawRange(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 2000; i++ {
		yaw := randomYaw(rng)
		require.GreaterOrEqual(t, yaw, -180.0)
		require.Less(t, yaw, 180.0)
	}
}
