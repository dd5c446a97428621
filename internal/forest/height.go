package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"forestgen/internal/grid"
)

// HeightScale converts a 16-bit DEM sample into world units.
const HeightScale = (1 << 16) / (1 << 8)

// SamplingMode selects how a raw height is read for a cell.
type SamplingMode string

const (
	// SampleDirect reads the single DEM cell under the candidate.
	SampleDirect SamplingMode = "direct"
	// SampleLowestPair averages the two lowest samples of the window around
	// the candidate, which keeps trunks from floating on slopes.
	SampleLowestPair SamplingMode = "lowest-pair"
)

// HeightSource hands out the run's height grid. Implementations may load it
// lazily on first use.
type HeightSource interface {
	HeightGrid() (*grid.HeightGrid, error)
}

// StaticHeight is a HeightSource over an already loaded grid.
type StaticHeight struct {
	Grid *grid.HeightGrid
}

func (s StaticHeight) HeightGrid() (*grid.HeightGrid, error) {
	if s.Grid == nil {
		return nil, ErrNoHeightGrid
	}
	return s.Grid, nil
}

// HeightSampler turns candidate cells into world positions.
type HeightSampler struct {
	Mode       SamplingMode
	Radius     int
	PixelScale float64
	ZOffset    float64
	Jitter     float64
	// Raster is the extent of the region raster; planar positions are
	// centred on it.
	Raster  grid.Dimensions
	Heights *grid.HeightGrid
}

// RawHeight returns the DEM value used for cell, addressed proportionally
// when the DEM and raster differ in size.
func (s *HeightSampler) RawHeight(c grid.Cell) (float64, error) {
	if s.Heights == nil {
		return 0, ErrNoHeightGrid
	}
	dim := s.Heights.Dimensions()
	at := grid.ScaleTo(c, s.Raster, dim)
	switch s.Mode {
	case SampleDirect, "":
		at.X = clampInt(at.X, 0, dim.Rows-1)
		at.Y = clampInt(at.Y, 0, dim.Cols-1)
		return float64(s.Heights.At(at.X, at.Y)), nil
	case SampleLowestPair:
		radius := s.Radius
		if radius < 1 {
			return 0, fmt.Errorf("lowest-pair sampling needs a radius of at least 1, got %d", radius)
		}
		samples := make([]int, 0, (2*radius+1)*(2*radius+1))
		for x := at.X - radius; x <= at.X+radius; x++ {
			for y := at.Y - radius; y <= at.Y+radius; y++ {
				sx := clampInt(x, 0, dim.Rows-1)
				sy := clampInt(y, 0, dim.Cols-1)
				samples = append(samples, int(s.Heights.At(sx, sy)))
			}
		}
		sort.Ints(samples)
		return float64(samples[0]+samples[1]) / 2, nil
	default:
		return 0, fmt.Errorf("unknown height sampling mode %q", s.Mode)
	}
}

// WorldHeight converts a raw DEM sample to world units.
func (s *HeightSampler) WorldHeight(raw float64) float64 {
	return raw/HeightScale + s.ZOffset
}

// Position computes the jittered world position of cell.
func (s *HeightSampler) Position(c grid.Cell, rng *rand.Rand) (Vec3, error) {
	raw, err := s.RawHeight(c)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{
		X: (float64(c.Y)-float64(s.Raster.Rows)/2)*s.PixelScale + s.jitter(rng),
		Y: s.WorldHeight(raw),
		Z: (float64(c.X)-float64(s.Raster.Cols)/2)*s.PixelScale + s.jitter(rng),
	}, nil
}

func (s *HeightSampler) jitter(rng *rand.Rand) float64 {
	if s.Jitter <= 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * math.Abs(s.Jitter)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
