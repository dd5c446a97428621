package forest

import (
	"math/rand"

	"forestgen/internal/grid"
)

// NewEntropyGrid draws the per-run grid of raw species indices, uniform in
// [0, numSpecies-1]. A single-species catalog draws from [0, 1] so that the
// zero cells still thin the candidate set the same way.
func NewEntropyGrid(dim grid.Dimensions, numSpecies int, rng *rand.Rand) *grid.Ints {
	span := numSpecies - 1
	if span < 1 {
		span = 1
	}
	g := grid.NewInts(dim)
	for x := 0; x < dim.Rows; x++ {
		for y := 0; y < dim.Cols; y++ {
			g.Set(x, y, rng.Intn(span+1))
		}
	}
	return g
}

// BuildMask keeps the entropy value of every cell owned by regionID and
// zeroes everything else.
func BuildMask(raster *grid.Raster, regionID int32, entropy *grid.Ints) (*grid.Ints, error) {
	dim := raster.Dimensions()
	if entropy.Dimensions() != dim {
		return nil, ErrShapeMismatch
	}
	mask := grid.NewInts(dim)
	for x := 0; x < dim.Rows; x++ {
		for y := 0; y < dim.Cols; y++ {
			if raster.At(x, y) == regionID {
				mask.Set(x, y, entropy.At(x, y))
			}
		}
	}
	return mask, nil
}

// PruneNeighbors drops nonzero cells whose (2*distance+1)² window holds no
// more than threshold nonzero cells, the cell itself included. Cells past the
// grid edge count as empty.
func PruneNeighbors(cells *grid.Ints, distance, threshold int) *grid.Ints {
	dim := cells.Dimensions()
	out := grid.NewInts(dim)
	for x := 0; x < dim.Rows; x++ {
		for y := 0; y < dim.Cols; y++ {
			v := cells.At(x, y)
			if v == 0 {
				continue
			}
			if neighborCount(cells, x, y, distance, threshold) > threshold {
				out.Set(x, y, v)
			}
		}
	}
	return out
}

// neighborCount stops counting once the result exceeds limit.
func neighborCount(cells *grid.Ints, x, y, distance, limit int) int {
	dim := cells.Dimensions()
	count := 0
	for xd := x - distance; xd <= x+distance; xd++ {
		if count > limit {
			break
		}
		for yd := y - distance; yd <= y+distance; yd++ {
			if !dim.Contains(xd, yd) {
				continue
			}
			if cells.At(xd, yd) != 0 {
				count++
			}
		}
	}
	return count
}
