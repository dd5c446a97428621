package grid

import "fmt"

// Cell addresses a grid position as (row, column). Every grid in the run
// (region raster, height grid, candidate grid) shares this addressing.
type Cell struct {
	X int // row
	Y int // column
}

// Dimensions is the extent of a grid in cells.
type Dimensions struct {
	Rows int
	Cols int
}

// Contains reports whether (x, y) lies inside the grid.
func (d Dimensions) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < d.Rows && y < d.Cols
}

// Len returns the number of cells.
func (d Dimensions) Len() int {
	return d.Rows * d.Cols
}

func (d Dimensions) index(x, y int) int {
	return x*d.Cols + y
}

func (d Dimensions) validate() error {
	if d.Rows <= 0 || d.Cols <= 0 {
		return fmt.Errorf("grid dimensions must be positive: %dx%d", d.Rows, d.Cols)
	}
	return nil
}

// Raster is a grid of integer region identifiers.
type Raster struct {
	dim    Dimensions
	values []int32
}

// NewRaster allocates a zeroed raster.
func NewRaster(dim Dimensions) (*Raster, error) {
	if err := dim.validate(); err != nil {
		return nil, err
	}
	return &Raster{dim: dim, values: make([]int32, dim.Len())}, nil
}

// RasterFromRows builds a raster from row-major values. All rows must share a length.
func RasterFromRows(rows [][]int32) (*Raster, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("raster has no rows")
	}
	r, err := NewRaster(Dimensions{Rows: len(rows), Cols: len(rows[0])})
	if err != nil {
		return nil, err
	}
	for x, row := range rows {
		if len(row) != r.dim.Cols {
			return nil, fmt.Errorf("raster row %d has %d columns, want %d", x, len(row), r.dim.Cols)
		}
		copy(r.values[x*r.dim.Cols:], row)
	}
	return r, nil
}

func (r *Raster) Dimensions() Dimensions { return r.dim }

func (r *Raster) At(x, y int) int32 {
	return r.values[r.dim.index(x, y)]
}

func (r *Raster) Set(x, y int, v int32) {
	r.values[r.dim.index(x, y)] = v
}

// HeightGrid holds quantized 16-bit terrain samples.
type HeightGrid struct {
	dim    Dimensions
	values []uint16
}

func NewHeightGrid(dim Dimensions) (*HeightGrid, error) {
	if err := dim.validate(); err != nil {
		return nil, err
	}
	return &HeightGrid{dim: dim, values: make([]uint16, dim.Len())}, nil
}

func (h *HeightGrid) Dimensions() Dimensions { return h.dim }

func (h *HeightGrid) At(x, y int) uint16 {
	return h.values[h.dim.index(x, y)]
}

func (h *HeightGrid) Set(x, y int, v uint16) {
	h.values[h.dim.index(x, y)] = v
}

// Fill sets every sample to v.
func (h *HeightGrid) Fill(v uint16) {
	for i := range h.values {
		h.values[i] = v
	}
}

// Ints is a dense integer grid used for entropy values and candidate masks.
// A zero cell is empty.
type Ints struct {
	dim    Dimensions
	values []int
}

func NewInts(dim Dimensions) *Ints {
	return &Ints{dim: dim, values: make([]int, dim.Len())}
}

func (g *Ints) Dimensions() Dimensions { return g.dim }

func (g *Ints) At(x, y int) int {
	return g.values[g.dim.index(x, y)]
}

func (g *Ints) Set(x, y int, v int) {
	g.values[g.dim.index(x, y)] = v
}

// Count returns the number of nonzero cells.
func (g *Ints) Count() int {
	n := 0
	for _, v := range g.values {
		if v != 0 {
			n++
		}
	}
	return n
}

// Occupied lists nonzero cells in row-major order.
func (g *Ints) Occupied() []Cell {
	cells := make([]Cell, 0, g.Count())
	for x := 0; x < g.dim.Rows; x++ {
		for y := 0; y < g.dim.Cols; y++ {
			if g.At(x, y) != 0 {
				cells = append(cells, Cell{X: x, Y: y})
			}
		}
	}
	return cells
}

// ScaleTo maps a cell of src onto the proportionally equivalent cell of dst.
// Identical dimensions map one to one.
func ScaleTo(c Cell, src, dst Dimensions) Cell {
	if src == dst {
		return c
	}
	return Cell{
		X: floorDiv(c.X*dst.Rows, src.Rows),
		Y: floorDiv(c.Y*dst.Cols, src.Cols),
	}
}

func floorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
