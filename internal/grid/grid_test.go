package grid

import "testing"

func TestRasterFromRows(t *testing.T) {
	r, err := RasterFromRows([][]int32{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("RasterFromRows: %v", err)
	}
	if got := r.Dimensions(); got != (Dimensions{Rows: 2, Cols: 3}) {
		t.Fatalf("dimensions = %+v", got)
	}
	if got := r.At(1, 2); got != 6 {
		t.Fatalf("At(1,2) = %d, want 6", got)
	}

	if _, err := RasterFromRows([][]int32{{1, 2}, {3}}); err == nil {
		t.Fatalf("expected error for ragged rows")
	}
	if _, err := RasterFromRows(nil); err == nil {
		t.Fatalf("expected error for empty raster")
	}
	if _, err := NewHeightGrid(Dimensions{Rows: 0, Cols: 4}); err == nil {
		t.Fatalf("expected error for empty height grid")
	}
}

func TestOccupiedIsRowMajor(t *testing.T) {
	g := NewInts(Dimensions{Rows: 3, Cols: 3})
	g.Set(2, 0, 1)
	g.Set(0, 2, 4)
	g.Set(1, 1, -1)

	cells := g.Occupied()
	want := []Cell{{X: 0, Y: 2}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	if len(cells) != len(want) {
		t.Fatalf("Occupied() = %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("Occupied()[%d] = %v, want %v", i, cells[i], want[i])
		}
	}
	if g.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", g.Count())
	}
}

func TestScaleTo(t *testing.T) {
	raster := Dimensions{Rows: 4, Cols: 8}
	dem := Dimensions{Rows: 8, Cols: 4}

	cases := []struct {
		in, want Cell
	}{
		{Cell{X: 0, Y: 0}, Cell{X: 0, Y: 0}},
		{Cell{X: 1, Y: 3}, Cell{X: 2, Y: 1}},
		{Cell{X: 3, Y: 7}, Cell{X: 6, Y: 3}},
	}
	for _, tc := range cases {
		if got := ScaleTo(tc.in, raster, dem); got != tc.want {
			t.Errorf("ScaleTo(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if got := ScaleTo(Cell{X: 2, Y: 5}, raster, raster); got != (Cell{X: 2, Y: 5}) {
		t.Errorf("identical dimensions should map one to one, got %v", got)
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ value, size, want int }{
		{7, 2, 3},
		{-1, 2, -1},
		{-4, 2, -2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := floorDiv(tc.value, tc.size); got != tc.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tc.value, tc.size, got, tc.want)
		}
	}
}

func TestFill(t *testing.T) {
	h, err := NewHeightGrid(Dimensions{Rows: 2, Cols: 2})
	if err != nil {
		t.Fatalf("NewHeightGrid: %v", err)
	}
	h.Fill(300)
	if h.At(1, 1) != 300 || h.At(0, 0) != 300 {
		t.Fatalf("Fill did not set every sample")
	}
}
