// Package preview renders top-down images of generated forests.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"path"
	"sort"

	"github.com/hsluv/hsluv-go"

	"forestgen/internal/forest"
	"forestgen/internal/grid"
	"forestgen/internal/store"
)

// FileName is the name of the preview written by Save.
const FileName = "forests_preview.png"

const (
	previewAmbientLight = 0.35
	previewMarkerRadius = 2
)

var (
	background   = color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	regionGround = color.NRGBA{R: 58, G: 74, B: 46, A: 255}
	openGround   = color.NRGBA{R: 96, G: 92, B: 84, A: 255}
	unknownTree  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

// Palette assigns each species an evenly spaced hue of equal perceived
// lightness.
func Palette(species []string) map[string]color.NRGBA {
	out := make(map[string]color.NRGBA, len(species))
	for i, name := range species {
		hue := 360 * float64(i) / float64(len(species))
		r, g, b := hsluv.HsluvToRGB(hue, 85, 65)
		out[name] = color.NRGBA{R: channel(r), G: channel(g), B: channel(b), A: 255}
	}
	return out
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// Render draws the region raster scaled by scale pixels per cell, shading
// the ground by heights when given, and marks every placement in its
// species colour.
func Render(raster *grid.Raster, heights *grid.HeightGrid, result *forest.Result, species []string, scale int) (*image.NRGBA, error) {
	if raster == nil {
		return nil, fmt.Errorf("raster is nil")
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid preview scale: %d", scale)
	}
	dim := raster.Dimensions()
	img := image.NewNRGBA(image.Rect(0, 0, dim.Cols*scale, dim.Rows*scale))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	shade := heightShade(heights, dim)
	for x := 0; x < dim.Rows; x++ {
		for y := 0; y < dim.Cols; y++ {
			base := openGround
			if raster.At(x, y) != 0 {
				base = regionGround
			}
			col := applyLighting(base, shade(grid.Cell{X: x, Y: y}))
			draw.Draw(img, image.Rect(y*scale, x*scale, (y+1)*scale, (x+1)*scale), &image.Uniform{col}, image.Point{}, draw.Src)
		}
	}
	if result == nil {
		return img, nil
	}

	colours := Palette(species)
	placements := make([]forest.Placement, 0, result.Total())
	for _, f := range result.Forests {
		placements = append(placements, f.Placements...)
	}
	sort.Slice(placements, func(i, j int) bool {
		return placements[i].NodeID < placements[j].NodeID
	})

	radius := previewMarkerRadius * scale / 2
	if radius < 1 {
		radius = 1
	}
	for _, p := range placements {
		col, ok := colours[p.Species]
		if !ok {
			col = unknownTree
		}
		cx := p.Cell.Y*scale + scale/2
		cy := p.Cell.X*scale + scale/2
		fillPolygon(img, []image.Point{
			{X: cx, Y: cy - radius},
			{X: cx + radius, Y: cy},
			{X: cx, Y: cy + radius},
			{X: cx - radius, Y: cy},
		}, col)
	}
	return img, nil
}

// Save encodes img as PNG into dir through st.
func Save(st *store.Store, dir string, img image.Image) error {
	name := path.Join(dir, FileName)
	err := st.WriteFile(name, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

func heightShade(heights *grid.HeightGrid, dim grid.Dimensions) func(grid.Cell) float64 {
	if heights == nil {
		return func(grid.Cell) float64 { return 1 }
	}
	hdim := heights.Dimensions()
	lo, hi := uint16(math.MaxUint16), uint16(0)
	for x := 0; x < hdim.Rows; x++ {
		for y := 0; y < hdim.Cols; y++ {
			v := heights.At(x, y)
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	span := float64(hi) - float64(lo)
	return func(c grid.Cell) float64 {
		if span == 0 {
			return 1
		}
		s := grid.ScaleTo(c, dim, hdim)
		return previewAmbientLight + (1-previewAmbientLight)*(float64(heights.At(s.X, s.Y))-float64(lo))/span
	}
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = clamp(factor, 0, 1)
	return color.NRGBA{
		R: uint8(math.Round(float64(base.R) * factor)),
		G: uint8(math.Round(float64(base.G) * factor)),
		B: uint8(math.Round(float64(base.B) * factor)),
		A: 255,
	}
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func fillPolygon(img *image.NRGBA, pts []image.Point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	bounds := img.Bounds()
	minY = max(minY, bounds.Min.Y)
	maxY = min(maxY, bounds.Max.Y-1)

	xs := make([]int, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range pts {
			j := (i + 1) % len(pts)
			x1, y1 := pts[i].X, pts[i].Y
			x2, y2 := pts[j].X, pts[j].Y
			if y1 == y2 || y < min(y1, y2) || y >= max(y1, y2) {
				continue
			}
			xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xStart := max(xs[i], bounds.Min.X)
			xEnd := min(xs[i+1], bounds.Max.X-1)
			for x := xStart; x <= xEnd; x++ {
				img.SetNRGBA(x, y, col)
			}
		}
	}
}
