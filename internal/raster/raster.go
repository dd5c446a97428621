package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	billy "gopkg.in/src-d/go-billy.v4"

	"forestgen/internal/grid"
)

// Decode reads a PNG or TIFF image from fs.
func Decode(fs billy.Filesystem, name string) (image.Image, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode raster %s: %w", name, err)
	}
	return img, nil
}

// ReadRegions loads a region id raster. Paletted images yield palette
// indices, grayscale images their gray level; anything else is converted
// to 16-bit gray.
func ReadRegions(fs billy.Filesystem, name string) (*grid.Raster, error) {
	img, err := Decode(fs, name)
	if err != nil {
		return nil, err
	}
	return RegionsFromImage(img)
}

// RegionsFromImage converts img into a region raster. Image rows become grid
// rows.
func RegionsFromImage(img image.Image) (*grid.Raster, error) {
	b := img.Bounds()
	r, err := grid.NewRaster(grid.Dimensions{Rows: b.Dy(), Cols: b.Dx()})
	if err != nil {
		return nil, err
	}
	for x := 0; x < b.Dy(); x++ {
		for y := 0; y < b.Dx(); y++ {
			r.Set(x, y, int32(sampleAt(img, b.Min.X+y, b.Min.Y+x)))
		}
	}
	return r, nil
}

// ReadHeights loads a 16-bit DEM. 8-bit sources keep their raw value.
func ReadHeights(fs billy.Filesystem, name string) (*grid.HeightGrid, error) {
	img, err := Decode(fs, name)
	if err != nil {
		return nil, err
	}
	return HeightsFromImage(img)
}

// HeightsFromImage converts img into a height grid.
func HeightsFromImage(img image.Image) (*grid.HeightGrid, error) {
	b := img.Bounds()
	h, err := grid.NewHeightGrid(grid.Dimensions{Rows: b.Dy(), Cols: b.Dx()})
	if err != nil {
		return nil, err
	}
	for x := 0; x < b.Dy(); x++ {
		for y := 0; y < b.Dx(); y++ {
			h.Set(x, y, uint16(sampleAt(img, b.Min.X+y, b.Min.Y+x)))
		}
	}
	return h, nil
}

func sampleAt(img image.Image, px, py int) uint32 {
	switch m := img.(type) {
	case *image.Gray:
		return uint32(m.GrayAt(px, py).Y)
	case *image.Gray16:
		return uint32(m.Gray16At(px, py).Y)
	case *image.Paletted:
		return uint32(m.ColorIndexAt(px, py))
	default:
		return uint32(color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y)
	}
}
