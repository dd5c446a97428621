// Package weights splits an info-layer image into random weight layers.
package weights

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand"

	"forestgen/internal/store"
)

// ErrNoLayers is returned when fewer than one layer is requested.
var ErrNoLayers = errors.New("at least one weight layer is required")

// LayerName is the file written for layer index (1-based).
func LayerName(prefix string, index int) string {
	return fmt.Sprintf("%s0%d_weight.png", prefix, index)
}

// Split assigns every pixel of img to one of n layers at random. Each layer
// keeps the source value on its own pixels and is zero elsewhere, so the
// layers add up to the source.
func Split(img image.Image, n int, rng *rand.Rand) ([]image.Image, error) {
	if n < 1 {
		return nil, ErrNoLayers
	}
	b := img.Bounds()
	wide := false
	if _, ok := img.(*image.Gray16); ok {
		wide = true
	}

	layers := make([]image.Image, n)
	gray := make([]*image.Gray, n)
	gray16 := make([]*image.Gray16, n)
	for i := range layers {
		if wide {
			gray16[i] = image.NewGray16(b)
			layers[i] = gray16[i]
		} else {
			gray[i] = image.NewGray(b)
			layers[i] = gray[i]
		}
	}

	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			i := rng.Intn(n)
			if wide {
				gray16[i].SetGray16(px, py, color.Gray16Model.Convert(img.At(px, py)).(color.Gray16))
			} else {
				gray[i].SetGray(px, py, color.GrayModel.Convert(img.At(px, py)).(color.Gray))
			}
		}
	}
	return layers, nil
}

// Writer stores weight layers next to each other under a common prefix.
type Writer struct {
	Store  *store.Store
	Prefix string
	log    *slog.Logger
}

func NewWriter(st *store.Store, prefix string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{Store: st, Prefix: prefix, log: log}
}

// WriteLayers writes layers as <prefix>01_weight.png, <prefix>02_weight.png
// and so on, returning the names written.
func (w *Writer) WriteLayers(layers []image.Image) ([]string, error) {
	names := make([]string, 0, len(layers))
	for i, layer := range layers {
		name := LayerName(w.Prefix, i+1)
		if err := w.Store.WriteFile(name, encoder(layer)); err != nil {
			return names, fmt.Errorf("write weight layer %d: %w", i+1, err)
		}
		w.log.Info("wrote weight layer", "file", name)
		names = append(names, name)
	}
	return names, nil
}

// Seed writes img unchanged as layers 1 through n-1, skipping targets that
// already exist unless the store may overwrite them.
func (w *Writer) Seed(img image.Image, n int) ([]string, error) {
	if n < 1 {
		return nil, ErrNoLayers
	}
	var names []string
	for i := 1; i < n; i++ {
		name := LayerName(w.Prefix, i)
		err := w.Store.WriteFile(name, encoder(img))
		if errors.Is(err, store.ErrExists) {
			w.log.Info("keeping existing weight layer", "file", name)
			continue
		}
		if err != nil {
			return names, fmt.Errorf("seed weight layer %d: %w", i, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func encoder(img image.Image) func(io.Writer) error {
	return func(w io.Writer) error {
		return png.Encode(w, img)
	}
}
