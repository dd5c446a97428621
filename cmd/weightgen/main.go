package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"forestgen/internal/raster"
	"forestgen/internal/store"
	"forestgen/internal/weights"
)

func main() {
	var (
		input     string
		output    string
		layers    int
		seed      int64
		overwrite bool
		copyOnly  bool
	)
	flag.StringVar(&input, "in", "blank.png", "source info-layer image")
	flag.StringVar(&output, "out", "", "output prefix, e.g. maps/map01/animalMud")
	flag.IntVar(&layers, "layers", 4, "number of weight layers")
	flag.Int64Var(&seed, "seed", 0, "random seed, 0 seeds from the clock")
	flag.BoolVar(&overwrite, "overwrite", false, "replace existing layers")
	flag.BoolVar(&copyOnly, "copy", false, "copy the source into layers 1..n-1 instead of splitting it")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if output == "" {
		logger.Error("output prefix required")
		os.Exit(2)
	}
	if err := run(input, output, layers, seed, overwrite, copyOnly, logger); err != nil {
		logger.Error("generate weight layers", "error", err)
		os.Exit(1)
	}
}

func run(input, output string, layers int, seed int64, overwrite, copyOnly bool, log *slog.Logger) error {
	fs, err := store.NewLocal()
	if err != nil {
		return err
	}

	img, err := raster.Decode(fs, fs.Path(input))
	if err != nil {
		return err
	}
	w := weights.NewWriter(store.New(fs, overwrite), fs.Path(output), log)

	if copyOnly {
		_, err := w.Seed(img, layers)
		return err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	split, err := weights.Split(img, layers, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	_, err = w.WriteLayers(split)
	return err
}
