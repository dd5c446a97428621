package raster

import (
	"log/slog"
	"sync"

	billy "gopkg.in/src-d/go-billy.v4"

	"forestgen/internal/grid"
)

// DEM loads a height grid on first use and keeps it for the rest of the run.
type DEM struct {
	fs   billy.Filesystem
	name string
	log  *slog.Logger

	once sync.Once
	grid *grid.HeightGrid
	err  error
}

func NewDEM(fs billy.Filesystem, name string, log *slog.Logger) *DEM {
	if log == nil {
		log = slog.Default()
	}
	return &DEM{fs: fs, name: name, log: log}
}

// HeightGrid returns the cached grid, reading it on the first call.
func (d *DEM) HeightGrid() (*grid.HeightGrid, error) {
	d.once.Do(func() {
		d.log.Info("loading height map", "path", d.name)
		d.grid, d.err = ReadHeights(d.fs, d.name)
	})
	return d.grid, d.err
}

// Path returns the file the DEM reads from.
func (d *DEM) Path() string {
	return d.name
}
