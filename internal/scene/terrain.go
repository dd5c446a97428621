package scene

import (
	"errors"
	"fmt"
	"strconv"

	"forestgen/internal/forest"
)

const (
	elemTerrain    = "TerrainTransformGroup"
	elemFile       = "File"
	attrUnits      = "unitsPerPixel"
	attrHeightMap  = "heightMapId"
	attrFileID     = "fileId"
	attrFilename   = "filename"
	defaultPxScale = 1.0
)

// ErrNoTerrain is returned when the scene has no terrain node.
var ErrNoTerrain = errors.New("scene has no TerrainTransformGroup")

func (d *Document) terrain() (*Node, error) {
	t := d.Root.FindElement(elemTerrain)
	if t == nil {
		return nil, ErrNoTerrain
	}
	return t, nil
}

// PixelScale is the terrain's world units per raster pixel. A terrain
// without unitsPerPixel uses 1.
func (d *Document) PixelScale() (float64, error) {
	t, err := d.terrain()
	if err != nil {
		return 0, err
	}
	v, ok := t.Attr(attrUnits)
	if !ok {
		return defaultPxScale, nil
	}
	scale, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", attrUnits, err)
	}
	if scale <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", attrUnits, scale)
	}
	return scale, nil
}

// HeightMapRef returns the filename the terrain's heightMapId points to, as
// written in the scene.
func (d *Document) HeightMapRef() (string, error) {
	t, err := d.terrain()
	if err != nil {
		return "", fmt.Errorf("%w: %w", forest.ErrNoHeightGrid, err)
	}
	id, ok := t.Attr(attrHeightMap)
	if !ok {
		return "", forest.ErrNoHeightGrid
	}
	file := d.Root.FindAttr(elemFile, attrFileID, id)
	if file == nil {
		return "", fmt.Errorf("%w: no File with fileId %s", forest.ErrNoHeightGrid, id)
	}
	name, ok := file.Attr(attrFilename)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: File %s has no filename", forest.ErrNoHeightGrid, id)
	}
	return name, nil
}
