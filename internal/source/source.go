package source

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	billy "gopkg.in/src-d/go-billy.v4"

	"forestgen/internal/forest"
)

// Attribute names every region record carries.
const (
	FieldID      = "id"
	FieldDensity = "densMult"
	FieldMinSize = "minSize"
	FieldMaxSize = "maxSize"
)

// Record is one row of region metadata, keyed by attribute name. Values are
// kept as text until BuildRegions types them.
type Record struct {
	Fields map[string]string
}

// WeightColumns maps a species name to the attribute holding its weight.
type WeightColumns map[string]string

// Columns lists every attribute a region record may carry, in a stable order.
func (w WeightColumns) Columns(species []string) []string {
	cols := []string{FieldID, FieldDensity, FieldMinSize, FieldMaxSize}
	for _, name := range species {
		if col, ok := w[name]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// Format picks the region reader.
type Format string

const (
	FormatAuto      Format = "auto"
	FormatShapefile Format = "shp"
	FormatXML       Format = "xml"
)

// Resolve turns FormatAuto into a concrete format based on the file extension.
func (f Format) Resolve(path string) (Format, error) {
	if f != FormatAuto && f != "" {
		return f, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp", ".dbf", ".shx":
		return FormatShapefile, nil
	case ".xml":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("cannot infer region format from %q: a shp or xml file must be provided", path)
	}
}

// Read loads region records in source order. Shapefiles are opened from the
// local disk below fs.Root(); XML metadata is read through fs.
func Read(fs billy.Filesystem, path string, format Format, columns []string) ([]Record, error) {
	resolved, err := format.Resolve(path)
	if err != nil {
		return nil, err
	}
	switch resolved {
	case FormatShapefile:
		return ReadShapefile(filepath.Join(fs.Root(), path), columns)
	case FormatXML:
		f, err := fs.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open region metadata: %w", err)
		}
		defer f.Close()
		return ReadXML(f)
	default:
		return nil, fmt.Errorf("unsupported region format %q", resolved)
	}
}

// BuildRegions types raw records into regions. The weight map of each region
// only holds species whose column is present and non-empty.
func BuildRegions(records []Record, weights WeightColumns, log *slog.Logger) ([]forest.Region, error) {
	if len(records) == 0 {
		return nil, forest.ErrNoRegions
	}
	regions := make([]forest.Region, 0, len(records))
	for i, rec := range records {
		region, err := buildRegion(rec, weights, log)
		if err != nil {
			return nil, fmt.Errorf("region record %d: %w", i, err)
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func buildRegion(rec Record, weights WeightColumns, log *slog.Logger) (forest.Region, error) {
	raw, ok := rec.Fields[FieldID]
	if !ok || strings.TrimSpace(raw) == "" {
		return forest.Region{}, errors.New("missing id")
	}
	id, err := parseInt(raw)
	if err != nil {
		return forest.Region{}, fmt.Errorf("id: %w", err)
	}
	if id < math.MinInt32 || id > math.MaxInt32 {
		return forest.Region{}, fmt.Errorf("id %d does not fit a region raster value", id)
	}
	region := forest.Region{ID: int32(id)}

	if v := strings.TrimSpace(rec.Fields[FieldDensity]); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return forest.Region{}, fmt.Errorf("%s: %w", FieldDensity, err)
		}
		// Zero reads as absent, like an empty numeric dbf cell.
		if d != 0 {
			region.DensityMultiplier = &d
		}
	}
	if region.MinSize, err = optionalInt(rec.Fields[FieldMinSize], 0); err != nil {
		return forest.Region{}, fmt.Errorf("%s: %w", FieldMinSize, err)
	}
	if region.MaxSize, err = optionalInt(rec.Fields[FieldMaxSize], math.MaxInt32); err != nil {
		return forest.Region{}, fmt.Errorf("%s: %w", FieldMaxSize, err)
	}

	for species, col := range weights {
		v, ok := rec.Fields[col]
		if !ok {
			log.Debug("missing tree weight attribute", "region", region.ID, "attribute", col)
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return forest.Region{}, fmt.Errorf("%s: %w", col, err)
		}
		if region.Weights == nil {
			region.Weights = make(map[string]float64)
		}
		region.Weights[species] = w
	}
	return region, nil
}

func optionalInt(v string, def int) (int, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return parseInt(v)
}

// parseInt accepts integral floats such as "3.0", which is how dbf numeric
// columns often come back.
func parseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is out of range", v)
	}
	return int(f), nil
}
