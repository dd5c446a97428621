package forest

import (
	"errors"
	"fmt"
	"strconv"

	"forestgen/internal/grid"
)

// Fatal preconditions. A run stops as soon as one of these is hit.
var (
	ErrNoRegions      = errors.New("no region source data")
	ErrNoHeightGrid   = errors.New("no height-grid reference found")
	ErrEmptyCatalog   = errors.New("species catalog is empty")
	ErrNoTreeSource   = errors.New("tree source group not found")
	ErrShapeMismatch  = errors.New("entropy grid does not match raster dimensions")
	ErrInvalidVariant = errors.New("species has no usable variants")
)

// Region is one polygonal area of the terrain, identified by the value its
// cells carry in the region raster.
type Region struct {
	ID int32
	// DensityMultiplier scales the keep percentage. Nil means 1.0.
	DensityMultiplier *float64
	MinSize           int
	MaxSize           int
	// Weights maps species name to an explicit draw probability.
	Weights map[string]float64
}

// Density returns the density multiplier with the 1.0 default applied.
func (r Region) Density() float64 {
	if r.DensityMultiplier == nil {
		return 1.0
	}
	return *r.DensityMultiplier
}

// Variant is one stage of a species. Template is an index into the
// caller's template arena; the core never looks inside it.
type Variant struct {
	Stage    int
	HasStage bool
	Template int
}

// Label is the diagnostic stage label, empty for unstaged variants.
func (v Variant) Label() string {
	if !v.HasStage {
		return ""
	}
	return strconv.Itoa(v.Stage)
}

// Species is a catalog entry with its ordered variants.
type Species struct {
	Name     string
	Variants []Variant
}

// Catalog is the ordered species list for a run.
type Catalog struct {
	Species []Species
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Species)
}

// Names returns species names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.Len())
	for _, s := range c.Species {
		names = append(names, s.Name)
	}
	return names
}

func (c *Catalog) validate() error {
	if c.Len() == 0 {
		return ErrEmptyCatalog
	}
	for _, s := range c.Species {
		if len(s.Variants) == 0 {
			return fmt.Errorf("%w: %s", ErrInvalidVariant, s.Name)
		}
	}
	return nil
}

// Vec3 is a world-space position. Y is up.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Placement is one generated tree.
type Placement struct {
	Cell      grid.Cell
	Species   string
	Stage     string
	Template  int
	Position  Vec3
	RotationY float64
	NodeID    int
}

// Forest is the set of placements generated for one region.
type Forest struct {
	Number      int
	RegionID    int32
	KeepPercent float64
	Placements  []Placement
	// Counts tallies accepted placements per species and stage label
	// before thinning.
	Counts map[string]map[string]int
}

func (f *Forest) count(species, stage string) {
	if f.Counts == nil {
		f.Counts = make(map[string]map[string]int)
	}
	stages, ok := f.Counts[species]
	if !ok {
		stages = make(map[string]int)
		f.Counts[species] = stages
	}
	stages[stage]++
}
