package forest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"forestgen/internal/config"
	"forestgen/internal/grid"
)

// Inputs is everything a run reads. All of it is treated as read-only.
type Inputs struct {
	Raster     *grid.Raster
	Heights    HeightSource
	PixelScale float64
	Catalog    *Catalog
	Regions    []Region
}

// Result is the output of a run.
type Result struct {
	Forests []Forest
	// NextID is the first identifier no placement used.
	NextID int
}

// Total returns the number of placements across all forests.
func (r *Result) Total() int {
	n := 0
	for _, f := range r.Forests {
		n += len(f.Placements)
	}
	return n
}

// Generator drives the placement pipeline region by region.
type Generator struct {
	cfg config.GenerationConfig
	log *slog.Logger
	rng *rand.Rand
}

// NewGenerator seeds the random source from cfg.Seed, or from the clock
// when no seed is configured.
func NewGenerator(cfg config.GenerationConfig, log *slog.Logger) *Generator {
	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		cfg: cfg,
		log: log,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// RunState is the mutable state shared by every region of one run.
type RunState struct {
	in      Inputs
	counter *Counter
	entropy *grid.Ints
	heights *grid.HeightGrid
}

// NewRunState validates in and draws the run's entropy grid.
func (g *Generator) NewRunState(in Inputs) (*RunState, error) {
	if in.Raster == nil {
		return nil, fmt.Errorf("region raster is missing")
	}
	if in.Heights == nil {
		return nil, ErrNoHeightGrid
	}
	if err := in.Catalog.validate(); err != nil {
		return nil, err
	}
	return &RunState{
		in:      in,
		counter: NewCounter(g.cfg.NodeIDStart),
		entropy: NewEntropyGrid(in.Raster.Dimensions(), in.Catalog.Len(), g.rng),
	}, nil
}

// NextID reports the next unused identifier of the run.
func (s *RunState) NextID() int {
	return s.counter.Peek()
}

func (s *RunState) heightGrid() (*grid.HeightGrid, error) {
	if s.heights != nil {
		return s.heights, nil
	}
	h, err := s.in.Heights.HeightGrid()
	if err != nil {
		return nil, err
	}
	s.heights = h
	return h, nil
}

// Generate runs every selected region in source order.
func (g *Generator) Generate(ctx context.Context, in Inputs) (*Result, error) {
	if len(in.Regions) == 0 {
		return nil, ErrNoRegions
	}
	state, err := g.NewRunState(in)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	number := 0
	for _, region := range in.Regions {
		if len(g.cfg.TargetIDs) > 0 && !slices.Contains(g.cfg.TargetIDs, region.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		number++
		forest, err := g.GenerateRegion(state, region, number, g.KeepPercent(region))
		if err != nil {
			return nil, fmt.Errorf("forest %d (region %d): %w", number, region.ID, err)
		}
		result.Forests = append(result.Forests, forest)
	}
	result.NextID = state.NextID()
	g.log.Info("generation complete", "forests", len(result.Forests), "trees", result.Total())
	return result, nil
}

// KeepPercent draws the thinning target for region:
// uniformInt(keepMin, keepMax) * density * globalDensityFactor.
func (g *Generator) KeepPercent(region Region) float64 {
	lo, hi := g.cfg.KeepMin, g.cfg.KeepMax
	if hi < lo {
		lo, hi = hi, lo
	}
	base := lo + g.rng.Intn(hi-lo+1)
	return float64(base) * region.Density() * g.cfg.GlobalDensityFactor
}

// GenerateRegion runs masking through thinning for one region.
func (g *Generator) GenerateRegion(state *RunState, region Region, number int, keepPercent float64) (Forest, error) {
	log := g.log.With("forest", number, "region", region.ID)
	log.Info("processing forest")

	in := state.in
	mask, err := BuildMask(in.Raster, region.ID, state.entropy)
	if err != nil {
		return Forest{}, err
	}
	pruned := PruneNeighbors(mask, g.cfg.PruneDistance, g.cfg.PruneThreshold)
	cells := pruned.Occupied()
	log.Debug("pruned candidates", "masked", mask.Count(), "kept", len(cells))

	forest := Forest{Number: number, RegionID: region.ID, KeepPercent: keepPercent}
	if len(cells) == 0 {
		log.Info("forest has no candidates")
		return forest, nil
	}

	heights, err := state.heightGrid()
	if err != nil {
		return Forest{}, err
	}
	assembler := &Assembler{
		Sampler: &HeightSampler{
			Mode:       SamplingMode(g.cfg.HeightSampling),
			Radius:     g.cfg.HeightRadius,
			PixelScale: in.PixelScale,
			ZOffset:    g.cfg.ZOffset,
			Jitter:     g.cfg.Jitter,
			Raster:     in.Raster.Dimensions(),
			Heights:    heights,
		},
		Counter: state.counter,
	}

	probs, explicit := Probabilities(region, in.Catalog, log)
	attrs := make([]any, 0, 2*len(probs)+2)
	attrs = append(attrs, "explicit", explicit)
	for i, p := range probs {
		attrs = append(attrs, in.Catalog.Species[i].Name, fmt.Sprintf("%.2f%%", p*100))
	}
	log.Info("probabilities", attrs...)

	draws := DrawSpecies(probs, len(cells), g.rng)
	dropped := 0
	for i, cell := range cells {
		species := in.Catalog.Species[draws[i]]
		variant, ok := ResolveVariant(species, region, g.rng)
		if !ok {
			dropped++
			continue
		}
		if err := assembler.Assemble(&forest, cell, species, variant, g.rng); err != nil {
			return Forest{}, err
		}
	}
	if dropped > 0 {
		log.Warn("no tree of permitted size", "dropped", dropped, "minSize", region.MinSize, "maxSize", region.MaxSize)
	}

	before := len(forest.Placements)
	forest.Placements = Thin(forest.Placements, keepPercent, g.cfg.ThinChunkSize, g.rng)
	log.Info("forest generated", "trees", before, "kept", len(forest.Placements), "keepPercent", keepPercent, "counts", forest.Counts)
	return forest, nil
}
