package forest

import (
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// weightSumTolerance absorbs decimal representation error in explicit
// weights such as 0.37+0.53+0.07+0.03. It does not renormalize anything.
const weightSumTolerance = 1e-9

// DefaultProbabilities is the fallback distribution: reverse(logspace(0, 1, n))
// normalized to sum to one, so earlier species are favoured.
func DefaultProbabilities(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	p := floats.LogSpan(make([]float64, n), 1, 10)
	slices.Reverse(p)
	floats.Scale(1/floats.Sum(p), p)
	return p
}

// Probabilities resolves the species distribution for region. Explicit
// weights are used only when every species has one and they sum to one.
// The second result reports whether the explicit weights were used.
func Probabilities(region Region, catalog *Catalog, log *slog.Logger) ([]float64, bool) {
	n := catalog.Len()
	if len(region.Weights) == 0 {
		return DefaultProbabilities(n), false
	}

	explicit := make([]float64, 0, n)
	complete := true
	for _, species := range catalog.Species {
		w, ok := region.Weights[species.Name]
		if !ok {
			log.Warn("missing species weight", "region", region.ID, "species", species.Name)
			complete = false
			continue
		}
		explicit = append(explicit, w)
	}
	if !complete {
		return DefaultProbabilities(n), false
	}
	for _, w := range explicit {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			log.Warn("invalid species weight", "region", region.ID, "weight", w)
			return DefaultProbabilities(n), false
		}
	}
	if sum := floats.Sum(explicit); !(math.Abs(sum-1) <= weightSumTolerance) {
		log.Warn("species weights do not sum to 1.0", "region", region.ID, "sum", sum)
		return DefaultProbabilities(n), false
	}
	return explicit, true
}

// Sampler draws species indices from a fixed distribution.
type Sampler struct {
	cumulative []float64
}

// NewSampler prepares p for repeated draws.
func NewSampler(p []float64) *Sampler {
	return &Sampler{cumulative: floats.CumSum(make([]float64, len(p)), p)}
}

// Draw returns one index, with replacement.
func (s *Sampler) Draw(rng *rand.Rand) int {
	if len(s.cumulative) == 0 {
		return -1
	}
	total := s.cumulative[len(s.cumulative)-1]
	target := rng.Float64() * total
	i := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] > target })
	if i >= len(s.cumulative) {
		i = len(s.cumulative) - 1
	}
	return i
}

// DrawSpecies draws one species index per candidate.
func DrawSpecies(p []float64, count int, rng *rand.Rand) []int {
	s := NewSampler(p)
	out := make([]int, count)
	for i := range out {
		out[i] = s.Draw(rng)
	}
	return out
}
