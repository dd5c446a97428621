package forest

import "math/rand"

// ResolveVariant picks the stage of species allowed by the region's size
// range. A lone unstaged variant is always used. ok is false when no stage
// fits and the candidate must be dropped.
func ResolveVariant(species Species, region Region, rng *rand.Rand) (Variant, bool) {
	if len(species.Variants) == 1 && !species.Variants[0].HasStage {
		return species.Variants[0], true
	}

	eligible := make([]Variant, 0, len(species.Variants))
	for _, v := range species.Variants {
		if !v.HasStage {
			continue
		}
		if v.Stage >= region.MinSize && v.Stage <= region.MaxSize {
			eligible = append(eligible, v)
		}
	}
	if len(eligible) == 0 {
		return Variant{}, false
	}
	return eligible[rng.Intn(len(eligible))], true
}
