package forest

import (
	"math"
	"math/rand"
)

// DefaultChunkSize is the thinning chunk length.
const DefaultChunkSize = 100

// KeepCount is the number of placements a chunk of n keeps at keepPercent:
// max(1, floor(n*keepPercent/100)), capped at n. Empty chunks keep nothing.
func KeepCount(n int, keepPercent float64) int {
	if n <= 0 {
		return 0
	}
	keep := int(math.Floor(float64(n) * keepPercent / 100))
	if keep < 1 {
		keep = 1
	}
	if keep > n {
		keep = n
	}
	return keep
}

// Thin reduces placements chunk by chunk, keeping a uniform random sample
// of each chunk. The result only approximates keepPercent; every nonempty
// chunk keeps at least one placement. Order inside a chunk is not kept.
func Thin(placements []Placement, keepPercent float64, chunkSize int, rng *rand.Rand) []Placement {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	out := make([]Placement, 0, len(placements))
	for start := 0; start < len(placements); start += chunkSize {
		end := start + chunkSize
		if end > len(placements) {
			end = len(placements)
		}
		out = append(out, sample(placements[start:end], KeepCount(end-start, keepPercent), rng)...)
	}
	return out
}

// sample draws k distinct elements with a partial Fisher-Yates shuffle over
// a copy, leaving chunk untouched.
func sample(chunk []Placement, k int, rng *rand.Rand) []Placement {
	pool := make([]Placement, len(chunk))
	copy(pool, chunk)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
