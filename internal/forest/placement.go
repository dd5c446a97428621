package forest

import (
	"math"
	"math/rand"

	"forestgen/internal/grid"
)

// Counter hands out node identifiers. One counter is shared by every region
// of a run.
type Counter struct {
	next int
}

func NewCounter(start int) *Counter {
	return &Counter{next: start}
}

// Next returns the current identifier and advances the counter.
func (c *Counter) Next() int {
	id := c.next
	c.next++
	return id
}

// Peek returns the identifier the next call to Next will hand out.
func (c *Counter) Peek() int {
	return c.next
}

// Assembler stamps accepted candidates into placements.
type Assembler struct {
	Sampler *HeightSampler
	Counter *Counter
}

// Assemble builds the placement for cell and appends it to forest. The
// counter only advances when the placement is accepted.
func (a *Assembler) Assemble(forest *Forest, c grid.Cell, species Species, variant Variant, rng *rand.Rand) error {
	pos, err := a.Sampler.Position(c, rng)
	if err != nil {
		return err
	}
	forest.Placements = append(forest.Placements, Placement{
		Cell:      c,
		Species:   species.Name,
		Stage:     variant.Label(),
		Template:  variant.Template,
		Position:  pos,
		RotationY: randomYaw(rng),
		NodeID:    a.Counter.Next(),
	})
	forest.count(species.Name, variant.Label())
	return nil
}

// randomYaw is uniform in [-180, 180), rounded to hundredths of a degree.
func randomYaw(rng *rand.Rand) float64 {
	yaw := math.Round(rng.Float64()*36000) / 100
	if yaw >= 360 {
		yaw = 0
	}
	return yaw - 180
}
