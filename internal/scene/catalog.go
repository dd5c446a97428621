package scene

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"forestgen/internal/config"
	"forestgen/internal/forest"
	"forestgen/internal/source"
)

// TreeCatalog is the species catalog read from the tree source group.
// Variant templates index into Templates.
type TreeCatalog struct {
	Catalog   *forest.Catalog
	Templates []*Node
	// Weights maps species names to their region weight attribute.
	Weights source.WeightColumns
}

// Catalog builds the species catalog from the group named treeSource. Each
// child group is a species; its children are the stage variants, named
// "<species><stage infix><n>". A species with a single child is unstaged.
func (d *Document) Catalog(treeSource string, naming config.NamingConfig, log *slog.Logger) (*TreeCatalog, error) {
	src := d.Root.FindNamed(treeSource)
	if src == nil {
		return nil, fmt.Errorf("%w: %q", forest.ErrNoTreeSource, treeSource)
	}

	tc := &TreeCatalog{
		Catalog: &forest.Catalog{},
		Weights: make(source.WeightColumns),
	}
	for _, group := range src.Elements(ElemTransformGroup) {
		label := strings.TrimPrefix(group.Label(), naming.SpeciesPrefix)
		if label == "" {
			log.Warn("skipping unnamed species group", "source", treeSource)
			continue
		}
		species := forest.Species{Name: strings.ToLower(label)}

		if len(group.Children) == 1 {
			species.Variants = append(species.Variants, forest.Variant{Template: tc.add(group.Children[0])})
		} else {
			for _, child := range group.Children {
				stage, ok := stageOf(child.Label(), naming.StageInfix)
				if !ok {
					log.Warn("skipping variant without stage number", "species", species.Name, "node", child.Label())
					continue
				}
				species.Variants = append(species.Variants, forest.Variant{
					Stage:    stage,
					HasStage: true,
					Template: tc.add(child),
				})
			}
		}
		if len(species.Variants) == 0 {
			return nil, fmt.Errorf("%w: %s", forest.ErrInvalidVariant, species.Name)
		}

		tc.Catalog.Species = append(tc.Catalog.Species, species)
		tc.Weights[species.Name] = naming.WeightPrefix + label
	}
	if tc.Catalog.Len() == 0 {
		return nil, fmt.Errorf("%w: %q has no species groups", forest.ErrEmptyCatalog, treeSource)
	}
	return tc, nil
}

func (tc *TreeCatalog) add(n *Node) int {
	tc.Templates = append(tc.Templates, n)
	return len(tc.Templates) - 1
}

func stageOf(label, infix string) (int, bool) {
	i := strings.LastIndex(label, infix)
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(label[i+len(infix):])
	if err != nil {
		return 0, false
	}
	return n, true
}
