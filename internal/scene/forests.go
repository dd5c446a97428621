package scene

import (
	"fmt"
	"strconv"

	"forestgen/internal/config"
	"forestgen/internal/forest"
)

// InsertForests replaces the groups under the output container with one
// group per forest. Placements clone their variant template and keep the
// node id the generator gave them. Forest groups, a newly created container
// and nested nodes of the clones are numbered from result.NextID on, in that
// order. It returns the next unused node id.
func (d *Document) InsertForests(result *forest.Result, templates []*Node, naming config.NamingConfig) (int, error) {
	ids := forest.NewCounter(result.NextID)

	groups := make([]*Node, 0, len(result.Forests))
	var clones []*Node
	for _, f := range result.Forests {
		group := NewNode(ElemTransformGroup,
			AttrName, naming.ForestPrefix+strconv.Itoa(f.Number),
			AttrNodeID, strconv.Itoa(ids.Next()),
		)
		for _, p := range f.Placements {
			if p.Template < 0 || p.Template >= len(templates) {
				return 0, fmt.Errorf("forest %d: placement %d references unknown template %d", f.Number, p.NodeID, p.Template)
			}
			tree := templates[p.Template].Clone()
			tree.SetAttr(AttrNodeID, strconv.Itoa(p.NodeID))
			tree.SetAttr(AttrTranslation, Translation(p.Position))
			tree.SetAttr(AttrRotation, Rotation(p.RotationY))
			group.Children = append(group.Children, tree)
			clones = append(clones, tree)
		}
		groups = append(groups, group)
	}

	container := d.Root.FindNamed(naming.OutputContainer)
	if container == nil {
		container = NewNode(ElemTransformGroup,
			AttrName, naming.OutputContainer,
			AttrNodeID, strconv.Itoa(ids.Next()),
		)
		parent := d.Root.FindElement("Scene")
		if parent == nil {
			parent = d.Root
		}
		parent.Children = append(parent.Children, container)
	}

	kept := container.Children[:0]
	for _, c := range container.Children {
		if c.Name != ElemTransformGroup {
			kept = append(kept, c)
		}
	}
	container.Children = append(kept, groups...)

	for _, tree := range clones {
		for _, nested := range tree.Children {
			nested.Walk(func(n *Node) bool {
				if _, ok := n.Attr(AttrNodeID); ok {
					n.SetAttr(AttrNodeID, strconv.Itoa(ids.Next()))
				}
				return true
			})
		}
	}
	return ids.Peek(), nil
}

// Translation formats a world position as the scene's "x y z" triple.
func Translation(p forest.Vec3) string {
	return formatFloat(p.X, 4) + " " + formatFloat(p.Y, 4) + " " + formatFloat(p.Z, 4)
}

// Rotation formats a yaw in degrees as "0 yaw 0".
func Rotation(yaw float64) string {
	return "0 " + formatFloat(yaw, 2) + " 0"
}

func formatFloat(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if s == "-0.0000" || s == "-0.00" {
		s = s[1:]
	}
	return s
}
