package scheduler

import (
	"fmt"

	"github.com/specialistvlad/bundlesched/internal/bundle"
)

// validateMemsetControlDeps checks that every memset feeding a reduction is
// ordered by a control edge before every other data producer of that
// reduction, so no partial result can be written before the buffer is
// cleared.
func validateMemsetControlDeps(d *bundle.Data) error {
	g := d.Graph
	for _, n := range d.Nodes {
		node := g.Node(n)
		if !node.IsReduction() {
			continue
		}
		var memsets, producers []bundle.NodeID
		for _, p := range g.DataProducers(n) {
			if !d.InBundle(p) {
				continue
			}
			if g.Node(p).IsMemset() {
				memsets = append(memsets, p)
			} else {
				producers = append(producers, p)
			}
		}
		for _, m := range memsets {
			for _, p := range producers {
				if !g.HasControlEdge(m, p) {
					return fmt.Errorf("reduction %q: %q -> %q: %w", node.Name, g.Node(m).Name, g.Node(p).Name, ErrMemsetCtrlDep)
				}
			}
		}
	}
	return nil
}

// reductionInfo records, for every input slice of a reduction route end, the
// BVDs along which the reduction's inputs differ: those are the BVDs it
// accumulates over.
func reductionInfo(d *bundle.Data, routeEnds []bundle.NodeID) (SliceToReductionInfo, error) {
	g := d.Graph
	info := make(SliceToReductionInfo)
	for _, end := range routeEnds {
		node := g.Node(end)
		if !node.IsReduction() {
			continue
		}

		coords := make([]bundle.BVDCoord, 0, len(node.Inputs()))
		for _, in := range node.Inputs() {
			c, ok := d.Coord(in)
			if !ok {
				return nil, fmt.Errorf("slice %q of reduction %q: %w", g.Tensor(in).Name, node.Name, ErrMissingSliceCoord)
			}
			coords = append(coords, c)
		}

		var reduced []bundle.BVD
		for b := 0; b < d.NumBVDs() && len(coords) > 1; b++ {
			for _, c := range coords[1:] {
				if c[b] != coords[0][b] {
					reduced = append(reduced, bundle.BVD(b))
					break
				}
			}
		}
		if len(reduced) == 0 {
			return nil, fmt.Errorf("reduction %q: %w", node.Name, ErrNoReducedBVDs)
		}
		for _, in := range node.Inputs() {
			info[in] = ReductionInfo{Consumer: end, ReducedBVDs: reduced}
		}
	}
	return info, nil
}
