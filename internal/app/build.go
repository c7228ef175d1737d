package app

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/config"
)

// ErrInvalidModel wraps every inconsistency found while turning a bundle
// description into a graph.
var ErrInvalidModel = errors.New("invalid bundle description")

// loadedBundle pairs a bundle's data with its description name.
type loadedBundle struct {
	name string
	data *bundle.Data
}

// buildBundles turns the model into one graph shared by all bundles. Node
// and tensor names are global, so a bundle can read tensors produced by
// another one. Bundles are returned in index order.
func buildBundles(m *config.Model) (*bundle.Graph, []*loadedBundle, error) {
	g := bundle.NewGraph()
	members := make([][]bundle.NodeID, len(m.Bundles))

	for i, b := range m.Bundles {
		for _, n := range b.Nodes {
			kind, err := bundle.ParseKind(n.Kind)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bundle %q node %q: %w", ErrInvalidModel, b.Name, n.Name, err)
			}
			id, err := g.AddNode(n.Name, kind, addTensors(g, n.Inputs), addTensors(g, n.Outputs))
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bundle %q: %w", ErrInvalidModel, b.Name, err)
			}
			if !n.External {
				members[i] = append(members[i], id)
			}
		}
	}

	// Control edges may name nodes of any bundle, so they follow once every
	// node exists.
	for _, b := range m.Bundles {
		for _, n := range b.Nodes {
			blocked, _ := g.NodeByName(n.Name)
			for _, after := range n.After {
				blocking, err := resolveNode(g, after)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: bundle %q node %q after: %w", ErrInvalidModel, b.Name, n.Name, err)
				}
				if err := g.AddControlEdge(blocking, blocked); err != nil {
					return nil, nil, fmt.Errorf("%w: bundle %q node %q: %w", ErrInvalidModel, b.Name, n.Name, err)
				}
			}
		}
	}

	out := make([]*loadedBundle, 0, len(m.Bundles))
	seen := make(map[int]string)
	for i, b := range m.Bundles {
		if other, dup := seen[b.Index]; dup {
			return nil, nil, fmt.Errorf("%w: bundles %q and %q share index %d", ErrInvalidModel, other, b.Name, b.Index)
		}
		seen[b.Index] = b.Name

		d, err := buildData(g, b, members[i])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bundle %q: %w", ErrInvalidModel, b.Name, err)
		}
		out = append(out, &loadedBundle{name: b.Name, data: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].data.Index < out[j].data.Index })
	return g, out, nil
}

func buildData(g *bundle.Graph, b *config.Bundle, members []bundle.NodeID) (*bundle.Data, error) {
	bvds := make(map[string]bundle.BVD, len(b.BVDs))
	counts := make([]int, len(b.BVDs))
	for i, v := range b.BVDs {
		if _, dup := bvds[v.Name]; dup {
			return nil, fmt.Errorf("duplicate bvd %q", v.Name)
		}
		bvds[v.Name] = bundle.BVD(i)
		counts[i] = v.Slices
	}
	resolveBVDs := func(names []string) ([]bundle.BVD, error) {
		out := make([]bundle.BVD, len(names))
		for i, name := range names {
			id, ok := bvds[name]
			if !ok {
				return nil, fmt.Errorf("unknown bvd %q", name)
			}
			out[i] = id
		}
		return out, nil
	}

	d, err := bundle.NewData(g, b.Index, members, counts)
	if err != nil {
		return nil, err
	}
	if b.PipelineDepth < 1 {
		return nil, fmt.Errorf("pipeline depth %d, want at least 1", b.PipelineDepth)
	}
	d.PipelineDepth = b.PipelineDepth
	for i, v := range b.BVDs {
		if v.Multiplier > 0 {
			d.Strategy.Multipliers[bundle.BVD(i)] = v.Multiplier
		}
	}

	for _, n := range b.Nodes {
		if len(n.OutputBVDs) == 0 {
			continue
		}
		ids, err := resolveBVDs(n.OutputBVDs)
		if err != nil {
			return nil, fmt.Errorf("node %q output_bvds: %w", n.Name, err)
		}
		id, _ := g.NodeByName(n.Name)
		d.NodeOutputBVDs[id] = ids
	}

	for _, s := range b.Slices {
		t, ok := g.TensorByName(s.Tensor)
		if !ok {
			return nil, fmt.Errorf("slice %q: %w", s.Tensor, bundle.ErrUnknownTensor)
		}
		coord := make(bundle.BVDCoord, len(b.BVDs))
		for name, v := range s.Coord {
			id, ok := bvds[name]
			if !ok {
				return nil, fmt.Errorf("slice %q: unknown bvd %q", s.Tensor, name)
			}
			coord[id] = v
		}
		if err := d.SetCoord(t, coord); err != nil {
			return nil, fmt.Errorf("slice %q: %w", s.Tensor, err)
		}
	}

	for _, w := range b.Walks {
		n, err := resolveNode(g, w.Node)
		if err != nil {
			return nil, fmt.Errorf("walk: %w", err)
		}
		if !d.InBundle(n) {
			return nil, fmt.Errorf("walk %q: node is not a member of the bundle", w.Node)
		}
		ids, err := resolveBVDs(w.Pattern)
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", w.Node, err)
		}
		d.Strategy.WalkPatterns = append(d.Strategy.WalkPatterns, bundle.WalkPattern{Node: n, BVDs: ids})
	}
	return d, nil
}

func addTensors(g *bundle.Graph, names []string) []bundle.TensorID {
	out := make([]bundle.TensorID, len(names))
	for i, name := range names {
		out[i] = g.AddTensor(name)
	}
	return out
}

func resolveNode(g *bundle.Graph, name string) (bundle.NodeID, error) {
	id, ok := g.NodeByName(name)
	if !ok {
		return bundle.None, fmt.Errorf("%q: %w", name, bundle.ErrUnknownNode)
	}
	return id, nil
}
