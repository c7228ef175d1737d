package bundle

import (
	"fmt"
	"sort"
)

// BVD identifies a bundle-view dimension: a group of tensor and node
// dimensions sliced with one shared multiplier.
type BVD int

// BVDCoord is one slice's logical position, indexed by BVD.
type BVDCoord []int

// Equal reports whether both coordinates address the same position.
func (c BVDCoord) Equal(o BVDCoord) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c BVDCoord) Clone() BVDCoord {
	return append(BVDCoord(nil), c...)
}

// WalkPattern is the traversal preference declared for one MME node: BVDs
// listed first are walked with the highest priority.
type WalkPattern struct {
	Node NodeID
	BVDs []BVD
}

// Strategy is the slicing decision taken by the strategy solver.
type Strategy struct {
	// WalkPatterns are kept in node declaration order.
	WalkPatterns []WalkPattern
	// Multipliers is the slice size multiplier chosen per BVD.
	Multipliers map[BVD]int
}

// Data is the read-only view of one bundle consumed by the scheduler.
type Data struct {
	Graph *Graph
	// Index is the bundle index every member node is annotated with.
	Index int
	// Nodes are the bundle members in id order.
	Nodes []NodeID
	// SliceCounts holds the number of slices per BVD; its length is the
	// total BVD count.
	SliceCounts []int
	// NodeOutputBVDs lists the BVDs spanned by each node's outputs.
	NodeOutputBVDs map[NodeID][]BVD
	// SliceCoords records the coordinate of every route-end input slice.
	SliceCoords map[TensorID]BVDCoord
	Strategy    Strategy
	// PipelineDepth bounds the number of concurrently active threads.
	PipelineDepth int

	members map[NodeID]struct{}
}

// NewData assembles bundle data and indexes its members. Member ids are sorted.
func NewData(g *Graph, index int, nodes []NodeID, sliceCounts []int) (*Data, error) {
	d := &Data{
		Graph:          g,
		Index:          index,
		Nodes:          append([]NodeID(nil), nodes...),
		SliceCounts:    append([]int(nil), sliceCounts...),
		NodeOutputBVDs: make(map[NodeID][]BVD),
		SliceCoords:    make(map[TensorID]BVDCoord),
		Strategy:       Strategy{Multipliers: make(map[BVD]int)},
		PipelineDepth:  1,
		members:        make(map[NodeID]struct{}, len(nodes)),
	}
	sort.Slice(d.Nodes, func(i, j int) bool { return d.Nodes[i] < d.Nodes[j] })
	for _, n := range d.Nodes {
		if g.Node(n) == nil {
			return nil, fmt.Errorf("bundle %d member %d: %w", index, n, ErrUnknownNode)
		}
		d.members[n] = struct{}{}
	}
	for b, count := range d.SliceCounts {
		if count < 1 {
			return nil, fmt.Errorf("bundle %d: bvd %d has %d slices, want at least 1", index, b, count)
		}
	}
	return d, nil
}

// NumBVDs returns the total number of BVDs, sliced or not.
func (d *Data) NumBVDs() int { return len(d.SliceCounts) }

// NumSlices returns the slice count of b; unknown BVDs count as unsliced.
func (d *Data) NumSlices(b BVD) int {
	if b < 0 || int(b) >= len(d.SliceCounts) {
		return 1
	}
	return d.SliceCounts[b]
}

// IsSliced reports whether b is split into more than one slice.
func (d *Data) IsSliced(b BVD) bool { return d.NumSlices(b) > 1 }

// InBundle reports whether n belongs to this bundle.
func (d *Data) InBundle(n NodeID) bool {
	_, ok := d.members[n]
	return ok
}

// Coord returns the recorded coordinate of slice t.
func (d *Data) Coord(t TensorID) (BVDCoord, bool) {
	c, ok := d.SliceCoords[t]
	return c, ok
}

// SetCoord records the coordinate of slice t. Missing trailing BVDs are zero.
func (d *Data) SetCoord(t TensorID, coord BVDCoord) error {
	if len(coord) > d.NumBVDs() {
		return fmt.Errorf("slice %d: coordinate has %d entries for %d bvds", t, len(coord), d.NumBVDs())
	}
	full := make(BVDCoord, d.NumBVDs())
	copy(full, coord)
	for b, v := range full {
		if v < 0 || v >= d.SliceCounts[b] {
			return fmt.Errorf("slice %d: index %d out of range for bvd %d with %d slices", t, v, b, d.SliceCounts[b])
		}
	}
	d.SliceCoords[t] = full
	return nil
}

// InBundleProducer returns the producer of t when it is a bundle member, or None.
func (d *Data) InBundleProducer(t TensorID) NodeID {
	p := d.Graph.Producer(t)
	if p == None || !d.InBundle(p) {
		return None
	}
	return p
}

// RouteEnds returns the join and reduction members sorted by id.
func (d *Data) RouteEnds() []NodeID {
	var out []NodeID
	for _, n := range d.Nodes {
		if d.Graph.Node(n).IsRouteEnd() {
			out = append(out, n)
		}
	}
	return out
}
