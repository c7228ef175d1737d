package testutil

import (
	"testing"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/schedstore"
	"github.com/stretchr/testify/require"
)

// BundleBuilder assembles small bundles for scheduler tests. Tensors are
// created on first mention; every node is a bundle member unless added with
// External.
type BundleBuilder struct {
	t       *testing.T
	g       *bundle.Graph
	members []bundle.NodeID
	slices  []int
	coords  map[bundle.TensorID]bundle.BVDCoord
	outBVDs map[bundle.NodeID][]bundle.BVD
	walks   []bundle.WalkPattern
	index   int
	depth   int
}

// NewBundle starts an empty bundle with index 1 and pipeline depth 1.
func NewBundle(t *testing.T) *BundleBuilder {
	t.Helper()
	return &BundleBuilder{
		t:       t,
		g:       bundle.NewGraph(),
		coords:  make(map[bundle.TensorID]bundle.BVDCoord),
		outBVDs: make(map[bundle.NodeID][]bundle.BVD),
		index:   1,
		depth:   1,
	}
}

// BVD declares the next BVD with the given slice count.
func (b *BundleBuilder) BVD(slices int) bundle.BVD {
	b.slices = append(b.slices, slices)
	return bundle.BVD(len(b.slices) - 1)
}

// Node adds a bundle member.
func (b *BundleBuilder) Node(name string, kind bundle.Kind, inputs, outputs []string) bundle.NodeID {
	b.t.Helper()
	id := b.add(name, kind, inputs, outputs)
	b.members = append(b.members, id)
	return id
}

// External adds a node that belongs to the graph but not to the bundle.
func (b *BundleBuilder) External(name string, kind bundle.Kind, inputs, outputs []string) bundle.NodeID {
	b.t.Helper()
	return b.add(name, kind, inputs, outputs)
}

func (b *BundleBuilder) add(name string, kind bundle.Kind, inputs, outputs []string) bundle.NodeID {
	b.t.Helper()
	id, err := b.g.AddNode(name, kind, b.tensors(inputs), b.tensors(outputs))
	require.NoError(b.t, err)
	return id
}

func (b *BundleBuilder) tensors(names []string) []bundle.TensorID {
	out := make([]bundle.TensorID, len(names))
	for i, n := range names {
		out[i] = b.g.AddTensor(n)
	}
	return out
}

// Control orders blocked after blocking.
func (b *BundleBuilder) Control(blocking, blocked string) *BundleBuilder {
	b.t.Helper()
	require.NoError(b.t, b.g.AddControlEdge(b.ID(blocking), b.ID(blocked)))
	return b
}

// Coord records the coordinate of a route-end input slice.
func (b *BundleBuilder) Coord(tensor string, coord ...int) *BundleBuilder {
	b.coords[b.Tensor(tensor)] = bundle.BVDCoord(coord)
	return b
}

// OutputBVDs declares the BVDs spanned by a node's outputs.
func (b *BundleBuilder) OutputBVDs(node string, bvds ...bundle.BVD) *BundleBuilder {
	b.outBVDs[b.ID(node)] = bvds
	return b
}

// Walk appends an MME walk pattern.
func (b *BundleBuilder) Walk(node string, bvds ...bundle.BVD) *BundleBuilder {
	b.walks = append(b.walks, bundle.WalkPattern{Node: b.ID(node), BVDs: bvds})
	return b
}

// Depth sets the pipeline depth.
func (b *BundleBuilder) Depth(depth int) *BundleBuilder {
	b.depth = depth
	return b
}

// Index sets the bundle index.
func (b *BundleBuilder) Index(index int) *BundleBuilder {
	b.index = index
	return b
}

// ID resolves a node name.
func (b *BundleBuilder) ID(name string) bundle.NodeID {
	b.t.Helper()
	id, ok := b.g.NodeByName(name)
	require.True(b.t, ok, "unknown node %q", name)
	return id
}

// Tensor resolves a tensor name.
func (b *BundleBuilder) Tensor(name string) bundle.TensorID {
	b.t.Helper()
	id, ok := b.g.TensorByName(name)
	require.True(b.t, ok, "unknown tensor %q", name)
	return id
}

// Graph returns the graph under construction.
func (b *BundleBuilder) Graph() *bundle.Graph { return b.g }

// Build returns the bundle data and a store with every member registered.
func (b *BundleBuilder) Build() (*bundle.Data, *schedstore.Table) {
	b.t.Helper()
	d, err := bundle.NewData(b.g, b.index, b.members, b.slices)
	require.NoError(b.t, err)
	for t, c := range b.coords {
		require.NoError(b.t, d.SetCoord(t, c))
	}
	for n, bvds := range b.outBVDs {
		d.NodeOutputBVDs[n] = bvds
	}
	d.Strategy.WalkPatterns = b.walks
	d.PipelineDepth = b.depth

	store := schedstore.New()
	store.RegisterBundle(d)
	return d, store
}

// Names maps node handles to names, for readable assertions.
func Names(g *bundle.Graph, ids []bundle.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Node(id).Name
	}
	return out
}
