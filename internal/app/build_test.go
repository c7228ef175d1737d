package app

import (
	"testing"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reductionModel describes a two-bundle model: "sum" reduces two partial
// products into c and "consume" reads c through an external node.
func reductionModel() *config.Model {
	return &config.Model{
		Bundles: []*config.Bundle{
			{
				Name:          "consume",
				Index:         4,
				PipelineDepth: 1,
				Nodes: []*config.Node{
					{Name: "use", Kind: "regular", Inputs: []string{"c"}, Outputs: []string{"d"}},
				},
			},
			{
				Name:          "sum",
				Index:         3,
				PipelineDepth: 2,
				BVDs: []*config.BVD{
					{Name: "n", Slices: 1},
					{Name: "k", Slices: 2, Multiplier: 4},
				},
				Nodes: []*config.Node{
					{Name: "src", Kind: "regular", Outputs: []string{"a"}, External: true},
					{Name: "ms", Kind: "memset", Outputs: []string{"zero"}},
					{Name: "p0", Kind: "mme", Inputs: []string{"a"}, Outputs: []string{"part0"}, After: []string{"ms"}, OutputBVDs: []string{"n"}},
					{Name: "p1", Kind: "mme", Inputs: []string{"a"}, Outputs: []string{"part1"}, After: []string{"ms"}},
					{Name: "r", Kind: "reduction", Inputs: []string{"zero", "part0", "part1"}, Outputs: []string{"c"}},
				},
				Slices: []*config.Slice{
					{Tensor: "zero", Coord: map[string]int{"k": 0}},
					{Tensor: "part0", Coord: map[string]int{"k": 0}},
					{Tensor: "part1", Coord: map[string]int{"n": 0, "k": 1}},
				},
				Walks: []*config.Walk{{Node: "p0", Pattern: []string{"k", "n"}}},
			},
		},
	}
}

func TestBuildBundles(t *testing.T) {
	g, bundles, err := buildBundles(reductionModel())
	require.NoError(t, err)
	require.Len(t, bundles, 2)

	id := func(name string) bundle.NodeID {
		n, ok := g.NodeByName(name)
		require.True(t, ok, name)
		return n
	}
	tensor := func(name string) bundle.TensorID {
		tid, ok := g.TensorByName(name)
		require.True(t, ok, name)
		return tid
	}

	sum := bundles[0]
	assert.Equal(t, "sum", sum.name, "bundles are ordered by index")
	d := sum.data
	assert.Equal(t, 3, d.Index)
	assert.Equal(t, 2, d.PipelineDepth)
	assert.Equal(t, []int{1, 2}, d.SliceCounts)
	assert.Equal(t, map[bundle.BVD]int{1: 4}, d.Strategy.Multipliers)
	assert.Equal(t, []bundle.NodeID{id("ms"), id("p0"), id("p1"), id("r")}, d.Nodes)
	assert.False(t, d.InBundle(id("src")), "external nodes are not members")
	assert.True(t, g.HasControlEdge(id("ms"), id("p0")))
	assert.True(t, g.HasControlEdge(id("ms"), id("p1")))
	assert.Equal(t, []bundle.BVD{0}, d.NodeOutputBVDs[id("p0")])
	assert.Equal(t, []bundle.WalkPattern{{Node: id("p0"), BVDs: []bundle.BVD{1, 0}}}, d.Strategy.WalkPatterns)

	coord, ok := d.Coord(tensor("part1"))
	require.True(t, ok)
	assert.Equal(t, bundle.BVDCoord{0, 1}, coord)
	coord, ok = d.Coord(tensor("zero"))
	require.True(t, ok)
	assert.Equal(t, bundle.BVDCoord{0, 0}, coord, "omitted bvds are at coordinate 0")

	consume := bundles[1]
	assert.Equal(t, "consume", consume.name)
	assert.Equal(t, id("r"), g.Producer(tensor("c")), "tensor names are shared across bundles")
	assert.Equal(t, []bundle.NodeID{id("use")}, consume.data.Nodes)
}

func TestBuildBundles_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(m *config.Model)
		want   string
	}{
		{
			name:   "unknown kind",
			mutate: func(m *config.Model) { m.Bundles[1].Nodes[1].Kind = "conv" },
			want:   `node "ms"`,
		},
		{
			name: "duplicate node name",
			mutate: func(m *config.Model) {
				m.Bundles[0].Nodes = append(m.Bundles[0].Nodes, &config.Node{Name: "r", Kind: "regular"})
			},
			want: `node "r" already exists`,
		},
		{
			name: "tensor produced twice",
			mutate: func(m *config.Model) {
				m.Bundles[0].Nodes[0].Outputs = []string{"c"}
			},
			want: "already produced",
		},
		{
			name:   "unknown after",
			mutate: func(m *config.Model) { m.Bundles[1].Nodes[2].After = []string{"ghost"} },
			want:   "ghost",
		},
		{
			name:   "duplicate index",
			mutate: func(m *config.Model) { m.Bundles[0].Index = 3 },
			want:   "share index 3",
		},
		{
			name:   "duplicate bvd",
			mutate: func(m *config.Model) { m.Bundles[1].BVDs[1].Name = "n" },
			want:   `duplicate bvd "n"`,
		},
		{
			name:   "zero slices",
			mutate: func(m *config.Model) { m.Bundles[1].BVDs[0].Slices = 0 },
			want:   "want at least 1",
		},
		{
			name:   "unknown output bvd",
			mutate: func(m *config.Model) { m.Bundles[1].Nodes[2].OutputBVDs = []string{"m"} },
			want:   `unknown bvd "m"`,
		},
		{
			name:   "unknown slice tensor",
			mutate: func(m *config.Model) { m.Bundles[1].Slices[0].Tensor = "ghost" },
			want:   `slice "ghost"`,
		},
		{
			name:   "unknown slice bvd",
			mutate: func(m *config.Model) { m.Bundles[1].Slices[0].Coord = map[string]int{"q": 1} },
			want:   `unknown bvd "q"`,
		},
		{
			name:   "coordinate out of range",
			mutate: func(m *config.Model) { m.Bundles[1].Slices[0].Coord = map[string]int{"k": 2} },
			want:   `slice "zero"`,
		},
		{
			name:   "zero pipeline depth",
			mutate: func(m *config.Model) { m.Bundles[1].PipelineDepth = 0 },
			want:   "pipeline depth 0",
		},
		{
			name:   "walk on external node",
			mutate: func(m *config.Model) { m.Bundles[1].Walks[0].Node = "src" },
			want:   "not a member",
		},
		{
			name:   "walk on unknown bvd",
			mutate: func(m *config.Model) { m.Bundles[1].Walks[0].Pattern = []string{"z"} },
			want:   `unknown bvd "z"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := reductionModel()
			tc.mutate(m)

			_, _, err := buildBundles(m)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidModel)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
