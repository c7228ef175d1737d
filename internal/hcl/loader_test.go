package hcl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/specialistvlad/bundlesched/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func ptr[T any](v T) *T { return &v }

const pipelineHCL = `
variable "depth" {
  default = 2
}

scheduler {
  route_algorithm      = "bfs"
  prefetch_next_thread = false
}

bundle "pipeline" {
  index          = 3
  pipeline_depth = var.depth

  bvd "n" {
    slices = 2
  }
  bvd "k" {
    slices     = 1
    multiplier = 4
  }

  node "fork" {
    kind    = "fork"
    inputs  = ["x"]
    outputs = ["x0", "x1"]
  }
  node "mm0" {
    kind        = "mme"
    inputs      = ["x0", "w"]
    outputs     = ["m0"]
    output_bvds = ["n"]
  }
  node "mm1" {
    kind    = "mme"
    inputs  = ["x1", "w"]
    outputs = ["m1"]
    after   = ["mm0"]
  }
  node "join" {
    kind    = "join"
    inputs  = ["m0", "m1"]
    outputs = ["y"]
  }
  node "producer" {
    outputs  = ["w"]
    external = true
  }

  slice "m0" {
    coord = { n = 0 }
  }
  slice "m1" {
    coord = { n = 1, k = 0 }
  }

  walk "mm0" {
    pattern = ["n", "k"]
  }
}
`

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{"bundles/main.hcl": pipelineHCL})

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), nil, dir)

	// --- Assert ---
	require.NoError(t, err)
	want := &config.Model{
		Scheduler: &config.SchedulerSettings{
			RouteAlgorithm:     ptr("bfs"),
			PrefetchNextThread: ptr(false),
		},
		Bundles: []*config.Bundle{{
			Name:          "pipeline",
			Index:         3,
			PipelineDepth: 2,
			BVDs: []*config.BVD{
				{Name: "n", Slices: 2, Multiplier: 1},
				{Name: "k", Slices: 1, Multiplier: 4},
			},
			Nodes: []*config.Node{
				{Name: "fork", Kind: "fork", Inputs: []string{"x"}, Outputs: []string{"x0", "x1"}},
				{Name: "mm0", Kind: "mme", Inputs: []string{"x0", "w"}, Outputs: []string{"m0"}, OutputBVDs: []string{"n"}},
				{Name: "mm1", Kind: "mme", Inputs: []string{"x1", "w"}, Outputs: []string{"m1"}, After: []string{"mm0"}},
				{Name: "join", Kind: "join", Inputs: []string{"m0", "m1"}, Outputs: []string{"y"}},
				{Name: "producer", Kind: "regular", Outputs: []string{"w"}, External: true},
			},
			Slices: []*config.Slice{
				{Tensor: "m0", Coord: map[string]int{"n": 0}},
				{Tensor: "m1", Coord: map[string]int{"n": 1, "k": 0}},
			},
			Walks: []*config.Walk{{Node: "mm0", Pattern: []string{"n", "k"}}},
		}},
	}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Errorf("Load() model mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_VariableOverride(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": pipelineHCL})

	model, err := NewLoader().Load(context.Background(), map[string]string{"depth": "5"}, dir)

	require.NoError(t, err)
	require.Len(t, model.Bundles, 1)
	assert.Equal(t, 5, model.Bundles[0].PipelineDepth)
}

func TestLoader_MultipleFilesKeepOrder(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl":        `bundle "first" {}`,
		"b.hcl":        `bundle "second" {}` + "\n" + `bundle "third" { index = 9 }`,
		"ignored.json": `{}`,
	})

	model, err := NewLoader().Load(context.Background(), nil, dir)

	require.NoError(t, err)
	var names []string
	var indices []int
	for _, b := range model.Bundles {
		names = append(names, b.Name)
		indices = append(indices, b.Index)
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
	assert.Equal(t, []int{1, 2, 9}, indices)
	assert.Nil(t, model.Scheduler)
}

func TestLoader_SingleFilePath(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"one.hcl": `bundle "b" {}`})

	model, err := NewLoader().Load(context.Background(), nil, filepath.Join(dir, "one.hcl"), filepath.Join(dir, "missing"))

	require.NoError(t, err)
	assert.Len(t, model.Bundles, 1)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		vars  map[string]string
	}{
		{
			name:  "syntax error",
			files: map[string]string{"main.hcl": `bundle "b" {`},
		},
		{
			name:  "unknown block",
			files: map[string]string{"main.hcl": `grid "b" {}`},
		},
		{
			name:  "undefined variable",
			files: map[string]string{"main.hcl": `bundle "b" { pipeline_depth = var.nope }`},
		},
		{
			name:  "fractional slice count",
			files: map[string]string{"main.hcl": `bundle "b" { bvd "n" { slices = 1.5 } }`},
		},
		{
			name:  "coord is not a map of numbers",
			files: map[string]string{"main.hcl": `bundle "b" { slice "s" { coord = { n = "zero" } } }`},
		},
		{
			name: "duplicate scheduler",
			files: map[string]string{
				"a.hcl": `scheduler {}`,
				"b.hcl": `scheduler {}`,
			},
		},
		{
			name:  "invalid variable value",
			files: map[string]string{"main.hcl": `bundle "b" {}`},
			vars:  map[string]string{"depth": `1 + "a"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, tc.files)
			_, err := NewLoader().Load(context.Background(), tc.vars, dir)
			assert.Error(t, err)
		})
	}
}

func TestLoader_NoFiles(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), nil, t.TempDir())
	assert.Error(t, err)
}

func TestParseVariable(t *testing.T) {
	testCases := []struct {
		raw  string
		want cty.Value
	}{
		{raw: "4", want: cty.NumberIntVal(4)},
		{raw: "true", want: cty.True},
		{raw: `"quoted"`, want: cty.StringVal("quoted")},
		{raw: "bfs", want: cty.StringVal("bfs")},
		{raw: "two words", want: cty.StringVal("two words")},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := parseVariable("v", tc.raw)
			require.NoError(t, err)
			assert.True(t, tc.want.Equals(got).True(), "got %#v", got)
		})
	}
}
