package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot splits a file into its variable blocks and everything else.
type fileRoot struct {
	Variables []*variableBlock `hcl:"variable,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type variableBlock struct {
	Name        string         `hcl:"name,label"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description *string        `hcl:"description,optional"`
}

// fileBody is decoded from fileRoot.Remain once variables are known.
type fileBody struct {
	Scheduler *schedulerBlock `hcl:"scheduler,block"`
	Bundles   []*bundleBlock  `hcl:"bundle,block"`
}

type schedulerBlock struct {
	RouteAlgorithm            *string `hcl:"route_algorithm,optional"`
	MemsetCtrlDepOptimization *bool   `hcl:"memset_ctrl_dep_optimization,optional"`
	PrefetchNextThread        *bool   `hcl:"prefetch_next_thread,optional"`
	PreferSameThread          *bool   `hcl:"prefer_same_thread,optional"`
}

type bundleBlock struct {
	Name          string        `hcl:"name,label"`
	Index         *int          `hcl:"index,optional"`
	PipelineDepth *int          `hcl:"pipeline_depth,optional"`
	BVDs          []*bvdBlock   `hcl:"bvd,block"`
	Nodes         []*nodeBlock  `hcl:"node,block"`
	Slices        []*sliceBlock `hcl:"slice,block"`
	Walks         []*walkBlock  `hcl:"walk,block"`
}

type bvdBlock struct {
	Name       string `hcl:"name,label"`
	Slices     int    `hcl:"slices"`
	Multiplier *int   `hcl:"multiplier,optional"`
}

type nodeBlock struct {
	Name       string   `hcl:"name,label"`
	Kind       *string  `hcl:"kind,optional"`
	Inputs     []string `hcl:"inputs,optional"`
	Outputs    []string `hcl:"outputs,optional"`
	After      []string `hcl:"after,optional"`
	OutputBVDs []string `hcl:"output_bvds,optional"`
	External   *bool    `hcl:"external,optional"`
}

type sliceBlock struct {
	Tensor string         `hcl:"tensor,label"`
	Coord  hcl.Expression `hcl:"coord"`
}

type walkBlock struct {
	Node    string   `hcl:"node,label"`
	Pattern []string `hcl:"pattern"`
}
