package config

// Model is the format-agnostic representation of a bundle description file
// set: optional scheduler settings and any number of bundles.
type Model struct {
	// Scheduler overrides DefaultOptions field by field; nil fields keep the default.
	Scheduler *SchedulerSettings
	Bundles   []*Bundle
}

// SchedulerSettings mirrors Options with optional fields.
type SchedulerSettings struct {
	RouteAlgorithm            *string
	MemsetCtrlDepOptimization *bool
	PrefetchNextThread        *bool
	PreferSameThread          *bool
}

// Apply returns base with every set field overridden.
func (s *SchedulerSettings) Apply(base Options) (Options, error) {
	if s == nil {
		return base, nil
	}
	if s.RouteAlgorithm != nil {
		alg, err := ParseRouteAlgorithm(*s.RouteAlgorithm)
		if err != nil {
			return base, err
		}
		base.RouteAlgorithm = alg
	}
	if s.MemsetCtrlDepOptimization != nil {
		base.MemsetCtrlDepOptimization = *s.MemsetCtrlDepOptimization
	}
	if s.PrefetchNextThread != nil {
		base.PrefetchNextThread = *s.PrefetchNextThread
	}
	if s.PreferSameThread != nil {
		base.PreferSameThread = *s.PreferSameThread
	}
	return base, nil
}

// Bundle describes one sliced bundle.
type Bundle struct {
	Name          string
	Index         int
	PipelineDepth int
	// BVDs are kept in declaration order, which defines their ids.
	BVDs   []*BVD
	Nodes  []*Node
	Slices []*Slice
	Walks  []*Walk
}

// BVD is one bundle-view dimension.
type BVD struct {
	Name       string
	Slices     int
	Multiplier int
}

// Node is one bundle operation. Tensors are named by the inputs and outputs
// that mention them.
type Node struct {
	Name       string
	Kind       string
	Inputs     []string
	Outputs    []string
	After      []string
	OutputBVDs []string
	// External nodes are part of the graph but not members of the bundle.
	External bool
}

// Slice records the coordinate of a route-end input slice by BVD name.
type Slice struct {
	Tensor string
	Coord  map[string]int
}

// Walk is the BVD walk preference of an MME node.
type Walk struct {
	Node    string
	Pattern []string
}
