package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// translateScheduler converts the scheduler block into the agnostic model.
func translateScheduler(s *schedulerBlock) *config.SchedulerSettings {
	return &config.SchedulerSettings{
		RouteAlgorithm:            s.RouteAlgorithm,
		MemsetCtrlDepOptimization: s.MemsetCtrlDepOptimization,
		PrefetchNextThread:        s.PrefetchNextThread,
		PreferSameThread:          s.PreferSameThread,
	}
}

// translateBundle converts a bundle block. position is used as the index when
// the block does not set one.
func translateBundle(b *bundleBlock, position int, evalCtx *hcl.EvalContext) (*config.Bundle, error) {
	out := &config.Bundle{
		Name:          b.Name,
		Index:         position,
		PipelineDepth: 1,
	}
	if b.Index != nil {
		out.Index = *b.Index
	}
	if b.PipelineDepth != nil {
		out.PipelineDepth = *b.PipelineDepth
	}

	for _, v := range b.BVDs {
		bvd := &config.BVD{Name: v.Name, Slices: v.Slices, Multiplier: 1}
		if v.Multiplier != nil {
			bvd.Multiplier = *v.Multiplier
		}
		out.BVDs = append(out.BVDs, bvd)
	}

	for _, n := range b.Nodes {
		node := &config.Node{
			Name:       n.Name,
			Kind:       "regular",
			Inputs:     n.Inputs,
			Outputs:    n.Outputs,
			After:      n.After,
			OutputBVDs: n.OutputBVDs,
		}
		if n.Kind != nil {
			node.Kind = *n.Kind
		}
		if n.External != nil {
			node.External = *n.External
		}
		out.Nodes = append(out.Nodes, node)
	}

	for _, s := range b.Slices {
		coord, err := decodeCoord(s.Coord, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("bundle %q slice %q: %w", b.Name, s.Tensor, err)
		}
		out.Slices = append(out.Slices, &config.Slice{Tensor: s.Tensor, Coord: coord})
	}

	for _, w := range b.Walks {
		out.Walks = append(out.Walks, &config.Walk{Node: w.Node, Pattern: w.Pattern})
	}
	return out, nil
}

// decodeCoord evaluates a `{ bvd = index }` object into a map of whole numbers.
func decodeCoord(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]int, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return map[string]int{}, nil
	}
	converted, err := convert.Convert(val, cty.Map(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("coord must map bvd names to numbers: %w", err)
	}
	if !converted.IsWhollyKnown() {
		return nil, fmt.Errorf("coord is not known")
	}
	coord := make(map[string]int)
	if err := gocty.FromCtyValue(converted, &coord); err != nil {
		return nil, fmt.Errorf("coord: %w", err)
	}
	return coord, nil
}
