package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// parseVariable interprets a command-line value as an HCL literal. Values
// that are not valid expressions, such as bare words, are taken as strings.
func parseVariable(name, raw string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<var "+name+">", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.StringVal(raw), nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		// A bare word parses as a traversal that cannot be evaluated.
		if _, isTraversal := expr.(*hclsyntax.ScopeTraversalExpr); isTraversal {
			return cty.StringVal(raw), nil
		}
		return cty.NilVal, fmt.Errorf("invalid value for variable %q: %w", name, diags)
	}
	return val, nil
}

// buildEvalContext merges declared defaults with command-line overrides into
// the `var` object.
func buildEvalContext(declared []*variableBlock, overrides map[string]string) (*hcl.EvalContext, error) {
	values := make(map[string]cty.Value)
	for _, v := range declared {
		if v.Default == nil {
			continue
		}
		val, diags := v.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("default of variable %q: %w", v.Name, diags)
		}
		if !val.IsNull() {
			values[v.Name] = val
		}
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		val, err := parseVariable(name, overrides[name])
		if err != nil {
			return nil, err
		}
		values[name] = val
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(values)},
	}, nil
}
