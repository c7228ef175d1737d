package report

import (
	"io"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// renderHCL writes one bundle block per bundle with a nested bvd block per
// dimension and a node block per entry, in schedule order.
func renderHCL(w io.Writer, r *Report) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()
	root.SetAttributeValue("run_id", cty.StringVal(r.RunID))
	root.SetAttributeValue("dry_run", cty.BoolVal(r.DryRun))

	for _, b := range r.Bundles {
		root.AppendNewline()
		block := root.AppendNewBlock("bundle", []string{b.Name})
		body := block.Body()
		body.SetAttributeValue("index", cty.NumberIntVal(int64(b.Index)))
		body.SetAttributeValue("complete", cty.BoolVal(b.Complete))
		body.SetAttributeValue("threads", cty.NumberIntVal(int64(b.Threads)))

		for _, v := range b.BVDs {
			bvd := body.AppendNewBlock("bvd", []string{strconv.Itoa(v.BVD)}).Body()
			bvd.SetAttributeValue("slices", cty.NumberIntVal(int64(v.Slices)))
			bvd.SetAttributeValue("multiplier", cty.NumberIntVal(int64(v.Multiplier)))
		}
		for _, e := range b.Entries {
			node := body.AppendNewBlock("node", []string{e.Node}).Body()
			node.SetAttributeValue("kind", cty.StringVal(e.Kind))
			node.SetAttributeValue("operation_index", cty.NumberIntVal(int64(e.OperationIndex)))
			if e.ThreadIndex != nil {
				node.SetAttributeValue("thread_index", cty.NumberIntVal(int64(*e.ThreadIndex)))
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}
