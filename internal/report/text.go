package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

func renderText(w io.Writer, r *Report) error {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	if _, err := fmt.Fprintf(w, "run %s%s\n", r.RunID, mode); err != nil {
		return err
	}

	for _, b := range r.Bundles {
		status := "complete"
		if !b.Complete {
			status = "incomplete"
		}
		if _, err := fmt.Fprintf(w, "\nbundle %s [%d]: %s, %d threads\n", b.Name, b.Index, status, b.Threads); err != nil {
			return err
		}

		if len(b.BVDs) > 0 {
			dims := make([]string, len(b.BVDs))
			for i, v := range b.BVDs {
				dims[i] = fmt.Sprintf("%d=%dx%d", v.BVD, v.Slices, v.Multiplier)
			}
			if _, err := fmt.Fprintf(w, "bvds: %s\n", strings.Join(dims, " ")); err != nil {
				return err
			}
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "OP\tTHREAD\tKIND\tNODE")
		for _, e := range b.Entries {
			op := "-"
			if e.OperationIndex != 0 {
				op = strconv.Itoa(e.OperationIndex)
			}
			thread := "-"
			if e.ThreadIndex != nil {
				thread = strconv.Itoa(*e.ThreadIndex)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op, thread, e.Kind, e.Node)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
