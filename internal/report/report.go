// Package report renders the outcome of a scheduling run. A Report is built
// from the annotation store after every bundle was scheduled and can be
// written as aligned text, JSON, YAML or HCL.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/schedstore"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// ParseFormat accepts the format names in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatHCL:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be one of text, json, yaml, hcl", s)
	}
}

// Report is the result of one run.
type Report struct {
	RunID   string   `json:"run_id" yaml:"run_id"`
	DryRun  bool     `json:"dry_run" yaml:"dry_run"`
	Bundles []Bundle `json:"bundles" yaml:"bundles"`
}

// Bundle is the schedule of one bundle.
type Bundle struct {
	Name     string  `json:"name" yaml:"name"`
	Index    int     `json:"index" yaml:"index"`
	Complete bool    `json:"complete" yaml:"complete"`
	Threads  int     `json:"threads" yaml:"threads"`
	// BVDs is the slicing the schedule was computed for, in BVD id order.
	BVDs    []Dimension `json:"bvds,omitempty" yaml:"bvds,omitempty"`
	Entries []Entry     `json:"entries" yaml:"entries"`
}

// Dimension is one BVD of the slicing strategy.
type Dimension struct {
	BVD        int `json:"bvd" yaml:"bvd"`
	Slices     int `json:"slices" yaml:"slices"`
	Multiplier int `json:"multiplier" yaml:"multiplier"`
}

// Entry is one scheduled node.
type Entry struct {
	Node           string `json:"node" yaml:"node"`
	Kind           string `json:"kind" yaml:"kind"`
	OperationIndex int    `json:"operation_index" yaml:"operation_index"`
	ThreadIndex    *int   `json:"thread_index,omitempty" yaml:"thread_index,omitempty"`
}

// NewBundle collects the annotations of every member of d. Entries are
// ordered by operation index; unscheduled members follow in id order.
func NewBundle(name string, d *bundle.Data, store schedstore.Store, complete bool) Bundle {
	b := Bundle{Name: name, Index: d.Index, Complete: complete}
	for i, count := range d.SliceCounts {
		m, ok := d.Strategy.Multipliers[bundle.BVD(i)]
		if !ok {
			m = 1
		}
		b.BVDs = append(b.BVDs, Dimension{BVD: i, Slices: count, Multiplier: m})
	}
	threads := make(map[int]struct{})
	for _, n := range d.Nodes {
		a, _ := store.Get(n)
		node := d.Graph.Node(n)
		b.Entries = append(b.Entries, Entry{
			Node:           node.Name,
			Kind:           node.Kind.String(),
			OperationIndex: a.OperationIndex,
			ThreadIndex:    a.ThreadIndex,
		})
		if a.ThreadIndex != nil {
			threads[*a.ThreadIndex] = struct{}{}
		}
	}
	b.Threads = len(threads)
	sort.SliceStable(b.Entries, func(i, j int) bool {
		ei, ej := b.Entries[i].OperationIndex, b.Entries[j].OperationIndex
		if ei == schedstore.Unscheduled || ej == schedstore.Unscheduled {
			return ej == schedstore.Unscheduled && ei != schedstore.Unscheduled
		}
		return ei < ej
	})
	return b
}

// Complete reports whether every bundle was fully scheduled.
func (r *Report) Complete() bool {
	for _, b := range r.Bundles {
		if !b.Complete {
			return false
		}
	}
	return true
}

// Render writes r to w in the given format.
func Render(w io.Writer, format Format, r *Report) error {
	switch format {
	case FormatText:
		return renderText(w, r)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatYAML:
		return renderYAML(w, r)
	case FormatHCL:
		return renderHCL(w, r)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
