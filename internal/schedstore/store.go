// Package schedstore is the side-table holding the mutable scheduling
// annotation of every node.
//
// # Why a side-table
//
// The bundle graph is immutable once built. What the scheduler produces, an
// operation index and an optional thread index per node, is kept here instead,
// keyed by node handle. This keeps a single writer per run obvious and lets a
// dry run work on a Clone without touching the caller's annotations.
//
// # Write rules
//
//   - A node must be registered with its bundle index before it is scheduled.
//   - The first SetOperationIndex wins; later writes are ignored and reported.
//   - A thread index can be assigned only once.
package schedstore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/bundlesched/internal/bundle"
)

var (
	// ErrMissingAnnotation is returned for nodes that were never registered.
	ErrMissingAnnotation = errors.New("node has no bundle annotation")
	// ErrThreadAlreadyAssigned is returned when a node is given a second thread.
	ErrThreadAlreadyAssigned = errors.New("node already assigned to a thread")
)

// Unscheduled is the operation index of a node that has not been scheduled.
const Unscheduled = 0

// Annotation is the scheduling state of one node.
type Annotation struct {
	BundleIndex    int  `json:"bundle_index" yaml:"bundle_index"`
	OperationIndex int  `json:"operation_index" yaml:"operation_index"`
	ThreadIndex    *int `json:"thread_index,omitempty" yaml:"thread_index,omitempty"`
}

// Scheduled reports whether the node has an operation index.
func (a Annotation) Scheduled() bool { return a.OperationIndex != Unscheduled }

// Entry pairs a node with its annotation in snapshots.
type Entry struct {
	Node bundle.NodeID
	Annotation
}

// Store is the annotation table used by the scheduler.
type Store interface {
	Get(n bundle.NodeID) (Annotation, bool)
	SetOperationIndex(n bundle.NodeID, index int) (bool, error)
	SetThreadIndex(n bundle.NodeID, thread int) error
	MaxOperationIndex() int
}

// Table is the in-memory Store.
type Table struct {
	entries map[bundle.NodeID]*Annotation
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make(map[bundle.NodeID]*Annotation)}
}

// Register annotates n as a member of bundle bundleIndex. Registering twice
// keeps the existing scheduling state and only updates the bundle index.
func (t *Table) Register(n bundle.NodeID, bundleIndex int) {
	if a, ok := t.entries[n]; ok {
		a.BundleIndex = bundleIndex
		return
	}
	t.entries[n] = &Annotation{BundleIndex: bundleIndex}
}

// RegisterBundle annotates every member of d.
func (t *Table) RegisterBundle(d *bundle.Data) {
	for _, n := range d.Nodes {
		t.Register(n, d.Index)
	}
}

// Get returns a copy of n's annotation.
func (t *Table) Get(n bundle.NodeID) (Annotation, bool) {
	a, ok := t.entries[n]
	if !ok {
		return Annotation{}, false
	}
	out := *a
	if a.ThreadIndex != nil {
		thread := *a.ThreadIndex
		out.ThreadIndex = &thread
	}
	return out, true
}

// SetOperationIndex assigns index to n unless n already has one. It returns
// whether the write happened.
func (t *Table) SetOperationIndex(n bundle.NodeID, index int) (bool, error) {
	a, ok := t.entries[n]
	if !ok {
		return false, fmt.Errorf("node %d: %w", n, ErrMissingAnnotation)
	}
	if index <= Unscheduled {
		return false, fmt.Errorf("node %d: invalid operation index %d", n, index)
	}
	if a.OperationIndex != Unscheduled {
		return false, nil
	}
	a.OperationIndex = index
	return true, nil
}

// SetThreadIndex assigns n to thread.
func (t *Table) SetThreadIndex(n bundle.NodeID, thread int) error {
	a, ok := t.entries[n]
	if !ok {
		return fmt.Errorf("node %d: %w", n, ErrMissingAnnotation)
	}
	if a.ThreadIndex != nil {
		return fmt.Errorf("node %d to thread %d, already in thread %d: %w", n, thread, *a.ThreadIndex, ErrThreadAlreadyAssigned)
	}
	a.ThreadIndex = &thread
	return nil
}

// MaxOperationIndex returns the highest assigned operation index, or 0.
func (t *Table) MaxOperationIndex() int {
	highest := Unscheduled
	for _, a := range t.entries {
		if a.OperationIndex > highest {
			highest = a.OperationIndex
		}
	}
	return highest
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := New()
	for n := range t.entries {
		a, _ := t.Get(n)
		c.entries[n] = &a
	}
	return c
}

// Replace overwrites the content of t with the content of other.
func (t *Table) Replace(other *Table) {
	t.entries = other.Clone().entries
}

// Snapshot returns every annotation ordered by node id.
func (t *Table) Snapshot() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for n := range t.entries {
		a, _ := t.Get(n)
		out = append(out, Entry{Node: n, Annotation: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}
