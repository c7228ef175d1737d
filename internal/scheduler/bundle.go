package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
	"github.com/specialistvlad/bundlesched/internal/schedstore"
)

// Plan is everything computed before operation indices are assigned.
type Plan struct {
	RouteEnds        []bundle.NodeID
	Routes           RoutesTable
	TraversalPattern []bundle.BVD
	Reductions       SliceToReductionInfo
	SliceSets        []SliceSet
	Threads          []Thread
}

// BundleScheduler runs the whole scheduling chain for one bundle.
type BundleScheduler struct {
	data  *bundle.Data
	store *schedstore.Table
	opts  config.Options

	sorter    TraversalSorter
	sequencer SlicesSequencer
	threads   ThreadsCreator
}

// NewBundleScheduler creates a scheduler writing into store. Every member of
// d must already be registered in store.
func NewBundleScheduler(d *bundle.Data, store *schedstore.Table, opts config.Options) (*BundleScheduler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &BundleScheduler{
		data:      d,
		store:     store,
		opts:      opts,
		sorter:    NewTraversalSorter(),
		sequencer: NewSlicesSequencer(),
		threads:   NewThreadsCreator(),
	}, nil
}

// Plan validates the bundle and computes routes, traversal order, slice sets
// and threads without touching the annotations.
func (s *BundleScheduler) Plan(ctx context.Context) (*Plan, error) {
	logger := ctxlog.FromContext(ctx).With("bundle", s.data.Index)
	d := s.data

	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("bundle %d: %w", d.Index, ErrEmptyBundle)
	}
	for _, n := range d.Nodes {
		a, ok := s.store.Get(n)
		if !ok || a.BundleIndex != d.Index {
			return nil, fmt.Errorf("bundle %d node %q: %w", d.Index, d.Graph.Node(n).Name, schedstore.ErrMissingAnnotation)
		}
	}
	if err := d.Graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("bundle %d: %w", d.Index, err)
	}
	if s.opts.MemsetCtrlDepOptimization {
		if err := validateMemsetControlDeps(d); err != nil {
			return nil, fmt.Errorf("bundle %d: %w", d.Index, err)
		}
	}

	plan := &Plan{RouteEnds: sortedRouteEnds(d)}
	logger.Debug("Route ends gathered.", "count", len(plan.RouteEnds))

	creator, err := NewRoutesCreator(d, s.opts.RouteAlgorithm)
	if err != nil {
		return nil, err
	}
	if plan.Routes, err = creator.RoutesPerSlice(ctx, plan.RouteEnds); err != nil {
		return nil, fmt.Errorf("bundle %d: %w", d.Index, err)
	}

	plan.TraversalPattern = s.sorter.BundleViewsByTraversalOrder(d)
	logger.Debug("Traversal pattern computed.", "pattern", plan.TraversalPattern)

	if plan.Reductions, err = reductionInfo(d, plan.RouteEnds); err != nil {
		return nil, fmt.Errorf("bundle %d: %w", d.Index, err)
	}
	if plan.SliceSets, err = s.sequencer.SliceSetsSequence(ctx, plan.TraversalPattern, d, plan.Reductions, plan.RouteEnds); err != nil {
		return nil, fmt.Errorf("bundle %d: %w", d.Index, err)
	}
	if plan.Threads, err = s.threads.ThreadsSequence(plan.SliceSets, plan.Routes); err != nil {
		return nil, fmt.Errorf("bundle %d: %w", d.Index, err)
	}
	logger.Debug("Threads created.", "threads", len(plan.Threads))
	return plan, nil
}

// SetBundleNodesSchedule plans and schedules the bundle. A dry run schedules
// into a scratch copy of the store and leaves the annotations untouched. The
// boolean result reports whether every member received an operation index;
// errors are reserved for inconsistent input.
func (s *BundleScheduler) SetBundleNodesSchedule(ctx context.Context, dryRun bool) (bool, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return false, err
	}
	return s.Schedule(ctx, plan, dryRun)
}

// Schedule assigns operation and thread indices following a plan computed by
// Plan for this bundle. On error the store is left unchanged.
func (s *BundleScheduler) Schedule(ctx context.Context, plan *Plan, dryRun bool) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("bundle", s.data.Index, "dry_run", dryRun)

	// Work on a scratch copy; it is committed only after a real run succeeds,
	// so a failing pass leaves the annotations as they were.
	target := s.store.Clone()
	if _, err := NewNodesScheduler(s.data, target, s.opts).ScheduleNodes(ctx, plan.Threads, plan.RouteEnds, s.data.PipelineDepth); err != nil {
		return false, fmt.Errorf("bundle %d: %w", s.data.Index, err)
	}

	complete := s.verify(ctx, target)
	if !dryRun {
		s.store.Replace(target)
	}
	logger.Debug("Bundle scheduled.", "complete", complete, "threads", len(plan.Threads))
	return complete, nil
}

// verify checks that every member carries a valid operation index.
func (s *BundleScheduler) verify(ctx context.Context, store *schedstore.Table) bool {
	logger := ctxlog.FromContext(ctx)
	ok := true
	for _, n := range s.data.Nodes {
		a, found := store.Get(n)
		if !found || !a.Scheduled() {
			logger.Info("Bundle node has no operation index.", "bundle", s.data.Index, "node", s.data.Graph.Node(n).Name)
			ok = false
		}
	}
	return ok
}

// sortedRouteEnds returns the joins and reductions of the bundle in id order.
func sortedRouteEnds(d *bundle.Data) []bundle.NodeID {
	ends := d.RouteEnds()
	sort.Slice(ends, func(i, j int) bool { return ends[i] < ends[j] })
	return ends
}
