package scheduler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/specialistvlad/bundlesched/internal/schedstore"
)

// Route is the ordered list of in-bundle nodes computing one slice.
type Route []bundle.NodeID

// RouteSegments are the layers of one slice's route: the nodes feeding the
// MME, then the MME onward.
type RouteSegments []Route

// RoutesTable maps every route-end input slice to its segments.
type RoutesTable map[bundle.TensorID]RouteSegments

// SliceSet is a group of route-end input slices sharing one BVD coordinate.
type SliceSet struct {
	Coord  bundle.BVDCoord
	Slices []bundle.TensorID
}

// Thread is the merged node sequence of one slice set.
type Thread struct {
	Index int
	Nodes []bundle.NodeID
}

// ReductionInfo describes the reduction consuming a slice and the BVDs whose
// partial results it accumulates.
type ReductionInfo struct {
	Consumer    bundle.NodeID
	ReducedBVDs []bundle.BVD
}

// SliceToReductionInfo is keyed by the reduction's input slices.
type SliceToReductionInfo map[bundle.TensorID]ReductionInfo

// TraversalSorter orders the sliced BVDs, outermost first.
type TraversalSorter interface {
	BundleViewsByTraversalOrder(d *bundle.Data) []bundle.BVD
}

// RoutesCreator builds the routes of every input slice of the route ends.
type RoutesCreator interface {
	RoutesPerSlice(ctx context.Context, routeEnds []bundle.NodeID) (RoutesTable, error)
}

// SlicesSequencer groups route-end input slices into ordered sets.
type SlicesSequencer interface {
	SliceSetsSequence(
		ctx context.Context,
		traversalPattern []bundle.BVD,
		d *bundle.Data,
		reductions SliceToReductionInfo,
		routeEnds []bundle.NodeID,
	) ([]SliceSet, error)
}

// ThreadsCreator turns slice sets into threads, one per set, same order.
type ThreadsCreator interface {
	ThreadsSequence(sets []SliceSet, routes RoutesTable) ([]Thread, error)
}

// NodesScheduler assigns operation and thread indices.
type NodesScheduler interface {
	ScheduleNodes(ctx context.Context, threads []Thread, routeEnds []bundle.NodeID, pipelineDepth int) (bool, error)
}

// NewTraversalSorter returns the BVD sorter driven by MME walk patterns.
func NewTraversalSorter() TraversalSorter {
	return bvdTraversalSorter{}
}

// NewRoutesCreator returns the routes creator selected by alg.
func NewRoutesCreator(d *bundle.Data, alg config.RouteAlgorithm) (RoutesCreator, error) {
	switch alg {
	case config.RouteDFS:
		return &dfsRoutesCreator{data: d}, nil
	case config.RouteBFS:
		return &bfsRoutesCreator{data: d}, nil
	default:
		return nil, fmt.Errorf("unsupported route algorithm %q", alg)
	}
}

// NewSlicesSequencer returns the coordinate-space sequencer.
func NewSlicesSequencer() SlicesSequencer {
	return outputSlicesSequencer{}
}

// NewThreadsCreator returns the layer-interleaving threads creator.
func NewThreadsCreator() ThreadsCreator {
	return layeredThreadsCreator{}
}

// NewNodesScheduler returns the pipelined round-robin scheduler writing into store.
func NewNodesScheduler(d *bundle.Data, store schedstore.Store, opts config.Options) NodesScheduler {
	return newMultiThreadScheduler(d, store, opts)
}
