package scheduler

import "errors"

var (
	// ErrEmptyBundle is returned when a bundle has no member nodes.
	ErrEmptyBundle = errors.New("bundle has no nodes")
	// ErrNoReducedBVDs is returned when the inputs of a reduction share one coordinate.
	ErrNoReducedBVDs = errors.New("reduction has no reduced bvds")
	// ErrLayerCountMismatch is returned when the routes of one slice set are split differently.
	ErrLayerCountMismatch = errors.New("slices in a set have different route layer counts")
	// ErrDuplicateTraversalBVD is returned when a traversal pattern names a BVD twice.
	ErrDuplicateTraversalBVD = errors.New("traversal pattern bvds are not unique")
	// ErrMissingProducer is returned when a route reaches a slice produced outside the bundle.
	ErrMissingProducer = errors.New("slice has no in-bundle producer")
	// ErrMissingSliceCoord is returned when a route-end input slice has no recorded coordinate.
	ErrMissingSliceCoord = errors.New("route-end input slice has no coordinate")
	// ErrMissingRoute is returned when a sequenced slice has no route.
	ErrMissingRoute = errors.New("slice has no route")
	// ErrMemsetCtrlDep is returned when a memset is not ordered before the other
	// producers of its reduction.
	ErrMemsetCtrlDep = errors.New("memset is missing a control edge to a reduction producer")
	// ErrNoSliceSets is returned when no route-end input slice lies in the traversal space.
	ErrNoSliceSets = errors.New("route ends exist but no slice set was produced")
	// ErrUnknownBVD is returned when a traversal pattern names a BVD the bundle lacks.
	ErrUnknownBVD = errors.New("unknown bvd")
)
