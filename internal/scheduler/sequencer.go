package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
)

// outputSlicesSequencer enumerates the BVD coordinate space in traversal
// order and collects, per coordinate, the route-end input slices recorded
// there.
type outputSlicesSequencer struct{}

func (outputSlicesSequencer) SliceSetsSequence(
	ctx context.Context,
	traversalPattern []bundle.BVD,
	d *bundle.Data,
	reductions SliceToReductionInfo,
	routeEnds []bundle.NodeID,
) ([]SliceSet, error) {
	logger := ctxlog.FromContext(ctx)

	limits, err := coordinateLimits(traversalPattern, d)
	if err != nil {
		return nil, err
	}

	// Bucket every route-end input slice by its effective coordinate.
	buckets := make(map[string][]bundle.TensorID)
	seen := make(map[bundle.TensorID]bool)
	for _, end := range routeEnds {
		for _, slice := range d.Graph.Node(end).Inputs() {
			if seen[slice] {
				continue
			}
			seen[slice] = true

			coord, ok := d.Coord(slice)
			if !ok {
				return nil, fmt.Errorf("slice %q of %q: %w", d.Graph.Tensor(slice).Name, d.Graph.Node(end).Name, ErrMissingSliceCoord)
			}
			coord = coord.Clone()
			// Partial results of a reduction wait for the set of its last
			// input along every reduced BVD.
			if info, ok := reductions[slice]; ok {
				for _, b := range info.ReducedBVDs {
					coord[b] = limits[b] - 1
				}
			}
			key := coordKey(coord)
			buckets[key] = append(buckets[key], slice)
		}
	}

	var sets []SliceSet
	collected := 0
	coord := make(bundle.BVDCoord, d.NumBVDs())
	for {
		if slices := buckets[coordKey(coord)]; len(slices) > 0 {
			sets = append(sets, SliceSet{Coord: coord.Clone(), Slices: slices})
			collected += len(slices)
		}
		if !nextCoord(coord, traversalPattern, limits) {
			break
		}
	}

	if dropped := len(seen) - collected; dropped > 0 {
		logger.Debug("Slices outside the traversal space were not sequenced.", "count", dropped)
	}
	if len(routeEnds) > 0 && len(sets) == 0 {
		return nil, ErrNoSliceSets
	}
	logger.Debug("Slice sets sequenced.", "sets", len(sets), "slices", collected)
	return sets, nil
}

// coordinateLimits gives every BVD in the pattern its slice count and
// collapses all others to a single index.
func coordinateLimits(pattern []bundle.BVD, d *bundle.Data) ([]int, error) {
	limits := make([]int, d.NumBVDs())
	for i := range limits {
		limits[i] = 1
	}
	seen := make(map[bundle.BVD]bool, len(pattern))
	for _, b := range pattern {
		if b < 0 || int(b) >= d.NumBVDs() {
			return nil, fmt.Errorf("bvd %d: %w", b, ErrUnknownBVD)
		}
		if seen[b] {
			return nil, fmt.Errorf("bvd %d: %w", b, ErrDuplicateTraversalBVD)
		}
		seen[b] = true
		if d.IsSliced(b) {
			limits[b] = d.NumSlices(b)
		}
	}
	return limits, nil
}

// nextCoord advances coord like an odometer whose first pattern entry is the
// slowest digit. It returns false once the space is exhausted.
func nextCoord(coord bundle.BVDCoord, pattern []bundle.BVD, limits []int) bool {
	for i := len(pattern) - 1; i >= 0; i-- {
		b := pattern[i]
		coord[b]++
		if coord[b] < limits[b] {
			return true
		}
		coord[b] = 0
	}
	return false
}

func coordKey(coord bundle.BVDCoord) string {
	parts := make([]string, len(coord))
	for i, v := range coord {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
