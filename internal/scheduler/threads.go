package scheduler

import (
	"fmt"

	"github.com/specialistvlad/bundlesched/internal/bundle"
)

// layeredThreadsCreator interleaves the routes of a slice set layer by layer
// and keeps the first occurrence of every node.
type layeredThreadsCreator struct{}

func (layeredThreadsCreator) ThreadsSequence(sets []SliceSet, routes RoutesTable) ([]Thread, error) {
	threads := make([]Thread, 0, len(sets))
	for i, set := range sets {
		layers := -1
		for _, slice := range set.Slices {
			segs, ok := routes[slice]
			if !ok {
				return nil, fmt.Errorf("slice %d in set %d: %w", slice, i, ErrMissingRoute)
			}
			if layers == -1 {
				layers = len(segs)
			} else if len(segs) != layers {
				return nil, fmt.Errorf("set %d: %d and %d layers: %w", i, layers, len(segs), ErrLayerCountMismatch)
			}
		}

		var nodes []bundle.NodeID
		seen := make(map[bundle.NodeID]bool)
		for layer := 0; layer < layers; layer++ {
			for _, slice := range set.Slices {
				for _, n := range routes[slice][layer] {
					if seen[n] {
						continue
					}
					seen[n] = true
					nodes = append(nodes, n)
				}
			}
		}
		threads = append(threads, Thread{Index: i, Nodes: nodes})
	}
	return threads, nil
}
