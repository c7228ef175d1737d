package config

import (
	"fmt"
	"strings"
)

// RouteAlgorithm selects how routes are built from a slice back to the bundle inputs.
type RouteAlgorithm string

const (
	// RouteDFS builds post-order routes by depth-first recursion.
	RouteDFS RouteAlgorithm = "dfs"
	// RouteBFS builds leaves-to-root routes with an explicit queue.
	RouteBFS RouteAlgorithm = "bfs"
)

// ParseRouteAlgorithm accepts "dfs" or "bfs" in any case.
func ParseRouteAlgorithm(s string) (RouteAlgorithm, error) {
	switch a := RouteAlgorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case RouteDFS, RouteBFS:
		return a, nil
	default:
		return "", fmt.Errorf("invalid route algorithm %q: must be 'dfs' or 'bfs'", s)
	}
}

// Options are the scheduler switches.
type Options struct {
	RouteAlgorithm RouteAlgorithm
	// MemsetCtrlDepOptimization relies on explicit memset control edges into
	// reductions, which are then validated before scheduling.
	MemsetCtrlDepOptimization bool
	// PrefetchNextThread admits the next pending thread as soon as a thread
	// retires while all remaining active threads have started.
	PrefetchNextThread bool
	// PreferSameThread keeps consuming a thread while every other active
	// thread waits on the node just scheduled.
	PreferSameThread bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		RouteAlgorithm:            RouteDFS,
		MemsetCtrlDepOptimization: true,
		PrefetchNextThread:        true,
		PreferSameThread:          true,
	}
}

// Validate checks the option values.
func (o Options) Validate() error {
	if _, err := ParseRouteAlgorithm(string(o.RouteAlgorithm)); err != nil {
		return err
	}
	return nil
}
