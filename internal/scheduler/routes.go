package scheduler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
)

// routeFunc builds the unsplit route of one slice.
type routeFunc func(slice bundle.TensorID) (Route, error)

// buildRoutes visits every input slice of every route end once and stores
// its route split at the MME boundary.
func buildRoutes(ctx context.Context, d *bundle.Data, routeEnds []bundle.NodeID, routeOf routeFunc) (RoutesTable, error) {
	logger := ctxlog.FromContext(ctx)
	table := make(RoutesTable)

	for _, end := range routeEnds {
		endNode := d.Graph.Node(end)
		if endNode == nil {
			return nil, fmt.Errorf("route end %d: %w", end, bundle.ErrUnknownNode)
		}
		for _, slice := range endNode.Inputs() {
			if _, done := table[slice]; done {
				continue
			}
			route, err := routeOf(slice)
			if err != nil {
				return nil, fmt.Errorf("route end %q: %w", endNode.Name, err)
			}
			table[slice] = splitAtMME(d, route)
			logger.Debug("Route built.", "route_end", endNode.Name, "slice", d.Graph.Tensor(slice).Name, "nodes", len(route))
		}
	}
	return table, nil
}

// splitAtMME cuts a route into the nodes feeding the first MME and the MME
// onward. An MME without in-bundle producers stays in the first segment so
// that neither segment is left empty. Without an MME the whole route is the
// second segment.
func splitAtMME(d *bundle.Data, route Route) RouteSegments {
	for i, n := range route {
		if !d.Graph.Node(n).RunsOnMME() {
			continue
		}
		cut := i
		if !hasBundleProducers(d, n) {
			cut = i + 1
		}
		return RouteSegments{
			append(Route(nil), route[:cut]...),
			append(Route(nil), route[cut:]...),
		}
	}
	return RouteSegments{Route{}, append(Route(nil), route...)}
}

func hasBundleProducers(d *bundle.Data, n bundle.NodeID) bool {
	for _, p := range d.Graph.DataProducers(n) {
		if d.InBundle(p) && !d.Graph.Node(p).IsForkNode() {
			return true
		}
	}
	return false
}

// routeProducer reports whether n is an in-bundle node a route may contain.
// Forks are scheduled up front and never belong to a route.
func routeProducer(d *bundle.Data, n bundle.NodeID) bool {
	return n != bundle.None && d.InBundle(n) && !d.Graph.Node(n).IsForkNode()
}
