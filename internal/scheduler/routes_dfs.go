package scheduler

import (
	"context"

	"github.com/specialistvlad/bundlesched/internal/bundle"
)

// dfsRoutesCreator builds post-order routes: a producer is appended after
// everything it reads, data inputs first, then control inputs. A node reached
// through several branches appears once per branch; threads deduplicate.
type dfsRoutesCreator struct {
	data *bundle.Data
}

func (c *dfsRoutesCreator) RoutesPerSlice(ctx context.Context, routeEnds []bundle.NodeID) (RoutesTable, error) {
	return buildRoutes(ctx, c.data, routeEnds, c.route)
}

func (c *dfsRoutesCreator) route(slice bundle.TensorID) (Route, error) {
	var route Route
	c.visitSlice(slice, &route)
	return route, nil
}

// visitSlice adds nothing for slices without an in-bundle producer; they
// come from outside the bundle or from a fork.
func (c *dfsRoutesCreator) visitSlice(slice bundle.TensorID, route *Route) {
	p := c.data.InBundleProducer(slice)
	if !routeProducer(c.data, p) {
		return
	}
	c.visitNode(p, route)
}

func (c *dfsRoutesCreator) visitNode(n bundle.NodeID, route *Route) {
	g := c.data.Graph
	for _, in := range g.Node(n).Inputs() {
		c.visitSlice(in, route)
	}
	for _, ctrl := range g.ControlInputs(n) {
		if routeProducer(c.data, ctrl) {
			c.visitNode(ctrl, route)
		}
	}
	*route = append(*route, n)
}
