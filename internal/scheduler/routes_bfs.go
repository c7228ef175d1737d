package scheduler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/bundlesched/internal/bundle"
)

// bfsRoutesCreator walks backward from a slice's producer breadth first and
// emits the visited nodes leaves first. A node with several dependents is
// queued once per dependent; its last visit is the one that ends up first in
// the route, ahead of all of its dependents.
type bfsRoutesCreator struct {
	data *bundle.Data
}

func (c *bfsRoutesCreator) RoutesPerSlice(ctx context.Context, routeEnds []bundle.NodeID) (RoutesTable, error) {
	return buildRoutes(ctx, c.data, routeEnds, c.route)
}

func (c *bfsRoutesCreator) route(slice bundle.TensorID) (Route, error) {
	g := c.data.Graph
	root := c.data.InBundleProducer(slice)
	if root == bundle.None {
		return nil, fmt.Errorf("slice %q: %w", g.Tensor(slice).Name, ErrMissingProducer)
	}
	if g.Node(root).IsForkNode() {
		return Route{}, nil
	}

	var visits Route
	queue := []bundle.NodeID{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visits = append(visits, n)

		for _, in := range g.Node(n).Inputs() {
			if p := c.data.InBundleProducer(in); routeProducer(c.data, p) {
				queue = append(queue, p)
			}
		}
		for _, ctrl := range g.ControlInputs(n) {
			if routeProducer(c.data, ctrl) {
				queue = append(queue, ctrl)
			}
		}
	}

	// Every visit is pushed to the front of the route.
	route := make(Route, len(visits))
	for i, n := range visits {
		route[len(visits)-1-i] = n
	}
	return route, nil
}
