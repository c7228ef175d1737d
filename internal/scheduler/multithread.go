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

// threadState tracks an active thread: it starts once one of its
// non-logical nodes has been scheduled.
type threadState int

const (
	threadNotStarted threadState = iota
	threadStarted
)

type activeThread struct {
	thread Thread
	pos    int
	state  threadState
}

// multiThreadScheduler assigns a global, increasing operation index to the
// nodes of a thread sequence. At most pipelineDepth threads are active at a
// time and they are served round-robin.
type multiThreadScheduler struct {
	data  *bundle.Data
	store schedstore.Store
	opts  config.Options

	next int
}

func newMultiThreadScheduler(d *bundle.Data, store schedstore.Store, opts config.Options) *multiThreadScheduler {
	return &multiThreadScheduler{data: d, store: store, opts: opts}
}

// ScheduleNodes schedules forks, then the threads, then the route ends
// together with whatever no thread reached. It returns whether every member of the bundle
// ended up with an operation index.
func (s *multiThreadScheduler) ScheduleNodes(ctx context.Context, threads []Thread, routeEnds []bundle.NodeID, pipelineDepth int) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("bundle", s.data.Index)
	if pipelineDepth < 1 {
		pipelineDepth = 1
	}
	// Indices keep increasing across bundles scheduled into the same store.
	s.next = s.store.MaxOperationIndex() + 1

	for _, n := range s.data.Nodes {
		if s.data.Graph.Node(n).IsForkNode() {
			if err := s.schedule(n, nil); err != nil {
				return false, err
			}
		}
	}

	pending := append([]Thread(nil), threads...)
	var active []*activeThread

	for len(active) > 0 || len(pending) > 0 {
		// Admitted threads go ahead of the active ones, in pending order.
		var admitted []*activeThread
		for len(active)+len(admitted) < pipelineDepth && len(pending) > 0 {
			admitted = append(admitted, &activeThread{thread: pending[0]})
			logger.Debug("Thread admitted.", "thread", pending[0].Index)
			pending = pending[1:]
		}
		active = append(admitted, active...)

		for i := 0; i < len(active); {
			t := active[i]
			if err := s.serve(t, active); err != nil {
				return false, err
			}
			if _, ok := s.peek(t); ok {
				i++
				continue
			}

			logger.Debug("Thread retired.", "thread", t.thread.Index)
			active = append(active[:i], active[i+1:]...)
			if s.opts.PrefetchNextThread && len(pending) > 0 && allStarted(active) {
				// The prefetched thread takes the retired slot and is served
				// before the rest of this round.
				next := &activeThread{thread: pending[0]}
				pending = pending[1:]
				active = append(active[:i], append([]*activeThread{next}, active[i:]...)...)
				logger.Debug("Thread prefetched.", "thread", next.thread.Index)
			}
		}
	}

	// Route ends and the members no thread reached share one topological
	// order, so a control or data predecessor of a route end that was left
	// out of every route still comes first.
	isEnd := make(map[bundle.NodeID]bool, len(routeEnds))
	for _, end := range routeEnds {
		isEnd[end] = true
	}
	tail := s.unscheduled()
	var names []string
	for _, n := range tail {
		if !isEnd[n] {
			names = append(names, s.data.Graph.Node(n).Name)
		}
	}
	if len(names) > 0 {
		logger.Warn("Bundle nodes were not reached by any thread, scheduling them last.", "nodes", names)
	}
	for _, n := range topoOrder(s.data, tail) {
		if err := s.schedule(n, nil); err != nil {
			return false, err
		}
	}

	return len(s.unscheduled()) == 0, nil
}

// serve schedules nodes of t until it should yield. It keeps going while
// only logical nodes were scheduled in this turn, or, with PreferSameThread,
// while every other active thread's next node reads the node just scheduled.
func (s *multiThreadScheduler) serve(t *activeThread, active []*activeThread) error {
	scheduledReal := false
	for {
		n, ok := s.peek(t)
		if !ok {
			return nil
		}
		thread := t.thread.Index
		if err := s.schedule(n, &thread); err != nil {
			return err
		}
		t.pos++

		if !s.data.Graph.Node(n).IsLogicalOperation() {
			scheduledReal = true
			t.state = threadStarted
		}
		if !scheduledReal {
			continue
		}
		if s.opts.PreferSameThread && s.othersWaitOn(n, t, active) {
			continue
		}
		return nil
	}
}

// peek skips nodes another thread already scheduled and returns the next
// node of t still to schedule.
func (s *multiThreadScheduler) peek(t *activeThread) (bundle.NodeID, bool) {
	for t.pos < len(t.thread.Nodes) {
		n := t.thread.Nodes[t.pos]
		if a, ok := s.store.Get(n); ok && a.Scheduled() {
			t.pos++
			continue
		}
		return n, true
	}
	return bundle.None, false
}

func (s *multiThreadScheduler) othersWaitOn(n bundle.NodeID, self *activeThread, active []*activeThread) bool {
	for _, o := range active {
		if o == self {
			continue
		}
		next, ok := s.peek(o)
		if !ok {
			continue
		}
		if !s.data.Graph.DependsOnData(next, n) {
			return false
		}
	}
	return true
}

// schedule gives n the next operation index unless it already has one, and
// records its thread when given.
func (s *multiThreadScheduler) schedule(n bundle.NodeID, thread *int) error {
	if _, ok := s.store.Get(n); !ok {
		return fmt.Errorf("node %q: %w", s.data.Graph.Node(n).Name, schedstore.ErrMissingAnnotation)
	}
	wrote, err := s.store.SetOperationIndex(n, s.next)
	if err != nil {
		return err
	}
	if !wrote {
		return nil
	}
	s.next++
	if thread != nil {
		if err := s.store.SetThreadIndex(n, *thread); err != nil {
			return err
		}
	}
	return nil
}

func (s *multiThreadScheduler) unscheduled() []bundle.NodeID {
	var out []bundle.NodeID
	for _, n := range s.data.Nodes {
		if a, ok := s.store.Get(n); !ok || !a.Scheduled() {
			out = append(out, n)
		}
	}
	return out
}

func allStarted(active []*activeThread) bool {
	for _, t := range active {
		if t.state != threadStarted {
			return false
		}
	}
	return true
}

// topoOrder sorts nodes with Kahn's algorithm over the data and control
// edges among them, lowest id first on ties. Nodes left on a cycle follow in
// id order.
func topoOrder(d *bundle.Data, nodes []bundle.NodeID) []bundle.NodeID {
	g := d.Graph
	within := make(map[bundle.NodeID]bool, len(nodes))
	for _, n := range nodes {
		within[n] = true
	}

	inDeg := make(map[bundle.NodeID]int, len(nodes))
	dependents := make(map[bundle.NodeID][]bundle.NodeID)
	for _, n := range nodes {
		preds := append(g.DataProducers(n), g.ControlInputs(n)...)
		seen := make(map[bundle.NodeID]bool)
		for _, p := range preds {
			if !within[p] || seen[p] {
				continue
			}
			seen[p] = true
			inDeg[n]++
			dependents[p] = append(dependents[p], n)
		}
	}

	var ready []bundle.NodeID
	for _, n := range nodes {
		if inDeg[n] == 0 {
			ready = append(ready, n)
		}
	}

	out := make([]bundle.NodeID, 0, len(nodes))
	done := make(map[bundle.NodeID]bool, len(nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		done[n] = true
		for _, dep := range dependents[n] {
			inDeg[dep]--
			if inDeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) < len(nodes) {
		for _, n := range nodes {
			if !done[n] {
				out = append(out, n)
			}
		}
	}
	return out
}
