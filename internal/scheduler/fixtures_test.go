package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
	"github.com/specialistvlad/bundlesched/internal/schedstore"
	"github.com/specialistvlad/bundlesched/internal/testutil"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.Discard(context.Background())
}

// capturingContext returns a context whose logger writes text records to buf.
func capturingContext(buf *bytes.Buffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// pipelineBundle builds n slices along one sliced bvd. Every slice is
// computed by pre_i feeding the MME mm_i, so each route has a prefix and a
// postfix layer.
func pipelineBundle(t *testing.T, slices, depth int) *testutil.BundleBuilder {
	t.Helper()
	b := testutil.NewBundle(t)
	b.BVD(slices)

	xs := make([]string, slices)
	ms := make([]string, slices)
	for i := range xs {
		xs[i] = fmt.Sprintf("x%d", i)
		ms[i] = fmt.Sprintf("m%d", i)
	}
	b.Node("fork", bundle.KindFork, []string{"x"}, xs)
	for i := 0; i < slices; i++ {
		b.Node(fmt.Sprintf("pre%d", i), bundle.KindRegular, []string{xs[i]}, []string{fmt.Sprintf("a%d", i)})
		b.Node(fmt.Sprintf("mm%d", i), bundle.KindMME, []string{fmt.Sprintf("a%d", i), "w"}, []string{ms[i]})
	}
	b.Node("join", bundle.KindJoin, ms, []string{"y"})
	for i, m := range ms {
		b.Coord(m, i)
	}
	return b.Depth(depth)
}

// matmulBundle builds C[n] = sum_k A[n,k] * B[k] with two slices on n and
// k: per n a memset clears the accumulator, two MMEs produce partials and a
// reduction sums them; a join reassembles C.
func matmulBundle(t *testing.T) *testutil.BundleBuilder {
	t.Helper()
	b := testutil.NewBundle(t)
	b.BVD(2) // n
	b.BVD(2) // k

	b.Node("fork_a", bundle.KindFork, []string{"A"}, []string{"a00", "a01", "a10", "a11"})
	b.Node("fork_b", bundle.KindFork, []string{"B"}, []string{"b0", "b1"})
	for n := 0; n < 2; n++ {
		b.Node(fmt.Sprintf("ms%d", n), bundle.KindMemset, nil, []string{fmt.Sprintf("zero%d", n)})
	}
	for n := 0; n < 2; n++ {
		for k := 0; k < 2; k++ {
			name := fmt.Sprintf("mm%d%d", n, k)
			b.Node(name, bundle.KindMME, []string{fmt.Sprintf("a%d%d", n, k), fmt.Sprintf("b%d", k)}, []string{fmt.Sprintf("p%d%d", n, k)})
			b.Control(fmt.Sprintf("ms%d", n), name)
		}
	}
	for n := 0; n < 2; n++ {
		b.Node(fmt.Sprintf("r%d", n), bundle.KindReduction,
			[]string{fmt.Sprintf("zero%d", n), fmt.Sprintf("p%d0", n), fmt.Sprintf("p%d1", n)},
			[]string{fmt.Sprintf("c%d", n)})
		b.Coord(fmt.Sprintf("zero%d", n), n, 0)
		b.Coord(fmt.Sprintf("p%d0", n), n, 0)
		b.Coord(fmt.Sprintf("p%d1", n), n, 1)
		b.Coord(fmt.Sprintf("c%d", n), n, 0)
	}
	b.Node("join", bundle.KindJoin, []string{"c0", "c1"}, []string{"C"})
	return b.Depth(2)
}

func opIndex(t *testing.T, store *schedstore.Table, n bundle.NodeID) int {
	t.Helper()
	a, ok := store.Get(n)
	require.True(t, ok)
	return a.OperationIndex
}

func threadIndex(t *testing.T, store *schedstore.Table, n bundle.NodeID) (int, bool) {
	t.Helper()
	a, ok := store.Get(n)
	require.True(t, ok)
	if a.ThreadIndex == nil {
		return 0, false
	}
	return *a.ThreadIndex, true
}

// requireValidSchedule checks the ordering guarantees every schedule must
// meet: all members scheduled with distinct indices, and every member after
// its in-bundle data producers and control inputs.
func requireValidSchedule(t *testing.T, d *bundle.Data, store *schedstore.Table) {
	t.Helper()
	g := d.Graph
	seen := make(map[int]string)
	for _, n := range d.Nodes {
		idx := opIndex(t, store, n)
		name := g.Node(n).Name
		require.Positive(t, idx, "node %s was not scheduled", name)
		other, dup := seen[idx]
		require.False(t, dup, "nodes %s and %s share index %d", name, other, idx)
		seen[idx] = name

		preds := append(g.DataProducers(n), g.ControlInputs(n)...)
		for _, p := range preds {
			if !d.InBundle(p) {
				continue
			}
			require.Less(t, opIndex(t, store, p), idx, "%s must precede %s", g.Node(p).Name, name)
		}
	}
}
