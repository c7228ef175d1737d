package schedstore

import (
	"testing"

	"github.com/specialistvlad/bundlesched/internal/bundle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	s := New()

	// Get a node that was never registered
	_, ok := s.Get(1)
	assert.False(t, ok)

	s.Register(1, 4)
	a, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, Annotation{BundleIndex: 4}, a)
	assert.False(t, a.Scheduled())
}

func TestSetOperationIndex(t *testing.T) {
	s := New()
	s.Register(1, 1)

	wrote, err := s.SetOperationIndex(1, 5)
	require.NoError(t, err)
	assert.True(t, wrote)

	// The first writer wins.
	wrote, err = s.SetOperationIndex(1, 6)
	require.NoError(t, err)
	assert.False(t, wrote)

	a, _ := s.Get(1)
	assert.Equal(t, 5, a.OperationIndex)
	assert.True(t, a.Scheduled())
	assert.Equal(t, 5, s.MaxOperationIndex())

	_, err = s.SetOperationIndex(2, 1)
	assert.ErrorIs(t, err, ErrMissingAnnotation)
	s.Register(3, 1)
	_, err = s.SetOperationIndex(3, Unscheduled)
	assert.Error(t, err)
}

func TestSetThreadIndex(t *testing.T) {
	s := New()
	s.Register(1, 1)

	require.NoError(t, s.SetThreadIndex(1, 0))
	assert.ErrorIs(t, s.SetThreadIndex(1, 2), ErrThreadAlreadyAssigned)
	assert.ErrorIs(t, s.SetThreadIndex(9, 0), ErrMissingAnnotation)

	a, _ := s.Get(1)
	require.NotNil(t, a.ThreadIndex)
	assert.Equal(t, 0, *a.ThreadIndex)

	// Get hands out copies.
	*a.ThreadIndex = 7
	again, _ := s.Get(1)
	assert.Equal(t, 0, *again.ThreadIndex)
}

func TestRegisterKeepsSchedule(t *testing.T) {
	s := New()
	s.Register(1, 1)
	_, err := s.SetOperationIndex(1, 3)
	require.NoError(t, err)

	s.Register(1, 2)

	a, _ := s.Get(1)
	assert.Equal(t, Annotation{BundleIndex: 2, OperationIndex: 3}, a)
}

func TestRegisterBundle(t *testing.T) {
	g := bundle.NewGraph()
	a, err := g.AddNode("a", bundle.KindRegular, nil, nil)
	require.NoError(t, err)
	b, err := g.AddNode("b", bundle.KindRegular, nil, nil)
	require.NoError(t, err)
	d, err := bundle.NewData(g, 7, []bundle.NodeID{a, b}, nil)
	require.NoError(t, err)
	s := New()

	s.RegisterBundle(d)

	assert.Equal(t, []Entry{
		{Node: a, Annotation: Annotation{BundleIndex: 7}},
		{Node: b, Annotation: Annotation{BundleIndex: 7}},
	}, s.Snapshot())
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Register(1, 1)
	s.Register(2, 1)

	c := s.Clone()
	_, err := c.SetOperationIndex(1, 1)
	require.NoError(t, err)
	require.NoError(t, c.SetThreadIndex(2, 0))

	assert.Zero(t, s.MaxOperationIndex())
	a, _ := s.Get(2)
	assert.Nil(t, a.ThreadIndex)

	s.Replace(c)
	assert.Equal(t, c.Snapshot(), s.Snapshot())
}

func TestSnapshotOrderedByNode(t *testing.T) {
	s := New()
	for _, n := range []bundle.NodeID{5, 1, 3} {
		s.Register(n, 1)
	}

	snap := s.Snapshot()

	require.Len(t, snap, 3)
	assert.Equal(t, []bundle.NodeID{1, 3, 5}, []bundle.NodeID{snap[0].Node, snap[1].Node, snap[2].Node})
}
