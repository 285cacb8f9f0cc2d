package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIsSymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g := New()

	require.True(t, g.Add(a, b))
	assert.True(t, g.Connected(a, b))
	assert.True(t, g.Connected(b, a))
	assert.Equal(t, []uuid.UUID{b}, g.Neighbors(a))
	assert.Equal(t, []uuid.UUID{a}, g.Neighbors(b))

	// the reverse insert is the same edge
	assert.False(t, g.Add(b, a))
	assert.Len(t, g.Neighbors(a), 1)
}

func TestSelfLoopIgnored(t *testing.T) {
	a := uuid.New()
	g := New()
	assert.False(t, g.Add(a, a))
	assert.False(t, g.Connected(a, a))
	assert.Empty(t, g.Neighbors(a))
}

func TestRemove(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g := New()
	g.Add(a, b)
	g.Add(a, c)

	require.True(t, g.Remove(b, a))
	assert.False(t, g.Connected(a, b))
	assert.Equal(t, []uuid.UUID{c}, g.Neighbors(a))
	assert.Empty(t, g.Neighbors(b))
	assert.False(t, g.Remove(a, b))
}

func TestNeighborsIsACopy(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g := New()
	g.Add(a, b)

	n := g.Neighbors(a)
	n[0] = uuid.Nil
	assert.Equal(t, []uuid.UUID{b}, g.Neighbors(a))
}
