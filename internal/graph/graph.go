// Package graph holds the friendship relation as a set of unordered pairs, so that
// symmetry holds by construction rather than by mirrored inserts.
package graph

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
)

type edge struct {
	a, b uuid.UUID
}

func newEdge(u1, u2 uuid.UUID) edge {
	f := models.NewFriendship(u1, u2)
	return edge{a: f.UserA, b: f.UserB}
}

// Graph is an undirected friendship graph. The zero value is not usable, use New.
// Neighbor lists keep insertion order.
type Graph struct {
	edges map[edge]struct{}
	adj   map[uuid.UUID][]uuid.UUID
}

func New() *Graph {
	return &Graph{
		edges: make(map[edge]struct{}),
		adj:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// Add inserts the edge {u1, u2}. Self loops and existing edges are ignored.
// It reports whether the graph changed.
func (g *Graph) Add(u1, u2 uuid.UUID) bool {
	if u1 == u2 {
		return false
	}
	e := newEdge(u1, u2)
	if _, ok := g.edges[e]; ok {
		return false
	}
	g.edges[e] = struct{}{}
	g.adj[u1] = append(g.adj[u1], u2)
	g.adj[u2] = append(g.adj[u2], u1)
	return true
}

// Remove deletes the edge {u1, u2} and reports whether it existed.
func (g *Graph) Remove(u1, u2 uuid.UUID) bool {
	e := newEdge(u1, u2)
	if _, ok := g.edges[e]; !ok {
		return false
	}
	delete(g.edges, e)
	g.adj[u1] = without(g.adj[u1], u2)
	g.adj[u2] = without(g.adj[u2], u1)
	return true
}

// Connected reports whether u1 and u2 are friends.
func (g *Graph) Connected(u1, u2 uuid.UUID) bool {
	_, ok := g.edges[newEdge(u1, u2)]
	return ok
}

// Neighbors returns a copy of u's friends in insertion order.
func (g *Graph) Neighbors(u uuid.UUID) []uuid.UUID {
	n := g.adj[u]
	out := make([]uuid.UUID, len(n))
	copy(out, n)
	return out
}

func without(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
