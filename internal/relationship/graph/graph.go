// Package graph holds the relationship graph algorithms. It is stateless with
// respect to storage: callers materialize the edge list, in a reproducible
// order, and the package builds an adjacency index per query.
package graph

import (
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
)

// Graph is an undirected traversal index over a flat edge list. Each edge is
// reachable from both endpoints; neighbor order is edge insertion order.
type Graph struct {
	edges []*models.Relationship
	adj   map[id.PersonID][]int
}

// New indexes edges in the given order.
func New(edges []*models.Relationship) *Graph {
	g := &Graph{
		edges: edges,
		adj:   make(map[id.PersonID][]int, len(edges)),
	}
	for i, e := range edges {
		g.adj[e.Person1ID] = append(g.adj[e.Person1ID], i)
		g.adj[e.Person2ID] = append(g.adj[e.Person2ID], i)
	}
	return g
}

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) *models.Relationship { return g.edges[i] }

// Neighbors returns the edge indices touching p, in insertion order.
func (g *Graph) Neighbors(p id.PersonID) []int { return g.adj[p] }

// Len is the number of indexed edges.
func (g *Graph) Len() int { return len(g.edges) }

// Link is one lineal hop: the related person and the qualifier of the edge.
type Link struct {
	Person    id.PersonID
	Qualifier models.Qualifier
}

// Lineage indexes parent/child edges in both directions. A parent edge and its
// child mirror describe the same fact and collapse into one link.
type Lineage struct {
	parents  map[id.PersonID][]Link
	children map[id.PersonID][]Link
}

// NewLineage builds the lineal index from any edge list; non-lineal edges are
// ignored.
func NewLineage(edges []*models.Relationship) *Lineage {
	l := &Lineage{
		parents:  make(map[id.PersonID][]Link),
		children: make(map[id.PersonID][]Link),
	}
	type pair struct{ parent, child id.PersonID }
	seen := make(map[pair]bool)
	for _, e := range edges {
		parent, child, ok := e.ParentAndChild()
		if !ok {
			continue
		}
		k := pair{parent, child}
		if seen[k] {
			continue
		}
		seen[k] = true
		l.parents[child] = append(l.parents[child], Link{Person: parent, Qualifier: e.Qualifier})
		l.children[parent] = append(l.children[parent], Link{Person: child, Qualifier: e.Qualifier})
	}
	return l
}

// Parents returns the direct parents of p.
func (l *Lineage) Parents(p id.PersonID) []Link { return l.parents[p] }

// Children returns the direct children of p.
func (l *Lineage) Children(p id.PersonID) []Link { return l.children[p] }
