package graph

import (
	"context"
	"strings"

	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
)

const (
	// DefaultMaxDepth bounds path searches when the caller gives no depth.
	DefaultMaxDepth = 5
	// MaxPathDepth is the hard ceiling on path searches.
	MaxPathDepth = 10
)

// NormalizeDepth maps a requested depth into [1, MaxPathDepth]; zero or
// negative means DefaultMaxDepth.
func NormalizeDepth(maxDepth int) int {
	switch {
	case maxDepth <= 0:
		return DefaultMaxDepth
	case maxDepth > MaxPathDepth:
		return MaxPathDepth
	}
	return maxDepth
}

type hop struct {
	edge int
	prev id.PersonID
}

// FindPath returns a shortest chain of edges from one person to another,
// treating every edge as undirected, or nil when none exists within maxDepth
// hops. Ties between equal-length paths break by edge order, so the result is
// stable for a stable input order. A path from a person to themselves is empty.
//
// The search keeps one visited set for the whole frontier: the first time BFS
// reaches a person is along a shortest path, so later branches cannot improve
// on it.
func FindPath(ctx context.Context, g *Graph, from, to id.PersonID, maxDepth int) ([]models.PathStep, error) {
	if from == to {
		return []models.PathStep{}, nil
	}
	maxDepth = NormalizeDepth(maxDepth)

	prev := map[id.PersonID]hop{}
	visited := map[id.PersonID]bool{from: true}
	frontier := []id.PersonID{from}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []id.PersonID
		for _, cur := range frontier {
			for _, ei := range g.Neighbors(cur) {
				other := g.Edge(ei).Other(cur)
				if visited[other] {
					continue
				}
				visited[other] = true
				prev[other] = hop{edge: ei, prev: cur}
				if other == to {
					return steps(g, prev, from, to), nil
				}
				next = append(next, other)
			}
		}
		frontier = next
	}
	return nil, nil
}

func steps(g *Graph, prev map[id.PersonID]hop, from, to id.PersonID) []models.PathStep {
	var out []models.PathStep
	for cur := to; cur != from; {
		h := prev[cur]
		e := g.Edge(h.edge)
		out = append(out, models.PathStep{
			Relationship: e,
			From:         h.prev,
			To:           cur,
			Label:        Label(e, h.prev),
		})
		cur = h.prev
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Label describes how from relates to the other end of e, e.g. "adoptive
// parent of" or "spouse of".
func Label(e *models.Relationship, from id.PersonID) string {
	forward := e.Person1ID == from
	var rel string
	switch e.Type {
	case models.TypeParent:
		rel = pick(forward, "parent of", "child of")
	case models.TypeChild:
		rel = pick(forward, "child of", "parent of")
	case models.TypeGrandparent:
		rel = pick(forward, "grandparent of", "grandchild of")
	case models.TypeGrandchild:
		rel = pick(forward, "grandchild of", "grandparent of")
	case models.TypeAuntUncle:
		rel = pick(forward, "aunt/uncle of", "niece/nephew of")
	case models.TypeNieceNephew:
		rel = pick(forward, "niece/nephew of", "aunt/uncle of")
	case models.TypeSpouse:
		rel = "spouse of"
	case models.TypeSibling:
		rel = "sibling of"
	case models.TypeCousin:
		rel = "cousin of"
	default:
		rel = "related to"
	}
	if e.Qualifier != models.QualifierNone && e.Qualifier != models.QualifierBiological {
		return strings.ReplaceAll(string(e.Qualifier), "_", "-") + " " + rel
	}
	return rel
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
