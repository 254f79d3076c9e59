package graph

import (
	"context"

	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
)

// MaxGenerations caps ancestor and descendant expansion.
const MaxGenerations = 10

// Direction selects which lineal links an expansion follows.
type Direction int

const (
	Ancestors Direction = iota
	Descendants
)

func (d Direction) String() string {
	if d == Descendants {
		return "descendants"
	}
	return "ancestors"
}

// ClampGenerations maps a requested generation count into [0, MaxGenerations].
func ClampGenerations(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxGenerations:
		return MaxGenerations
	}
	return n
}

func (l *Lineage) links(p id.PersonID, dir Direction) []Link {
	if dir == Descendants {
		return l.Children(p)
	}
	return l.Parents(p)
}

// Reachable lists the persons an expansion of root would visit, root first,
// each once, in breadth-first order.
func Reachable(l *Lineage, root id.PersonID, generations int, dir Direction) []id.PersonID {
	generations = ClampGenerations(generations)
	out := []id.PersonID{root}
	seen := map[id.PersonID]bool{root: true}
	frontier := []id.PersonID{root}
	for g := 0; g < generations && len(frontier) > 0; g++ {
		var next []id.PersonID
		for _, p := range frontier {
			for _, link := range l.links(p, dir) {
				if seen[link.Person] {
					continue
				}
				seen[link.Person] = true
				out = append(out, link.Person)
				next = append(next, link.Person)
			}
		}
		frontier = next
	}
	return out
}

// Summarize resolves a person id into the summary a tree node carries.
type Summarize func(id.PersonID) models.PersonSummary

type memoKey struct {
	person    id.PersonID
	remaining int
}

// Expand builds the ancestor or descendant tree of root down to the given
// number of generations. Nodes at the limit are leaves. A person reachable
// along several lines (pedigree collapse) appears under each of them, but its
// subtree is computed once per remaining depth and the relatives slice is
// shared between those occurrences. Remaining depth strictly decreases along
// any branch, so cyclic data still terminates.
func Expand(ctx context.Context, l *Lineage, root id.PersonID, generations int, dir Direction, summarize Summarize) (*models.TreeNode, error) {
	generations = ClampGenerations(generations)
	memo := map[memoKey][]*models.TreeNode{}

	var relatives func(p id.PersonID, depth int) ([]*models.TreeNode, error)
	relatives = func(p id.PersonID, depth int) ([]*models.TreeNode, error) {
		remaining := generations - depth
		if remaining <= 0 {
			return nil, nil
		}
		key := memoKey{person: p, remaining: remaining}
		if nodes, ok := memo[key]; ok {
			return nodes, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		links := l.links(p, dir)
		nodes := make([]*models.TreeNode, 0, len(links))
		for _, link := range links {
			sub, err := relatives(link.Person, depth+1)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &models.TreeNode{
				Person:     summarize(link.Person),
				Qualifier:  link.Qualifier,
				Generation: depth + 1,
				Relatives:  sub,
			})
		}
		memo[key] = nodes
		return nodes, nil
	}

	rels, err := relatives(root, 0)
	if err != nil {
		return nil, err
	}
	return &models.TreeNode{
		Person:     summarize(root),
		Generation: 0,
		Relatives:  rels,
	}, nil
}
