package graph

import (
	"fmt"

	"lineage/internal/genealogy"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
)

// FindCycle reports the ancestor chain that the proposed lineal edge would
// close. It walks forward from the proposed child along parent-to-child links;
// reaching the proposed parent means the child is already an ancestor of the
// parent. The returned chain runs from the proposed child down to the proposed
// parent. A self-loop is the trivial cycle [p]. Non-lineal proposals never
// form an ancestry cycle and return nil.
//
// Runs in O(V+E) with a visited set.
func FindCycle(existing []*models.Relationship, proposed *models.Relationship) []id.PersonID {
	parent, child, ok := proposed.ParentAndChild()
	if !ok {
		return nil
	}
	if parent == child {
		return []id.PersonID{parent}
	}

	lineage := NewLineage(existing)
	prev := map[id.PersonID]id.PersonID{}
	visited := map[id.PersonID]bool{child: true}
	stack := []id.PersonID{child}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, link := range lineage.Children(cur) {
			next := link.Person
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == parent {
				return chain(prev, child, parent)
			}
			stack = append(stack, next)
		}
	}
	return nil
}

func chain(prev map[id.PersonID]id.PersonID, from, to id.PersonID) []id.PersonID {
	var path []id.PersonID
	for cur := to; ; cur = prev[cur] {
		path = append(path, cur)
		if cur == from {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// DetectCircularRelationships validates that adding proposed to the existing
// lineal edges keeps the ancestry acyclic.
func DetectCircularRelationships(existing []*models.Relationship, proposed *models.Relationship) genealogy.Result {
	cycle := FindCycle(existing, proposed)
	if cycle == nil {
		return genealogy.OK()
	}
	if len(cycle) == 1 {
		return genealogy.Invalid(fmt.Sprintf("person %s cannot be their own parent", cycle[0]))
	}
	parent, child, _ := proposed.ParentAndChild()
	return genealogy.Invalid(fmt.Sprintf("circular relationship: %s is already an ancestor of %s through %d generation(s)",
		child, parent, len(cycle)-1))
}
