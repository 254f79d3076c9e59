package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
)

func edge(p1, p2 id.PersonID, t models.Type) *models.Relationship {
	return &models.Relationship{ID: id.NewRelationshipID(), Person1ID: p1, Person2ID: p2, Type: t}
}

func parent(p, c id.PersonID) *models.Relationship { return edge(p, c, models.TypeParent) }

// withMirrors appends the child mirror of each parent edge, as stored.
func withMirrors(edges ...*models.Relationship) []*models.Relationship {
	out := append([]*models.Relationship{}, edges...)
	for _, e := range edges {
		if m, ok := e.MirrorEdge(id.NewRelationshipID(), e.CreatedAt); ok {
			out = append(out, m)
		}
	}
	return out
}

func summaries(names map[id.PersonID]string) Summarize {
	return func(p id.PersonID) models.PersonSummary {
		return models.PersonSummary{ID: p, Name: names[p]}
	}
}

type GraphSuite struct {
	suite.Suite
	a, b, c, d id.PersonID
	names      map[id.PersonID]string
}

func TestGraphSuite(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}

func (s *GraphSuite) SetupTest() {
	s.a, s.b, s.c, s.d = id.NewPersonID(), id.NewPersonID(), id.NewPersonID(), id.NewPersonID()
	s.names = map[id.PersonID]string{s.a: "A", s.b: "B", s.c: "C", s.d: "D"}
}

// chain is A parent of B parent of C parent of D, with mirrors.
func (s *GraphSuite) chain() []*models.Relationship {
	return withMirrors(parent(s.a, s.b), parent(s.b, s.c), parent(s.c, s.d))
}

func (s *GraphSuite) TestDetectCircularRelationships() {
	s.Run("closing a chain is rejected", func() {
		existing := withMirrors(parent(s.a, s.b), parent(s.b, s.c))
		r := DetectCircularRelationships(existing, parent(s.c, s.a))
		s.False(r.Valid())
		s.Contains(r.Reasons[0], "circular relationship")
		s.Equal([]id.PersonID{s.a, s.b, s.c}, FindCycle(existing, parent(s.c, s.a)))
	})

	s.Run("proposed child mirror is normalized", func() {
		existing := withMirrors(parent(s.a, s.b))
		r := DetectCircularRelationships(existing, edge(s.a, s.b, models.TypeChild))
		s.False(r.Valid())
	})

	s.Run("child-only edges count as lineage", func() {
		existing := []*models.Relationship{edge(s.b, s.a, models.TypeChild), edge(s.c, s.b, models.TypeChild)}
		s.False(DetectCircularRelationships(existing, parent(s.c, s.a)).Valid())
	})

	s.Run("self parent is a trivial cycle", func() {
		r := DetectCircularRelationships(nil, parent(s.a, s.a))
		s.False(r.Valid())
		s.Contains(r.Reasons[0], "own parent")
	})

	s.Run("extending a chain is accepted", func() {
		existing := withMirrors(parent(s.a, s.b), parent(s.b, s.c))
		s.True(DetectCircularRelationships(existing, parent(s.c, s.d)).Valid())
	})

	s.Run("spouse edges never cycle", func() {
		existing := withMirrors(parent(s.a, s.b))
		s.True(DetectCircularRelationships(existing, edge(s.b, s.a, models.TypeSpouse)).Valid())
	})

	s.Run("diamond is not a cycle", func() {
		existing := withMirrors(parent(s.a, s.b), parent(s.a, s.c), parent(s.b, s.d))
		s.True(DetectCircularRelationships(existing, parent(s.c, s.d)).Valid())
	})
}

func (s *GraphSuite) TestFindPath() {
	ctx := context.Background()

	s.Run("grandparent to grandchild", func() {
		g := New(s.chain())
		path, err := FindPath(ctx, g, s.a, s.c, 0)
		s.Require().NoError(err)
		s.Require().Len(path, 2)
		s.Equal(s.a, path[0].From)
		s.Equal(s.b, path[0].To)
		s.Equal("parent of", path[0].Label)
		s.Equal(s.c, path[1].To)
	})

	s.Run("reverse direction reads child of", func() {
		path, err := FindPath(ctx, New(s.chain()), s.c, s.a, 0)
		s.Require().NoError(err)
		s.Require().Len(path, 2)
		s.Equal("child of", path[0].Label)
	})

	s.Run("depth limit excludes longer paths", func() {
		path, err := FindPath(ctx, New(s.chain()), s.a, s.d, 2)
		s.Require().NoError(err)
		s.Nil(path)

		path, err = FindPath(ctx, New(s.chain()), s.a, s.d, 3)
		s.Require().NoError(err)
		s.Len(path, 3)
	})

	s.Run("same person is an empty path", func() {
		path, err := FindPath(ctx, New(s.chain()), s.a, s.a, 3)
		s.Require().NoError(err)
		s.NotNil(path)
		s.Empty(path)
	})

	s.Run("disconnected persons have no path", func() {
		path, err := FindPath(ctx, New(s.chain()), s.a, id.NewPersonID(), 5)
		s.Require().NoError(err)
		s.Nil(path)
	})

	s.Run("ties break by edge order", func() {
		viaB := parent(s.a, s.b)
		viaC := parent(s.a, s.c)
		edges := []*models.Relationship{viaB, viaC, parent(s.b, s.d), parent(s.c, s.d)}
		path, err := FindPath(ctx, New(edges), s.a, s.d, 5)
		s.Require().NoError(err)
		s.Require().Len(path, 2)
		s.Equal(viaB.ID, path[0].Relationship.ID)
	})

	s.Run("cancelled context stops the search", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := FindPath(cctx, New(s.chain()), s.a, s.d, 5)
		s.ErrorIs(err, context.Canceled)
	})
}

func TestFindPathDefaultDepth(t *testing.T) {
	people := make([]id.PersonID, DefaultMaxDepth+2)
	for i := range people {
		people[i] = id.NewPersonID()
	}
	var edges []*models.Relationship
	for i := 0; i+1 < len(people); i++ {
		edges = append(edges, parent(people[i], people[i+1]))
	}
	g := New(edges)

	path, err := FindPath(context.Background(), g, people[0], people[DefaultMaxDepth], 0)
	require.NoError(t, err)
	assert.Len(t, path, DefaultMaxDepth)

	path, err = FindPath(context.Background(), g, people[0], people[DefaultMaxDepth+1], -1)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestLabel(t *testing.T) {
	a, b := id.NewPersonID(), id.NewPersonID()
	adoptive := parent(a, b)
	adoptive.Qualifier = models.QualifierAdoptive
	inLaw := edge(a, b, models.TypeParent)
	inLaw.Qualifier = models.QualifierInLaw

	tests := []struct {
		name string
		e    *models.Relationship
		from id.PersonID
		want string
	}{
		{"parent forward", parent(a, b), a, "parent of"},
		{"parent reverse", parent(a, b), b, "child of"},
		{"child forward", edge(a, b, models.TypeChild), a, "child of"},
		{"spouse", edge(a, b, models.TypeSpouse), b, "spouse of"},
		{"aunt reverse", edge(a, b, models.TypeAuntUncle), b, "niece/nephew of"},
		{"biological is implicit", func() *models.Relationship {
			e := parent(a, b)
			e.Qualifier = models.QualifierBiological
			return e
		}(), a, "parent of"},
		{"adoptive", adoptive, b, "adoptive child of"},
		{"in law", inLaw, a, "in-law parent of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.e, tt.from))
		})
	}
}

func (s *GraphSuite) TestExpand() {
	ctx := context.Background()
	lineage := NewLineage(s.chain())

	s.Run("ancestors three generations", func() {
		tree, err := Expand(ctx, lineage, s.d, 3, Ancestors, summaries(s.names))
		s.Require().NoError(err)
		s.Equal("D", tree.Person.Name)
		s.Require().Len(tree.Relatives, 1)
		c := tree.Relatives[0]
		s.Equal("C", c.Person.Name)
		s.Equal(1, c.Generation)
		s.Require().Len(c.Relatives, 1)
		b := c.Relatives[0]
		s.Equal("B", b.Person.Name)
		s.Require().Len(b.Relatives, 1)
		a := b.Relatives[0]
		s.Equal("A", a.Person.Name)
		s.Equal(3, a.Generation)
		s.Empty(a.Relatives)
	})

	s.Run("one generation stops at the parent", func() {
		tree, err := Expand(ctx, lineage, s.d, 1, Ancestors, summaries(s.names))
		s.Require().NoError(err)
		s.Require().Len(tree.Relatives, 1)
		s.Equal("C", tree.Relatives[0].Person.Name)
		s.Empty(tree.Relatives[0].Relatives)
	})

	s.Run("zero generations is the root alone", func() {
		tree, err := Expand(ctx, lineage, s.d, 0, Ancestors, summaries(s.names))
		s.Require().NoError(err)
		s.Empty(tree.Relatives)
	})

	s.Run("descendants", func() {
		tree, err := Expand(ctx, lineage, s.a, 2, Descendants, summaries(s.names))
		s.Require().NoError(err)
		s.Require().Len(tree.Relatives, 1)
		s.Equal("B", tree.Relatives[0].Person.Name)
		s.Equal("C", tree.Relatives[0].Relatives[0].Person.Name)
		s.Empty(tree.Relatives[0].Relatives[0].Relatives)
	})

	s.Run("mirrors do not duplicate relatives", func() {
		tree, err := Expand(ctx, lineage, s.b, 1, Ancestors, summaries(s.names))
		s.Require().NoError(err)
		s.Len(tree.Relatives, 1)
	})

	s.Run("pedigree collapse shares subtrees", func() {
		// A is parent of both B and C; B and C are parents of D.
		l := NewLineage(withMirrors(parent(s.a, s.b), parent(s.a, s.c), parent(s.b, s.d), parent(s.c, s.d)))
		tree, err := Expand(ctx, l, s.d, 2, Ancestors, summaries(s.names))
		s.Require().NoError(err)
		s.Require().Len(tree.Relatives, 2)
		s.Equal("A", tree.Relatives[0].Relatives[0].Person.Name)
		s.Equal("A", tree.Relatives[1].Relatives[0].Person.Name)
	})

	s.Run("qualifier rides on the link", func() {
		adopt := parent(s.a, s.b)
		adopt.Qualifier = models.QualifierAdoptive
		tree, err := Expand(ctx, NewLineage([]*models.Relationship{adopt}), s.b, 1, Ancestors, summaries(s.names))
		s.Require().NoError(err)
		s.Equal(models.QualifierAdoptive, tree.Relatives[0].Qualifier)
	})
}

func (s *GraphSuite) TestReachable() {
	lineage := NewLineage(s.chain())
	s.Equal([]id.PersonID{s.d, s.c, s.b}, Reachable(lineage, s.d, 2, Ancestors))
	s.Equal([]id.PersonID{s.a}, Reachable(lineage, s.a, 0, Descendants))
}

func TestClampGenerations(t *testing.T) {
	assert.Equal(t, 0, ClampGenerations(-3))
	assert.Equal(t, 4, ClampGenerations(4))
	assert.Equal(t, MaxGenerations, ClampGenerations(50))
}
