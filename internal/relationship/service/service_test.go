package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"lineage/internal/changefeed/outbox"
	personmodels "lineage/internal/person/models"
	personstore "lineage/internal/person/store"
	"lineage/internal/relationship/metrics"
	"lineage/internal/relationship/models"
	"lineage/internal/relationship/store"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/tx"
	"lineage/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	persons *personstore.InMemoryStore
	outbox  *outbox.InMemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.store = store.NewInMemoryStore()
	s.persons = personstore.NewInMemoryStore()
	s.outbox = outbox.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.persons, tx.NewMemoryRunner(s.store, s.persons, s.outbox),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithOutbox(s.outbox),
	)
}

func (s *ServiceSuite) person(name string, birth, death *time.Time) id.PersonID {
	p, err := personmodels.NewPerson(id.NewPersonID(), name, "", "", time.Now())
	s.Require().NoError(err)
	p.BirthDate = birth
	p.DeathDate = death
	s.Require().NoError(s.persons.Create(context.Background(), p))
	return p.ID
}

func (s *ServiceSuite) parent(parent, child id.PersonID) *models.Relationship {
	r, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: parent, Person2ID: child, Type: models.TypeParent})
	s.Require().NoError(err)
	return r
}

// chain builds A -> B -> C -> D where each is the parent of the next.
func (s *ServiceSuite) chain() (a, b, c, d id.PersonID) {
	a = s.person("A", date(1900, 1, 1), date(1980, 1, 1))
	b = s.person("B", date(1930, 1, 1), nil)
	c = s.person("C", date(1960, 1, 1), nil)
	d = s.person("D", date(1990, 1, 1), nil)
	s.parent(a, b)
	s.parent(b, c)
	s.parent(c, d)
	return a, b, c, d
}

func (s *ServiceSuite) edges() []*models.Relationship {
	all, err := s.store.FindAll(context.Background(), models.Filter{})
	s.Require().NoError(err)
	return all
}

func (s *ServiceSuite) mirrorOf(r *models.Relationship) *models.Relationship {
	m, err := s.service.findMirror(context.Background(), r)
	s.Require().NoError(err)
	return m
}

func (s *ServiceSuite) TestCreate() {
	s.Run("parent edge is written with its child mirror", func() {
		a := s.person("A", date(1950, 1, 1), nil)
		b := s.person("B", date(1980, 1, 1), nil)
		before := s.outbox.Len()

		r, err := s.service.Create(s.ctx, models.CreateInput{
			Person1ID: a, Person2ID: b, Type: models.TypeParent, Qualifier: models.QualifierAdoptive, Notes: "  court record ",
		})
		s.Require().NoError(err)
		s.Equal("court record", r.Notes)

		mirror := s.mirrorOf(r)
		s.Require().NotNil(mirror)
		s.Equal(models.TypeChild, mirror.Type)
		s.Equal(b, mirror.Person1ID)
		s.Equal(a, mirror.Person2ID)
		s.Equal(models.QualifierAdoptive, mirror.Qualifier)
		s.Equal(before+1, s.outbox.Len())
	})

	s.Run("spouse edge has no mirror", func() {
		a := s.person("A", date(1950, 1, 1), nil)
		b := s.person("B", date(1952, 1, 1), nil)
		r, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: b, Type: models.TypeSpouse, StartDate: date(1975, 6, 1)})
		s.Require().NoError(err)

		between, err := s.service.ListBetweenPersons(s.ctx, a, b)
		s.Require().NoError(err)
		s.Len(between, 1)
		s.Equal(r.ID, between[0].ID)
	})

	s.Run("derived types cannot be created directly", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		for _, t := range []models.Type{models.TypeChild, models.TypeSibling, models.TypeCousin, models.TypeGrandparent} {
			_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: b, Type: t})
			s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation), string(t))
		}
	})

	s.Run("self relationship is rejected", func() {
		a := s.person("A", nil, nil)
		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: a, Type: models.TypeSpouse})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("missing person is not found", func() {
		a := s.person("A", nil, nil)
		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: id.NewPersonID(), Type: models.TypeParent})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("duplicate and inverse parent edges conflict", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		s.parent(a, b)
		count := len(s.edges())

		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: b, Type: models.TypeParent})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.Create(s.ctx, models.CreateInput{Person1ID: b, Person2ID: a, Type: models.TypeParent})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Len(s.edges(), count)
	})

	s.Run("spouse edge in either direction conflicts", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: b, Type: models.TypeSpouse})
		s.Require().NoError(err)
		_, err = s.service.Create(s.ctx, models.CreateInput{Person1ID: b, Person2ID: a, Type: models.TypeSpouse})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("marriage after a death is implausible", func() {
		x := s.person("X", date(1950, 1, 1), date(2000, 1, 1))
		y := s.person("Y", date(1952, 1, 1), nil)

		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: x, Person2ID: y, Type: models.TypeSpouse, StartDate: date(2005, 1, 1)})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
		de, _ := dErrors.As(err)
		s.Contains(de.Message, "marriage date follows the death of X")

		_, err = s.service.Create(s.ctx, models.CreateInput{Person1ID: x, Person2ID: y, Type: models.TypeSpouse, StartDate: date(1985, 1, 1)})
		s.NoError(err)
	})

	s.Run("marriage at ten years old is within the default rules", func() {
		x := s.person("X", date(1950, 1, 1), date(2000, 1, 1))
		y := s.person("Y", date(1960, 1, 1), nil)

		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: x, Person2ID: y, Type: models.TypeSpouse, StartDate: date(1970, 1, 1)})
		s.Require().NoError(err)

		z := s.person("Z", date(1960, 1, 1), nil)
		_, err = s.service.Create(s.ctx, models.CreateInput{Person1ID: x, Person2ID: z, Type: models.TypeSpouse, StartDate: date(2001, 1, 1)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("implausible parent age is rejected", func() {
		p := s.person("P", date(1990, 1, 1), nil)
		c := s.person("C", date(1995, 1, 1), nil)
		_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: p, Person2ID: c, Type: models.TypeParent})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("start after end is rejected", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		_, err := s.service.Create(s.ctx, models.CreateInput{
			Person1ID: a, Person2ID: b, Type: models.TypeSpouse, StartDate: date(1990, 1, 1), EndDate: date(1980, 1, 1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ServiceSuite) TestCreateRejectsCycles() {
	a := s.person("A", nil, nil)
	b := s.person("B", nil, nil)
	c := s.person("C", nil, nil)
	d := s.person("D", nil, nil)
	s.parent(a, b)
	s.parent(b, c)
	s.parent(c, d)
	count := len(s.edges())
	outboxLen := s.outbox.Len()

	_, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: d, Person2ID: a, Type: models.TypeParent})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeCircularRelationship))
	de, _ := dErrors.As(err)
	s.Contains(de.Message, "through 3 generation(s)")

	s.Len(s.edges(), count, "rejected write leaves the graph unchanged")
	s.Equal(outboxLen, s.outbox.Len())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RejectedWrites.WithLabelValues(opCreate, string(dErrors.CodeCircularRelationship))))
}

func (s *ServiceSuite) TestCreateRollsBackWhenMirrorWriteFails() {
	a := s.person("A", nil, nil)
	b := s.person("B", nil, nil)
	orphan, err := models.NewRelationship(id.NewRelationshipID(), b, a, models.TypeChild, "", nil, nil, "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), orphan))
	outboxLen := s.outbox.Len()

	_, err = s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: b, Type: models.TypeParent})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

	edges := s.edges()
	s.Require().Len(edges, 1, "the parent edge written before the mirror is rolled back")
	s.Equal(orphan.ID, edges[0].ID)
	s.Equal(outboxLen, s.outbox.Len())
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("qualifier change is copied to the mirror but notes are not", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r := s.parent(a, b)

		q := models.QualifierStep
		notes := "from the parish register"
		updated, err := s.service.Update(s.ctx, r.ID, models.UpdateInput{Qualifier: &q, Notes: &notes})
		s.Require().NoError(err)
		s.Equal(models.QualifierStep, updated.Qualifier)

		mirror := s.mirrorOf(updated)
		s.Require().NotNil(mirror)
		s.Equal(models.QualifierStep, mirror.Qualifier)
		s.Empty(mirror.Notes)
	})

	s.Run("child edge qualifier syncs back to the parent edge", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r := s.parent(a, b)
		child := s.mirrorOf(r)

		q := models.QualifierFoster
		_, err := s.service.Update(s.ctx, child.ID, models.UpdateInput{Qualifier: &q})
		s.Require().NoError(err)

		got, err := s.service.Get(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.QualifierFoster, got.Qualifier)
	})

	s.Run("child edge cannot be re-typed", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		child := s.mirrorOf(s.parent(a, b))

		t := models.TypeSpouse
		_, err := s.service.Update(s.ctx, child.ID, models.UpdateInput{Type: &t})
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
	})

	s.Run("re-type to a derived kind is a policy violation", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r := s.parent(a, b)

		t := models.TypeSibling
		_, err := s.service.Update(s.ctx, r.ID, models.UpdateInput{Type: &t})
		s.True(dErrors.HasCode(err, dErrors.CodePolicyViolation))
	})

	s.Run("parent re-typed to spouse drops the mirror", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r := s.parent(a, b)

		t := models.TypeSpouse
		_, err := s.service.Update(s.ctx, r.ID, models.UpdateInput{Type: &t})
		s.Require().NoError(err)

		between, err := s.service.ListBetweenPersons(s.ctx, a, b)
		s.Require().NoError(err)
		s.Require().Len(between, 1)
		s.Equal(models.TypeSpouse, between[0].Type)
	})

	s.Run("spouse re-typed to parent gains a mirror", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: a, Person2ID: b, Type: models.TypeSpouse})
		s.Require().NoError(err)

		t := models.TypeParent
		updated, err := s.service.Update(s.ctx, r.ID, models.UpdateInput{Type: &t})
		s.Require().NoError(err)
		s.NotNil(s.mirrorOf(updated))
	})

	s.Run("spouse re-typed to parent is checked for cycles", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		s.parent(a, b)
		r, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: b, Person2ID: a, Type: models.TypeSpouse})
		s.Require().NoError(err)

		t := models.TypeParent
		_, err = s.service.Update(s.ctx, r.ID, models.UpdateInput{Type: &t})
		s.Error(err)
		got, err := s.service.Get(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.TypeSpouse, got.Type)
	})

	s.Run("plausibility is re-run on the merged edge", func() {
		x := s.person("X", date(1950, 1, 1), date(2000, 1, 1))
		y := s.person("Y", date(1952, 1, 1), nil)
		r, err := s.service.Create(s.ctx, models.CreateInput{Person1ID: x, Person2ID: y, Type: models.TypeSpouse, StartDate: date(1985, 1, 1)})
		s.Require().NoError(err)

		_, err = s.service.Update(s.ctx, r.ID, models.UpdateInput{StartDate: date(2005, 1, 1)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing relationship is not found", func() {
		notes := "x"
		_, err := s.service.Update(s.ctx, id.NewRelationshipID(), models.UpdateInput{Notes: &notes})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("deleting a parent edge removes the mirror", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r := s.parent(a, b)

		s.Require().NoError(s.service.Delete(s.ctx, r.ID))
		between, err := s.service.ListBetweenPersons(s.ctx, a, b)
		s.Require().NoError(err)
		s.Empty(between)
	})

	s.Run("deleting a child edge removes the parent edge", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		child := s.mirrorOf(s.parent(a, b))

		s.Require().NoError(s.service.Delete(s.ctx, child.ID))
		between, err := s.service.ListBetweenPersons(s.ctx, a, b)
		s.Require().NoError(err)
		s.Empty(between)
	})

	s.Run("a missing mirror is tolerated and counted", func() {
		a := s.person("A", nil, nil)
		b := s.person("B", nil, nil)
		r := s.parent(a, b)
		s.Require().NoError(s.store.Delete(context.Background(), s.mirrorOf(r).ID))

		s.Require().NoError(s.service.Delete(s.ctx, r.ID))
		s.Equal(1.0, promtest.ToFloat64(s.metrics.MirrorMissing))
	})

	s.Run("missing relationship is not found", func() {
		err := s.service.Delete(s.ctx, id.NewRelationshipID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestFindRelationshipPath() {
	a := s.person("A", date(1930, 1, 1), nil)
	b := s.person("B", date(1960, 1, 1), nil)
	c := s.person("C", date(1990, 1, 1), nil)
	s.parent(a, b)
	s.parent(b, c)

	path, err := s.service.FindRelationshipPath(s.ctx, a, c, 5)
	s.Require().NoError(err)
	s.Require().Len(path, 2)
	s.Equal(a, path[0].From)
	s.Equal(b, path[0].To)
	s.Equal("parent of", path[0].Label)
	s.Equal(c, path[1].To)

	path, err = s.service.FindRelationshipPath(s.ctx, a, c, 1)
	s.Require().NoError(err)
	s.NotNil(path)
	s.Empty(path)

	path, err = s.service.FindRelationshipPath(s.ctx, a, a, 5)
	s.Require().NoError(err)
	s.Empty(path)

	_, err = s.service.FindRelationshipPath(s.ctx, a, id.NewPersonID(), 5)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func collect(n *models.TreeNode, out map[id.PersonID]int) {
	out[n.Person.ID] = n.Generation
	for _, r := range n.Relatives {
		collect(r, out)
	}
}

func (s *ServiceSuite) TestTrees() {
	a, b, c, d := s.chain()

	s.Run("ancestors reach the requested generation", func() {
		tree, err := s.service.GetAncestors(s.ctx, d, 3)
		s.Require().NoError(err)
		seen := map[id.PersonID]int{}
		collect(tree, seen)
		s.Equal(map[id.PersonID]int{d: 0, c: 1, b: 2, a: 3}, seen)
		s.Equal("D", tree.Person.Name)
		s.Require().NotNil(tree.Person.BirthYear)
		s.Equal(1990, *tree.Person.BirthYear)
	})

	s.Run("one generation stops at the parent", func() {
		tree, err := s.service.GetAncestors(s.ctx, d, 1)
		s.Require().NoError(err)
		s.Require().Len(tree.Relatives, 1)
		s.Equal(c, tree.Relatives[0].Person.ID)
		s.Empty(tree.Relatives[0].Relatives)
	})

	s.Run("descendants mirror ancestors", func() {
		tree, err := s.service.GetDescendants(s.ctx, a, 2)
		s.Require().NoError(err)
		seen := map[id.PersonID]int{}
		collect(tree, seen)
		s.Equal(map[id.PersonID]int{a: 0, b: 1, c: 2}, seen)
	})

	s.Run("missing root is not found", func() {
		_, err := s.service.GetAncestors(s.ctx, id.NewPersonID(), 3)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestQueries() {
	a := s.person("A", date(1940, 1, 1), nil)
	b := s.person("B", date(1942, 1, 1), nil)
	c := s.person("C", date(1970, 1, 1), nil)
	spouse, err := s.service.Create(s.ctx, models.CreateInput{
		Person1ID: a, Person2ID: b, Type: models.TypeSpouse, StartDate: date(1965, 1, 1), EndDate: date(1990, 1, 1), Notes: "Divorced",
	})
	s.Require().NoError(err)
	parent := s.parent(a, c)

	s.Run("by person includes mirrors", func() {
		edges, err := s.service.ListByPerson(s.ctx, a)
		s.Require().NoError(err)
		s.Len(edges, 3)
	})

	s.Run("parent-child lists parent edges only", func() {
		edges, err := s.service.ListParentChild(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(edges, 1)
		s.Equal(parent.ID, edges[0].ID)
	})

	s.Run("active and ended", func() {
		ended, err := s.service.ListEnded(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(ended, 1)
		s.Equal(spouse.ID, ended[0].ID)

		active, err := s.service.ListActive(s.ctx)
		s.Require().NoError(err)
		s.Len(active, 2)
	})

	s.Run("date range", func() {
		edges, err := s.service.ListByDateRange(s.ctx, date(1960, 1, 1), date(1970, 1, 1))
		s.Require().NoError(err)
		s.Len(edges, 1)

		_, err = s.service.ListByDateRange(s.ctx, date(1970, 1, 1), date(1960, 1, 1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("paginated search", func() {
		page, err := s.service.List(s.ctx, models.ListQuery{Filter: models.Filter{Search: "divorced"}, PageSize: 10})
		s.Require().NoError(err)
		s.Equal(1, page.Total)
		s.Equal(1, page.Page)

		_, err = s.service.List(s.ctx, models.ListQuery{Filter: models.Filter{Status: "pending"}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("by type and qualifier", func() {
		spouses, err := s.service.ListSpouses(s.ctx)
		s.Require().NoError(err)
		s.Len(spouses, 1)

		children, err := s.service.ListByType(s.ctx, models.TypeChild)
		s.Require().NoError(err)
		s.Len(children, 1)

		none, err := s.service.ListByQualifier(s.ctx, models.QualifierAdoptive)
		s.Require().NoError(err)
		s.NotNil(none)
		s.Empty(none)
	})
}
