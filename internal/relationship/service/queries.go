package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	personmodels "lineage/internal/person/models"
	"lineage/internal/relationship/graph"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/requestcontext"
)

func (s *Service) Get(ctx context.Context, relID id.RelationshipID) (*models.Relationship, error) {
	return s.loadRelationship(ctx, relID)
}

// List returns one page of edges matching q. Status filters are evaluated
// against the request clock.
func (s *Service) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	if !q.Status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid status %q", q.Status)
	}
	if q.Qualifier != nil && !q.Qualifier.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid relationship_qualifier %q", *q.Qualifier)
	}
	if err := checkRange(q.DateFrom, q.DateTo); err != nil {
		return nil, err
	}
	q.Normalize()
	if q.Status != models.StatusAny {
		q.Now = requestcontext.Now(ctx)
	}
	page, err := s.store.FindRelationships(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list relationships")
	}
	return page, nil
}

func (s *Service) ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Relationship, error) {
	return s.findAll(ctx, models.Filter{PersonID: &personID})
}

func (s *Service) ListByType(ctx context.Context, t models.Type) ([]*models.Relationship, error) {
	if !t.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid relationship_type %q", t)
	}
	return s.findAll(ctx, models.Filter{Types: []models.Type{t}})
}

func (s *Service) ListByQualifier(ctx context.Context, q models.Qualifier) ([]*models.Relationship, error) {
	if !q.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid relationship_qualifier %q", q)
	}
	return s.findAll(ctx, models.Filter{Qualifier: &q})
}

// ListByDateRange returns edges whose start or end date falls within
// [from, to]. Either bound may be open.
func (s *Service) ListByDateRange(ctx context.Context, from, to *time.Time) ([]*models.Relationship, error) {
	if from == nil && to == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a date range needs at least one bound")
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.findAll(ctx, models.Filter{DateFrom: from, DateTo: to})
}

// ListBetweenPersons returns every edge linking a and b in either direction.
func (s *Service) ListBetweenPersons(ctx context.Context, a, b id.PersonID) ([]*models.Relationship, error) {
	edges, err := s.store.FindBetweenPersons(ctx, a, b)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list relationships")
	}
	return nonNil(edges), nil
}

func (s *Service) ListActive(ctx context.Context) ([]*models.Relationship, error) {
	return s.findAll(ctx, models.Filter{Status: models.StatusActive, Now: requestcontext.Now(ctx)})
}

func (s *Service) ListEnded(ctx context.Context) ([]*models.Relationship, error) {
	return s.findAll(ctx, models.Filter{Status: models.StatusEnded, Now: requestcontext.Now(ctx)})
}

// ListParentChild returns every parent edge. Child mirrors restate the same
// facts and are left out.
func (s *Service) ListParentChild(ctx context.Context) ([]*models.Relationship, error) {
	return s.findAll(ctx, models.Filter{Types: []models.Type{models.TypeParent}})
}

func (s *Service) ListSpouses(ctx context.Context) ([]*models.Relationship, error) {
	return s.findAll(ctx, models.Filter{Types: []models.Type{models.TypeSpouse}})
}

func (s *Service) findAll(ctx context.Context, f models.Filter) ([]*models.Relationship, error) {
	edges, err := s.store.FindAll(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list relationships")
	}
	return nonNil(edges), nil
}

// FindRelationshipPath returns the shortest chain of edges from one person to
// another within maxDepth hops. A missing path is an empty result, not an
// error.
func (s *Service) FindRelationshipPath(ctx context.Context, from, to id.PersonID, maxDepth int) ([]models.PathStep, error) {
	depth := graph.NormalizeDepth(maxDepth)
	ctx, span := s.tracer.Start(ctx, "relationship.FindPath", trace.WithAttributes(
		attribute.String("person.from", from.String()),
		attribute.String("person.to", to.String()),
		attribute.Int("path.max_depth", depth),
	))
	defer span.End()
	start := time.Now()

	var edges []*models.Relationship
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, _, err := s.loadPair(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		edges, err = s.store.FindAll(gctx, models.Filter{})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load relationships")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	path, err := graph.FindPath(ctx, graph.New(edges), from, to, depth)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "path search cancelled")
	}
	if s.metrics != nil {
		s.metrics.ObserveGraphQuery("path", len(edges), start)
	}
	span.SetAttributes(attribute.Int("path.length", len(path)))
	if path == nil {
		return []models.PathStep{}, nil
	}
	return path, nil
}

// GetAncestors expands the parents of root up to generations levels.
func (s *Service) GetAncestors(ctx context.Context, root id.PersonID, generations int) (*models.TreeNode, error) {
	return s.tree(ctx, root, generations, graph.Ancestors)
}

// GetDescendants expands the children of root up to generations levels.
func (s *Service) GetDescendants(ctx context.Context, root id.PersonID, generations int) (*models.TreeNode, error) {
	return s.tree(ctx, root, generations, graph.Descendants)
}

func (s *Service) tree(ctx context.Context, root id.PersonID, generations int, dir graph.Direction) (*models.TreeNode, error) {
	generations = graph.ClampGenerations(generations)
	ctx, span := s.tracer.Start(ctx, "relationship.Tree", trace.WithAttributes(
		attribute.String("person.id", root.String()),
		attribute.String("tree.direction", dir.String()),
		attribute.Int("tree.generations", generations),
	))
	defer span.End()
	start := time.Now()

	var lineal []*models.Relationship
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.loadPerson(gctx, root)
		return err
	})
	g.Go(func() error {
		var err error
		lineal, err = s.store.FindAll(gctx, models.Filter{Types: []models.Type{models.TypeParent, models.TypeChild}})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lineage")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l := graph.NewLineage(lineal)
	persons, err := s.persons.FindByIDs(ctx, graph.Reachable(l, root, generations, dir))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load persons")
	}
	node, err := graph.Expand(ctx, l, root, generations, dir, summarizer(persons))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "tree expansion cancelled")
	}
	if s.metrics != nil {
		s.metrics.ObserveGraphQuery(dir.String(), len(lineal), start)
	}
	return node, nil
}

// summarizer renders persons for tree nodes. An id with no stored person
// still gets a node, identified by id alone.
func summarizer(persons map[id.PersonID]*personmodels.Person) graph.Summarize {
	return func(personID id.PersonID) models.PersonSummary {
		sum := models.PersonSummary{ID: personID}
		p, ok := persons[personID]
		if !ok {
			return sum
		}
		sum.Name = p.DisplayName()
		if p.BirthDate != nil {
			y := p.BirthDate.Year()
			sum.BirthYear = &y
		}
		if p.DeathDate != nil {
			y := p.DeathDate.Year()
			sum.DeathYear = &y
		}
		return sum
	}
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return dErrors.New(dErrors.CodeInvalidInput, "date range start must not be after its end")
	}
	return nil
}

func nonNil(edges []*models.Relationship) []*models.Relationship {
	if edges == nil {
		return []*models.Relationship{}
	}
	return edges
}
