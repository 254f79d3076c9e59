// Package service orchestrates relationship writes and graph queries.
//
// Every mutation runs in one transaction: duplicate and cycle checks read the
// same snapshot the write commits against, and a parent edge and its child
// mirror are written together or not at all.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"lineage/internal/changefeed"
	"lineage/internal/genealogy/plausibility"
	personmodels "lineage/internal/person/models"
	"lineage/internal/relationship/metrics"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/sentinel"
)

// Store is the relationship persistence the service needs. All methods join
// the transaction carried by ctx.
type Store interface {
	Create(ctx context.Context, r *models.Relationship) error
	Update(ctx context.Context, r *models.Relationship) error
	Delete(ctx context.Context, relID id.RelationshipID) error
	FindByID(ctx context.Context, relID id.RelationshipID) (*models.Relationship, error)
	FindOne(ctx context.Context, f models.Filter) (*models.Relationship, error)
	FindAll(ctx context.Context, f models.Filter) ([]*models.Relationship, error)
	FindBetweenPersons(ctx context.Context, a, b id.PersonID) ([]*models.Relationship, error)
	FindRelationships(ctx context.Context, q models.ListQuery) (*models.Page, error)
}

// PersonFinder resolves persons. Not-found may be reported either as
// sentinel.ErrNotFound or as a coded not_found error.
type PersonFinder interface {
	FindByID(ctx context.Context, personID id.PersonID) (*personmodels.Person, error)
	FindByIDs(ctx context.Context, ids []id.PersonID) (map[id.PersonID]*personmodels.Person, error)
}

// Tx scopes a unit of work; the transaction travels in ctx.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the relationship graph engine's entry point.
type Service struct {
	store   Store
	persons PersonFinder
	tx      Tx
	rules   *plausibility.Rules
	outbox  changefeed.Outbox
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithRules(rules *plausibility.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithOutbox records a change event for every committed mutation.
func WithOutbox(outbox changefeed.Outbox) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

func New(store Store, persons PersonFinder, tx Tx, opts ...Option) *Service {
	s := &Service{
		store:   store,
		persons: persons,
		tx:      tx,
		rules:   plausibility.New(plausibility.Thresholds{}),
		logger:  slog.Default(),
		tracer:  otel.Tracer("lineage/relationship"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) loadPerson(ctx context.Context, personID id.PersonID) (*personmodels.Person, error) {
	p, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "person %s not found", personID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}
	return p, nil
}

// loadPair resolves both endpoints with one lookup.
func (s *Service) loadPair(ctx context.Context, a, b id.PersonID) (*personmodels.Person, *personmodels.Person, error) {
	found, err := s.persons.FindByIDs(ctx, []id.PersonID{a, b})
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load persons")
	}
	pa, ok := found[a]
	if !ok {
		return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "person %s not found", a)
	}
	pb, ok := found[b]
	if !ok {
		return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "person %s not found", b)
	}
	return pa, pb, nil
}

func (s *Service) loadRelationship(ctx context.Context, relID id.RelationshipID) (*models.Relationship, error) {
	r, err := s.store.FindByID(ctx, relID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "relationship %s not found", relID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load relationship")
	}
	return r, nil
}

// findMirror returns the derived inverse of a lineal edge, or nil when it is
// missing.
func (s *Service) findMirror(ctx context.Context, r *models.Relationship) (*models.Relationship, error) {
	mt, ok := r.Type.Mirror()
	if !ok {
		return nil, nil
	}
	m, err := s.store.FindOne(ctx, models.Filter{
		Person1ID: &r.Person2ID,
		Person2ID: &r.Person1ID,
		Types:     []models.Type{mt},
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mirror relationship")
	}
	return m, nil
}

func (s *Service) mirrorMissing(ctx context.Context, r *models.Relationship, op string) {
	s.logger.WarnContext(ctx, "mirror relationship missing",
		"operation", op,
		"relationship_id", r.ID,
		"relationship_type", r.Type,
		"person1_id", r.Person1ID,
		"person2_id", r.Person2ID,
	)
	if s.metrics != nil {
		s.metrics.IncrementMirrorMissing()
	}
}

func (s *Service) writeErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "relationship already exists")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "relationship not found")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) record(ctx context.Context, kind changefeed.Kind, r *models.Relationship) error {
	if s.outbox == nil {
		return nil
	}
	ev, err := changefeed.NewEvent(ctx, kind, r.ID.String(), []id.PersonID{r.Person1ID, r.Person2ID}, r)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build change event")
	}
	if err := s.outbox.Append(ctx, ev); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record change event")
	}
	return nil
}

// observe finishes a mutation's metrics. It is deferred with a pointer to the
// named error result.
func (s *Service) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveMutation(op, start)
	if *err != nil {
		s.metrics.IncrementRejected(op, string(dErrors.CodeOf(*err)))
	}
}

func policyErr(format string, args ...any) error {
	return dErrors.New(dErrors.CodePolicyViolation, fmt.Sprintf(format, args...))
}
