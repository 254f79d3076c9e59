package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lineage/internal/changefeed"
	"lineage/internal/changefeed/feed"
	"lineage/internal/genealogy"
	"lineage/internal/genealogy/chronology"
	"lineage/internal/genealogy/plausibility"
	"lineage/internal/person/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/sentinel"
	"lineage/pkg/requestcontext"
)

// Store is the person persistence the service needs.
type Store interface {
	Create(ctx context.Context, p *models.Person) error
	Update(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	FindByIDs(ctx context.Context, ids []id.PersonID) (map[id.PersonID]*models.Person, error)
	AddEvent(ctx context.Context, ev *models.Event) error
	ListEvents(ctx context.Context, personID id.PersonID) ([]*models.Event, error)
}

// Tx scopes a unit of work; the transaction travels in ctx.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FeedReader lists the notification feed of a person.
type FeedReader interface {
	ListByPerson(ctx context.Context, personID id.PersonID, limit int) ([]feed.Item, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, personID id.PersonID)
}

// Service manages persons and their life events. Person dates and longevity
// are enforced on every write; historical heuristics on events are advisory.
type Service struct {
	store  Store
	tx     Tx
	rules  *plausibility.Rules
	outbox changefeed.Outbox
	feed   FeedReader
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithRules(rules *plausibility.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

func WithOutbox(outbox changefeed.Outbox) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

func WithFeed(feed FeedReader) Option {
	return func(s *Service) {
		s.feed = feed
	}
}

func New(store Store, tx Tx, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     tx,
		rules:  plausibility.New(plausibility.Thresholds{}),
		logger: slog.Default(),
		tracer: otel.Tracer("lineage/person"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in models.CreateInput) (*models.Person, error) {
	ctx, span := s.tracer.Start(ctx, "person.Create")
	defer span.End()

	now := requestcontext.Now(ctx)
	p, err := models.NewPerson(id.NewPersonID(), in.FirstName, in.LastName, in.Gender, now)
	if err != nil {
		return nil, asValidation(err)
	}
	p.MiddleName = strings.TrimSpace(in.MiddleName)
	p.MaidenName = strings.TrimSpace(in.MaidenName)
	p.BirthDate = in.BirthDate
	p.BirthLocation = in.BirthLocation
	p.DeathDate = in.DeathDate
	p.DeathLocation = in.DeathLocation
	p.Notes = in.Notes

	if err := s.validatePerson(p, now); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "person already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
		}
		return s.record(ctx, changefeed.KindPersonCreated, p.ID, p)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("person.id", p.ID.String()))
	s.logger.InfoContext(ctx, "person created",
		"person_id", p.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return p, nil
}

func (s *Service) Update(ctx context.Context, personID id.PersonID, in models.UpdateInput) (*models.Person, error) {
	ctx, span := s.tracer.Start(ctx, "person.Update", trace.WithAttributes(attribute.String("person.id", personID.String())))
	defer span.End()

	now := requestcontext.Now(ctx)
	var updated *models.Person
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, personID)
		if err != nil {
			return err
		}
		merged := in.Apply(current, now)
		if strings.TrimSpace(merged.FirstName) == "" && strings.TrimSpace(merged.LastName) == "" {
			return dErrors.New(dErrors.CodeValidation, "person needs a first or last name")
		}
		if !merged.Gender.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "invalid gender")
		}
		if err := s.validatePerson(merged, now); err != nil {
			return err
		}
		if err := s.store.Update(ctx, merged); err != nil {
			return s.mapStoreErr(err, "failed to update person")
		}
		updated = merged
		return s.record(ctx, changefeed.KindPersonUpdated, merged.ID, merged)
	})
	if err != nil {
		return nil, err
	}
	if c, ok := s.store.(cacheInvalidator); ok {
		c.Invalidate(ctx, personID)
	}
	s.logger.InfoContext(ctx, "person updated",
		"person_id", personID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	return s.load(ctx, personID)
}

// FindByID is the person lookup the relationship service depends on.
func (s *Service) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	return s.load(ctx, personID)
}

// FindByIDs returns the persons that exist among ids.
func (s *Service) FindByIDs(ctx context.Context, ids []id.PersonID) (map[id.PersonID]*models.Person, error) {
	found, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load persons")
	}
	return found, nil
}

// AddEvent attaches a life event. An event outside the person's lifespan is
// rejected; historical findings come back as warnings.
func (s *Service) AddEvent(ctx context.Context, in models.EventInput) (*models.EventResult, error) {
	ctx, span := s.tracer.Start(ctx, "person.AddEvent", trace.WithAttributes(attribute.String("person.id", in.PersonID.String())))
	defer span.End()

	if strings.TrimSpace(string(in.Type)) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event_type is required")
	}
	now := requestcontext.Now(ctx)
	ev := &models.Event{
		ID:          id.NewEventID(),
		PersonID:    in.PersonID,
		Type:        in.Type,
		Date:        in.Date,
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		CreatedAt:   now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.load(ctx, in.PersonID)
		if err != nil {
			return err
		}
		if err := chronology.ValidateEventAgainstPerson(ev, p); err != nil {
			return err
		}
		if err := s.store.AddEvent(ctx, ev); err != nil {
			return s.mapStoreErr(err, "failed to add event")
		}
		return s.record(ctx, changefeed.KindPersonEventAdded, p.ID, ev)
	})
	if err != nil {
		return nil, err
	}

	warnings := chronology.ValidateHistoricalConsistency(ev.Date, ev.Type, ev.Location, now)
	if !warnings.Valid() {
		s.logger.InfoContext(ctx, "event stored with historical warnings",
			"person_id", in.PersonID,
			"event_id", ev.ID,
			"warnings", warnings.Reasons,
		)
	}
	return &models.EventResult{Event: ev, Warnings: warnings.Reasons}, nil
}

func (s *Service) ListEvents(ctx context.Context, personID id.PersonID) ([]*models.Event, error) {
	if _, err := s.load(ctx, personID); err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// Changes returns the notification feed of a person, newest first.
func (s *Service) Changes(ctx context.Context, personID id.PersonID, limit int) ([]feed.Item, error) {
	if _, err := s.load(ctx, personID); err != nil {
		return nil, err
	}
	if s.feed == nil {
		return []feed.Item{}, nil
	}
	items, err := s.feed.ListByPerson(ctx, personID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list changes")
	}
	return items, nil
}

func (s *Service) validatePerson(p *models.Person, now time.Time) error {
	r := genealogy.Merge(
		chronology.ValidatePersonDates(p, now),
		s.rules.ValidateAge(p, now),
	)
	return genealogy.Enforce(r, genealogy.Blocking)
}

func (s *Service) load(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	p, err := s.store.FindByID(ctx, personID)
	if err != nil {
		return nil, s.mapStoreErr(err, "failed to load person")
	}
	return p, nil
}

func (s *Service) mapStoreErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) record(ctx context.Context, kind changefeed.Kind, personID id.PersonID, payload any) error {
	if s.outbox == nil {
		return nil
	}
	ev, err := changefeed.NewEvent(ctx, kind, personID.String(), []id.PersonID{personID}, payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build change event")
	}
	if err := s.outbox.Append(ctx, ev); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record change event")
	}
	return nil
}

func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return err
}
