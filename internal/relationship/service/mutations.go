package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lineage/internal/changefeed"
	"lineage/internal/genealogy"
	personmodels "lineage/internal/person/models"
	"lineage/internal/relationship/graph"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/requestcontext"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Create adds a parent or spouse edge. A parent edge is written together with
// its child mirror.
func (s *Service) Create(ctx context.Context, in models.CreateInput) (_ *models.Relationship, err error) {
	ctx, span := s.tracer.Start(ctx, "relationship.Create", trace.WithAttributes(
		attribute.String("relationship.type", string(in.Type)),
	))
	defer span.End()
	defer s.observe(opCreate, time.Now(), &err)

	if !in.Type.IsDirectlyWritable() {
		return nil, policyErr("relationship type %q cannot be created directly; only parent and spouse edges are writable", in.Type)
	}
	now := requestcontext.Now(ctx)
	rel, err := models.NewRelationship(id.NewRelationshipID(), in.Person1ID, in.Person2ID,
		in.Type, in.Qualifier, in.StartDate, in.EndDate, strings.TrimSpace(in.Notes), now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p1, p2, err := s.loadPair(ctx, rel.Person1ID, rel.Person2ID)
		if err != nil {
			return err
		}
		if err := s.checkDuplicate(ctx, rel, id.RelationshipID{}); err != nil {
			return err
		}
		if err := s.checkPlausible(p1, p2, rel, now); err != nil {
			return err
		}
		if rel.Type == models.TypeParent {
			if err := s.checkAcyclic(ctx, rel); err != nil {
				return err
			}
		}
		if err := s.store.Create(ctx, rel); err != nil {
			return s.writeErr(err, "failed to create relationship")
		}
		if mirror, ok := rel.MirrorEdge(id.NewRelationshipID(), now); ok {
			if err := s.store.Create(ctx, mirror); err != nil {
				return s.writeErr(err, "failed to create mirror relationship")
			}
		}
		return s.record(ctx, changefeed.KindRelationshipCreated, rel)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	span.SetAttributes(attribute.String("relationship.id", rel.ID.String()))
	s.logger.InfoContext(ctx, "relationship created",
		"relationship_id", rel.ID,
		"relationship_type", rel.Type,
		"person1_id", rel.Person1ID,
		"person2_id", rel.Person2ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return rel, nil
}

// Update applies a partial update. Parent and spouse edges may be re-typed
// between each other; a child edge accepts field updates only. The qualifier
// of a lineal edge is kept in step with its mirror.
func (s *Service) Update(ctx context.Context, relID id.RelationshipID, in models.UpdateInput) (_ *models.Relationship, err error) {
	ctx, span := s.tracer.Start(ctx, "relationship.Update", trace.WithAttributes(
		attribute.String("relationship.id", relID.String()),
	))
	defer span.End()
	defer s.observe(opUpdate, time.Now(), &err)

	now := requestcontext.Now(ctx)
	var updated *models.Relationship
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.loadRelationship(ctx, relID)
		if err != nil {
			return err
		}
		retype := in.IsRetype(current.Type)
		if retype {
			if !in.Type.IsValid() || !in.Type.IsDirectlyWritable() {
				return policyErr("relationship cannot be re-typed to %q; only parent and spouse are writable", *in.Type)
			}
			if current.Type == models.TypeChild {
				return policyErr("child relationships are derived and cannot be re-typed")
			}
		}
		merged := in.Apply(current, now)
		if !merged.Type.IsUpdatable() {
			return policyErr("relationship type %q cannot be updated", merged.Type)
		}
		if err := merged.CheckInvariants(); err != nil {
			return err
		}

		p1, p2, err := s.loadPair(ctx, merged.Person1ID, merged.Person2ID)
		if err != nil {
			return err
		}
		if retype {
			if err := s.checkDuplicate(ctx, merged, current.ID); err != nil {
				return err
			}
		}
		if err := s.checkPlausible(p1, p2, merged, now); err != nil {
			return err
		}
		if retype && merged.Type == models.TypeParent {
			if err := s.checkAcyclic(ctx, merged); err != nil {
				return err
			}
		}

		if err := s.store.Update(ctx, merged); err != nil {
			return s.writeErr(err, "failed to update relationship")
		}
		if err := s.syncMirror(ctx, current, merged, now); err != nil {
			return err
		}
		updated = merged
		return s.record(ctx, changefeed.KindRelationshipUpdated, merged)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "relationship updated",
		"relationship_id", relID,
		"relationship_type", updated.Type,
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// syncMirror keeps the derived inverse of a lineal edge consistent with an
// update: a re-type away from parent drops the mirror, a re-type to parent
// creates one, and a qualifier change is copied across. Notes and dates stay
// per edge.
func (s *Service) syncMirror(ctx context.Context, before, after *models.Relationship, now time.Time) error {
	switch {
	case before.Type == models.TypeParent && after.Type != models.TypeParent:
		mirror, err := s.findMirror(ctx, before)
		if err != nil {
			return err
		}
		if mirror == nil {
			s.mirrorMissing(ctx, before, opUpdate)
			return nil
		}
		if err := s.store.Delete(ctx, mirror.ID); err != nil {
			return s.writeErr(err, "failed to delete mirror relationship")
		}
		return nil

	case before.Type != models.TypeParent && after.Type == models.TypeParent:
		mirror, _ := after.MirrorEdge(id.NewRelationshipID(), now)
		if err := s.store.Create(ctx, mirror); err != nil {
			return s.writeErr(err, "failed to create mirror relationship")
		}
		return nil
	}

	if !after.Type.IsLineal() || before.Qualifier == after.Qualifier {
		return nil
	}
	mirror, err := s.findMirror(ctx, after)
	if err != nil {
		return err
	}
	if mirror == nil {
		s.mirrorMissing(ctx, after, opUpdate)
		return nil
	}
	mirror.Qualifier = after.Qualifier
	mirror.UpdatedAt = now
	if err := s.store.Update(ctx, mirror); err != nil {
		return s.writeErr(err, "failed to update mirror relationship")
	}
	return nil
}

// Delete removes an edge and, for lineal edges, its mirror.
func (s *Service) Delete(ctx context.Context, relID id.RelationshipID) (err error) {
	ctx, span := s.tracer.Start(ctx, "relationship.Delete", trace.WithAttributes(
		attribute.String("relationship.id", relID.String()),
	))
	defer span.End()
	defer s.observe(opDelete, time.Now(), &err)

	var deleted *models.Relationship
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rel, err := s.loadRelationship(ctx, relID)
		if err != nil {
			return err
		}
		if rel.Type.IsLineal() {
			mirror, err := s.findMirror(ctx, rel)
			if err != nil {
				return err
			}
			if mirror == nil {
				s.mirrorMissing(ctx, rel, opDelete)
			} else if err := s.store.Delete(ctx, mirror.ID); err != nil {
				return s.writeErr(err, "failed to delete mirror relationship")
			}
		}
		if err := s.store.Delete(ctx, rel.ID); err != nil {
			return s.writeErr(err, "failed to delete relationship")
		}
		deleted = rel
		return s.record(ctx, changefeed.KindRelationshipDeleted, rel)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	s.logger.InfoContext(ctx, "relationship deleted",
		"relationship_id", relID,
		"relationship_type", deleted.Type,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// checkDuplicate rejects an edge of the same type between the same pair in
// either direction. self is skipped so an update does not collide with the
// edge being updated.
func (s *Service) checkDuplicate(ctx context.Context, rel *models.Relationship, self id.RelationshipID) error {
	existing, err := s.store.FindBetweenPersons(ctx, rel.Person1ID, rel.Person2ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load relationships between persons")
	}
	for _, e := range existing {
		if e.ID == self || e.Type != rel.Type {
			continue
		}
		if e.Person1ID == rel.Person1ID {
			return dErrors.Newf(dErrors.CodeConflict, "a %s relationship already exists between %s and %s (%s)",
				rel.Type, rel.Person1ID, rel.Person2ID, e.ID)
		}
		return dErrors.Newf(dErrors.CodeConflict, "the inverse %s relationship already exists between %s and %s (%s)",
			rel.Type, e.Person1ID, e.Person2ID, e.ID)
	}
	return nil
}

func (s *Service) checkPlausible(p1, p2 *personmodels.Person, rel *models.Relationship, now time.Time) error {
	return genealogy.Enforce(s.rules.ValidateRelationship(p1, p2, rel, now), genealogy.Blocking)
}

// checkAcyclic runs cycle detection over every lineal edge plus the proposal.
func (s *Service) checkAcyclic(ctx context.Context, rel *models.Relationship) error {
	lineal, err := s.store.FindAll(ctx, models.Filter{Types: []models.Type{models.TypeParent, models.TypeChild}})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lineage")
	}
	res := graph.DetectCircularRelationships(lineal, rel)
	if res.Valid() {
		return nil
	}
	return dErrors.WithReasons(dErrors.CodeCircularRelationship, res.Reasons)
}
