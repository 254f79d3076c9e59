package models

import (
	"time"

	id "lineage/pkg/domain"
)

// CreateInput carries the caller-supplied fields of a new edge.
type CreateInput struct {
	Person1ID id.PersonID
	Person2ID id.PersonID
	Type      Type
	Qualifier Qualifier
	StartDate *time.Time
	EndDate   *time.Time
	Notes     string
}

// UpdateInput carries a partial update; nil fields keep their current value.
// Endpoints are immutable: moving an edge is a delete plus a create.
type UpdateInput struct {
	Type      *Type
	Qualifier *Qualifier
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
}

// IsRetype reports whether the update asks for a different type than current.
func (in UpdateInput) IsRetype(current Type) bool {
	return in.Type != nil && *in.Type != current
}

// Apply merges the update into a copy of current.
func (in UpdateInput) Apply(current *Relationship, now time.Time) *Relationship {
	merged := current.Clone()
	if in.Type != nil {
		merged.Type = *in.Type
	}
	if in.Qualifier != nil {
		merged.Qualifier = *in.Qualifier
	}
	if in.StartDate != nil {
		merged.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		merged.EndDate = in.EndDate
	}
	if in.Notes != nil {
		merged.Notes = *in.Notes
	}
	merged.UpdatedAt = now
	return merged
}
