package models

import (
	"time"

	id "lineage/pkg/domain"
)

// CreateInput carries the fields of a new person.
type CreateInput struct {
	FirstName     string
	MiddleName    string
	LastName      string
	MaidenName    string
	Gender        Gender
	BirthDate     *time.Time
	BirthLocation string
	DeathDate     *time.Time
	DeathLocation string
	Notes         string
}

// UpdateInput is a partial update; nil fields keep their value. ClearDeath
// removes a recorded death date.
type UpdateInput struct {
	FirstName     *string
	MiddleName    *string
	LastName      *string
	MaidenName    *string
	Gender        *Gender
	BirthDate     *time.Time
	BirthLocation *string
	DeathDate     *time.Time
	ClearDeath    bool
	DeathLocation *string
	Notes         *string
}

// Apply merges the update into a copy of current.
func (in UpdateInput) Apply(current *Person, now time.Time) *Person {
	p := *current
	setString(&p.FirstName, in.FirstName)
	setString(&p.MiddleName, in.MiddleName)
	setString(&p.LastName, in.LastName)
	setString(&p.MaidenName, in.MaidenName)
	setString(&p.BirthLocation, in.BirthLocation)
	setString(&p.DeathLocation, in.DeathLocation)
	setString(&p.Notes, in.Notes)
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.DeathDate != nil {
		p.DeathDate = in.DeathDate
	}
	if in.ClearDeath {
		p.DeathDate = nil
	}
	p.UpdatedAt = now
	return &p
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// EventInput carries a life event to attach to a person.
type EventInput struct {
	PersonID    id.PersonID
	Type        EventType
	Date        *time.Time
	Location    string
	Description string
}

// EventResult is a stored event plus advisory warnings about it.
type EventResult struct {
	Event    *Event   `json:"event"`
	Warnings []string `json:"warnings,omitempty"`
}
