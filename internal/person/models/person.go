package models

import (
	"strings"
	"time"

	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// Gender is optional; the zero value means unset.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// Person is a research subject. Relationships and events reference persons by
// id; they never own them.
//
// Invariants (checked by the chronology validator, not the constructor, so
// legacy rows can still be loaded):
//   - BirthDate strictly precedes DeathDate when both are set
//   - neither date lies in the future
type Person struct {
	ID            id.PersonID `json:"id"`
	FirstName     string      `json:"first_name"`
	MiddleName    string      `json:"middle_name,omitempty"`
	LastName      string      `json:"last_name"`
	MaidenName    string      `json:"maiden_name,omitempty"`
	Gender        Gender      `json:"gender,omitempty"`
	BirthDate     *time.Time  `json:"birth_date,omitempty"`
	BirthLocation string      `json:"birth_location,omitempty"`
	DeathDate     *time.Time  `json:"death_date,omitempty"`
	DeathLocation string      `json:"death_location,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// DisplayName joins the non-empty name parts.
func (p *Person) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// IsLiving reports whether no death date is recorded.
func (p *Person) IsLiving() bool {
	return p.DeathDate == nil
}

// NewPerson builds a person with the structural invariants enforced. Date
// plausibility is a separate concern handled by the genealogy validators.
func NewPerson(personID id.PersonID, firstName, lastName string, gender Gender, now time.Time) (*Person, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person needs a first or last name")
	}
	if !gender.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid gender")
	}
	return &Person{
		ID:        personID,
		FirstName: firstName,
		LastName:  lastName,
		Gender:    gender,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// EventType names a life event. The set is open; the listed constants are the
// ones the historical heuristics know about.
type EventType string

const (
	EventBirth       EventType = "birth"
	EventBaptism     EventType = "baptism"
	EventMarriage    EventType = "marriage"
	EventDivorce     EventType = "divorce"
	EventCensus      EventType = "census"
	EventImmigration EventType = "immigration"
	EventEmigration  EventType = "emigration"
	EventNaturalized EventType = "naturalization"
	EventMilitary    EventType = "military_service"
	EventResidence   EventType = "residence"
	EventDeath       EventType = "death"
	EventBurial      EventType = "burial"
)

// Event is a dated fact in a person's life.
type Event struct {
	ID          id.EventID  `json:"id"`
	PersonID    id.PersonID `json:"person_id"`
	Type        EventType   `json:"event_type"`
	Date        *time.Time  `json:"event_date,omitempty"`
	Location    string      `json:"location,omitempty"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
