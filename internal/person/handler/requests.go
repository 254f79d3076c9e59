package handler

import (
	"strings"
	"time"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// CreatePersonRequest is the body of POST /persons. Dates accept YYYY-MM-DD,
// YYYY-MM or YYYY.
type CreatePersonRequest struct {
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	MaidenName    string `json:"maiden_name"`
	Gender        string `json:"gender"`
	BirthDate     string `json:"birth_date"`
	BirthLocation string `json:"birth_location"`
	DeathDate     string `json:"death_date"`
	DeathLocation string `json:"death_location"`
	Notes         string `json:"notes"`

	birth *time.Time
	death *time.Time
}

func (r *CreatePersonRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" && strings.TrimSpace(r.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name or last_name is required")
	}
	if !models.Gender(r.Gender).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid gender")
	}
	var err error
	if r.birth, err = id.ParseDate(r.BirthDate); err != nil {
		return err
	}
	if r.death, err = id.ParseDate(r.DeathDate); err != nil {
		return err
	}
	return nil
}

func (r *CreatePersonRequest) Input() models.CreateInput {
	return models.CreateInput{
		FirstName:     r.FirstName,
		MiddleName:    r.MiddleName,
		LastName:      r.LastName,
		MaidenName:    r.MaidenName,
		Gender:        models.Gender(r.Gender),
		BirthDate:     r.birth,
		BirthLocation: r.BirthLocation,
		DeathDate:     r.death,
		DeathLocation: r.DeathLocation,
		Notes:         r.Notes,
	}
}

// UpdatePersonRequest is the body of PATCH /persons/{id}. Absent fields are
// kept; an empty death_date clears a recorded death.
type UpdatePersonRequest struct {
	FirstName     *string `json:"first_name"`
	MiddleName    *string `json:"middle_name"`
	LastName      *string `json:"last_name"`
	MaidenName    *string `json:"maiden_name"`
	Gender        *string `json:"gender"`
	BirthDate     *string `json:"birth_date"`
	BirthLocation *string `json:"birth_location"`
	DeathDate     *string `json:"death_date"`
	DeathLocation *string `json:"death_location"`
	Notes         *string `json:"notes"`

	input models.UpdateInput
}

func (r *UpdatePersonRequest) Validate() error {
	in := models.UpdateInput{
		FirstName:     r.FirstName,
		MiddleName:    r.MiddleName,
		LastName:      r.LastName,
		MaidenName:    r.MaidenName,
		BirthLocation: r.BirthLocation,
		DeathLocation: r.DeathLocation,
		Notes:         r.Notes,
	}
	if r.Gender != nil {
		g := models.Gender(*r.Gender)
		if !g.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "invalid gender")
		}
		in.Gender = &g
	}
	if r.BirthDate != nil {
		if strings.TrimSpace(*r.BirthDate) == "" {
			return dErrors.New(dErrors.CodeValidation, "birth_date cannot be cleared")
		}
		birth, err := id.ParseDate(*r.BirthDate)
		if err != nil {
			return err
		}
		in.BirthDate = birth
	}
	if r.DeathDate != nil {
		death, err := id.ParseDate(*r.DeathDate)
		if err != nil {
			return err
		}
		in.DeathDate = death
		in.ClearDeath = death == nil
	}
	r.input = in
	return nil
}

func (r *UpdatePersonRequest) Input() models.UpdateInput { return r.input }

// AddEventRequest is the body of POST /persons/{id}/events.
type AddEventRequest struct {
	EventType   string `json:"event_type"`
	EventDate   string `json:"event_date"`
	Location    string `json:"location"`
	Description string `json:"description"`

	date *time.Time
}

func (r *AddEventRequest) Validate() error {
	if strings.TrimSpace(r.EventType) == "" {
		return dErrors.New(dErrors.CodeValidation, "event_type is required")
	}
	var err error
	r.date, err = id.ParseDate(r.EventDate)
	return err
}

func (r *AddEventRequest) Input(personID id.PersonID) models.EventInput {
	return models.EventInput{
		PersonID:    personID,
		Type:        models.EventType(strings.ToLower(strings.TrimSpace(r.EventType))),
		Date:        r.date,
		Location:    r.Location,
		Description: r.Description,
	}
}
