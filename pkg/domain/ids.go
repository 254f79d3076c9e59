// Package domain holds typed identifiers shared by every module.
//
// Each identifier is a distinct named UUID type so a PersonID can never be
// passed where a RelationshipID is expected. Construct them with the Parse
// functions at trust boundaries; the parsers reject empty, malformed and nil
// UUIDs with CodeInvalidInput.
package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"

	dErrors "lineage/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	PersonID       uuid.UUID
	RelationshipID uuid.UUID
	EventID        uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID("person id", s)
	return PersonID(u), err
}

func ParseRelationshipID(s string) (RelationshipID, error) {
	u, err := parseUUID("relationship id", s)
	return RelationshipID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID("event id", s)
	return EventID(u), err
}

func NewPersonID() PersonID             { return PersonID(uuid.New()) }
func NewRelationshipID() RelationshipID { return RelationshipID(uuid.New()) }
func NewEventID() EventID               { return EventID(uuid.New()) }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id PersonID) String() string       { return uuid.UUID(id).String() }
func (id RelationshipID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RelationshipID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// JSON and database encodings use the canonical UUID text form.

func (id PersonID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PersonID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id PersonID) Value() (driver.Value, error) { return id.String(), nil }
func (id *PersonID) Scan(src any) error         { return scanUUID((*uuid.UUID)(id), src) }

func (id RelationshipID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *RelationshipID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id RelationshipID) Value() (driver.Value, error) { return id.String(), nil }
func (id *RelationshipID) Scan(src any) error         { return scanUUID((*uuid.UUID)(id), src) }

func (id EventID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *EventID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
func (id EventID) Value() (driver.Value, error) { return id.String(), nil }
func (id *EventID) Scan(src any) error         { return scanUUID((*uuid.UUID)(id), src) }

func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func scanUUID(dst *uuid.UUID, src any) error {
	if src == nil {
		*dst = uuid.Nil
		return nil
	}
	if err := dst.Scan(src); err != nil {
		return fmt.Errorf("scan uuid: %w", err)
	}
	return nil
}
