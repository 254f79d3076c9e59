package models

import (
	"time"

	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// Type is the kind of kinship an edge records.
type Type string

const (
	TypeParent      Type = "parent"
	TypeChild       Type = "child"
	TypeSpouse      Type = "spouse"
	TypeSibling     Type = "sibling"
	TypeGrandparent Type = "grandparent"
	TypeGrandchild  Type = "grandchild"
	TypeAuntUncle   Type = "aunt_uncle"
	TypeNieceNephew Type = "niece_nephew"
	TypeCousin      Type = "cousin"
)

var validTypes = map[Type]bool{
	TypeParent:      true,
	TypeChild:       true,
	TypeSpouse:      true,
	TypeSibling:     true,
	TypeGrandparent: true,
	TypeGrandchild:  true,
	TypeAuntUncle:   true,
	TypeNieceNephew: true,
	TypeCousin:      true,
}

func (t Type) IsValid() bool { return validTypes[t] }

// IsDirectlyWritable reports whether callers may create or re-type an edge to t.
// Every other kind is derived by traversal over parent and spouse edges.
func (t Type) IsDirectlyWritable() bool {
	return t == TypeParent || t == TypeSpouse
}

// IsUpdatable reports whether an existing edge of type t may be updated. Child
// edges are the derived side of a parent edge and accept field updates but
// cannot be re-typed.
func (t Type) IsUpdatable() bool {
	return t == TypeParent || t == TypeChild || t == TypeSpouse
}

// IsLineal reports whether t is one half of a parent/child pair.
func (t Type) IsLineal() bool {
	return t == TypeParent || t == TypeChild
}

// Mirror returns the type of the derived inverse edge, if t has one.
func (t Type) Mirror() (Type, bool) {
	switch t {
	case TypeParent:
		return TypeChild, true
	case TypeChild:
		return TypeParent, true
	}
	return "", false
}

// ParseType validates a relationship type from external input.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid relationship_type: "+s)
	}
	return t, nil
}

// Qualifier refines an edge. The zero value means no qualifier.
type Qualifier string

const (
	QualifierNone       Qualifier = ""
	QualifierBiological Qualifier = "biological"
	QualifierAdoptive   Qualifier = "adoptive"
	QualifierStep       Qualifier = "step"
	QualifierFoster     Qualifier = "foster"
	QualifierInLaw      Qualifier = "in_law"
)

func (q Qualifier) IsValid() bool {
	switch q {
	case QualifierNone, QualifierBiological, QualifierAdoptive, QualifierStep, QualifierFoster, QualifierInLaw:
		return true
	}
	return false
}

// ParseQualifier validates a qualifier from external input.
func ParseQualifier(s string) (Qualifier, error) {
	q := Qualifier(s)
	if !q.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid relationship_qualifier: "+s)
	}
	return q, nil
}

// Relationship is one stored edge of the kinship graph.
//
// Direction carries meaning: a parent edge Person1 -> Person2 says Person1 is
// the parent of Person2. Its mirror is the child edge Person2 -> Person1 with
// the same qualifier and notes; the relationship service writes both.
//
// Invariants:
//   - Person1ID != Person2ID
//   - StartDate < EndDate when both are set
//   - Type and Qualifier are known values
type Relationship struct {
	ID        id.RelationshipID `json:"id"`
	Person1ID id.PersonID       `json:"person1_id"`
	Person2ID id.PersonID       `json:"person2_id"`
	Type      Type              `json:"relationship_type"`
	Qualifier Qualifier         `json:"relationship_qualifier,omitempty"`
	StartDate *time.Time        `json:"start_date,omitempty"`
	EndDate   *time.Time        `json:"end_date,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewRelationship builds an edge with its invariants checked.
func NewRelationship(relID id.RelationshipID, p1, p2 id.PersonID, t Type, q Qualifier, start, end *time.Time, notes string, now time.Time) (*Relationship, error) {
	r := &Relationship{
		ID:        relID,
		Person1ID: p1,
		Person2ID: p2,
		Type:      t,
		Qualifier: q,
		StartDate: start,
		EndDate:   end,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.CheckInvariants(); err != nil {
		return nil, err
	}
	return r, nil
}

// CheckInvariants validates the structural invariants of the edge.
func (r *Relationship) CheckInvariants() error {
	if r.Person1ID.IsNil() || r.Person2ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "relationship requires two persons")
	}
	if r.Person1ID == r.Person2ID {
		return dErrors.New(dErrors.CodeInvariantViolation, "a person cannot be related to themselves")
	}
	if !r.Type.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid relationship type")
	}
	if !r.Qualifier.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid relationship qualifier")
	}
	if r.StartDate != nil && r.EndDate != nil && !r.StartDate.Before(*r.EndDate) {
		return dErrors.New(dErrors.CodeInvariantViolation, "start_date must be before end_date")
	}
	return nil
}

// MirrorEdge builds the derived inverse of a lineal edge. ok is false for
// types without a mirror.
func (r *Relationship) MirrorEdge(mirrorID id.RelationshipID, now time.Time) (*Relationship, bool) {
	mt, ok := r.Type.Mirror()
	if !ok {
		return nil, false
	}
	return &Relationship{
		ID:        mirrorID,
		Person1ID: r.Person2ID,
		Person2ID: r.Person1ID,
		Type:      mt,
		Qualifier: r.Qualifier,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Notes:     r.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, true
}

// Involves reports whether the edge touches personID.
func (r *Relationship) Involves(personID id.PersonID) bool {
	return r.Person1ID == personID || r.Person2ID == personID
}

// Other returns the endpoint opposite to personID.
func (r *Relationship) Other(personID id.PersonID) id.PersonID {
	if r.Person1ID == personID {
		return r.Person2ID
	}
	return r.Person1ID
}

// ParentAndChild returns (parent, child) for lineal edges.
func (r *Relationship) ParentAndChild() (parent, child id.PersonID, ok bool) {
	switch r.Type {
	case TypeParent:
		return r.Person1ID, r.Person2ID, true
	case TypeChild:
		return r.Person2ID, r.Person1ID, true
	}
	return id.PersonID{}, id.PersonID{}, false
}

// IsActiveAt reports whether the edge has no end date or ends after now.
func (r *Relationship) IsActiveAt(now time.Time) bool {
	return r.EndDate == nil || r.EndDate.After(now)
}

// Clone returns a copy safe to mutate.
func (r *Relationship) Clone() *Relationship {
	c := *r
	if r.StartDate != nil {
		t := *r.StartDate
		c.StartDate = &t
	}
	if r.EndDate != nil {
		t := *r.EndDate
		c.EndDate = &t
	}
	return &c
}
