package models

import (
	"strings"
	"time"

	id "lineage/pkg/domain"
)

// Status selects edges by end date relative to Filter.Now.
type Status string

const (
	StatusAny    Status = ""
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

func (s Status) IsValid() bool {
	return s == StatusAny || s == StatusActive || s == StatusEnded
}

// Filter narrows relationship queries. Zero fields do not constrain.
type Filter struct {
	PersonID  *id.PersonID // either endpoint
	Person1ID *id.PersonID
	Person2ID *id.PersonID
	Types     []Type
	Qualifier *Qualifier
	// DateFrom/DateTo select edges whose start_date or end_date falls in the
	// inclusive range.
	DateFrom *time.Time
	DateTo   *time.Time
	Status   Status
	Now      time.Time
	// Search is a case-insensitive substring match on notes.
	Search string
}

// Matches evaluates the filter in memory. The postgres store translates the
// same rules to SQL.
func (f Filter) Matches(r *Relationship) bool {
	if f.PersonID != nil && !r.Involves(*f.PersonID) {
		return false
	}
	if f.Person1ID != nil && r.Person1ID != *f.Person1ID {
		return false
	}
	if f.Person2ID != nil && r.Person2ID != *f.Person2ID {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, r.Type) {
		return false
	}
	if f.Qualifier != nil && r.Qualifier != *f.Qualifier {
		return false
	}
	if f.DateFrom != nil || f.DateTo != nil {
		if !f.inRange(r.StartDate) && !f.inRange(r.EndDate) {
			return false
		}
	}
	switch f.Status {
	case StatusActive:
		if !r.IsActiveAt(f.Now) {
			return false
		}
	case StatusEnded:
		if r.IsActiveAt(f.Now) {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Notes), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (f Filter) inRange(t *time.Time) bool {
	if t == nil {
		return false
	}
	if f.DateFrom != nil && t.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.After(*f.DateTo) {
		return false
	}
	return true
}

func containsType(types []Type, t Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery is a paginated filter.
type ListQuery struct {
	Filter
	Page     int
	PageSize int
}

// Normalize clamps pagination to sane bounds.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// Offset is the number of rows to skip.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Page is one page of edges plus the total matching count.
type Page struct {
	Items    []*Relationship `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
}
