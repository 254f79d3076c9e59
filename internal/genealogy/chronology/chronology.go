// Package chronology checks date consistency within a person's life.
package chronology

import (
	"fmt"
	"strings"
	"time"

	"lineage/internal/genealogy"
	"lineage/internal/person/models"
	dErrors "lineage/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// ValidatePersonDates fails when birth is not strictly before death, or when
// either date lies after now.
func ValidatePersonDates(p *models.Person, now time.Time) genealogy.Result {
	var r genealogy.Result
	if p.BirthDate != nil && p.BirthDate.After(now) {
		r.Add("birth date cannot be in the future")
	}
	if p.DeathDate != nil && p.DeathDate.After(now) {
		r.Add("death date cannot be in the future")
	}
	if p.BirthDate != nil && p.DeathDate != nil && !p.BirthDate.Before(*p.DeathDate) {
		r.Add("birth date must be before death date")
	}
	return r
}

// Bound names the lifespan limit an event violated.
type Bound string

const (
	BoundBirth Bound = "birth"
	BoundDeath Bound = "death"
)

// Error reports an event dated outside a person's lifespan.
type Error struct {
	Bound     Bound
	EventDate time.Time
	Limit     time.Time
}

func (e *Error) Error() string {
	if e.Bound == BoundBirth {
		return fmt.Sprintf("event date %s precedes birth date %s", e.EventDate.Format(dateLayout), e.Limit.Format(dateLayout))
	}
	return fmt.Sprintf("event date %s follows death date %s", e.EventDate.Format(dateLayout), e.Limit.Format(dateLayout))
}

// ValidateEventAgainstPerson returns a validation error wrapping *Error when
// the event date precedes birth or follows death. Undated events and unknown
// bounds pass. An event on the birth or death date itself is in bounds.
func ValidateEventAgainstPerson(ev *models.Event, p *models.Person) error {
	if ev.Date == nil {
		return nil
	}
	if p.BirthDate != nil && ev.Date.Before(*p.BirthDate) {
		cerr := &Error{Bound: BoundBirth, EventDate: *ev.Date, Limit: *p.BirthDate}
		return dErrors.Wrap(cerr, dErrors.CodeValidation, "event predates birth")
	}
	if p.DeathDate != nil && ev.Date.After(*p.DeathDate) {
		cerr := &Error{Bound: BoundDeath, EventDate: *ev.Date, Limit: *p.DeathDate}
		return dErrors.Wrap(cerr, dErrors.CodeValidation, "event postdates death")
	}
	return nil
}

// recordWindow is the period in which a record type is realistically found.
type recordWindow struct {
	from, to int // years, inclusive; 0 means open
	note     string
}

var recordWindows = map[models.EventType]recordWindow{
	models.EventCensus:      {from: 1790, note: "national censuses begin in 1790"},
	models.EventNaturalized: {from: 1790, note: "naturalization records begin in 1790"},
	models.EventBaptism:     {from: 1538, note: "parish baptism registers before 1538 are rare"},
}

type portWindow struct {
	port string
	recordWindow
}

// portWindows flags immigration through stations outside their operating
// years. Kept sorted by port so warnings come out in a fixed order.
var portWindows = []portWindow{
	{port: "castle garden", recordWindow: recordWindow{from: 1855, to: 1890, note: "Castle Garden operated 1855-1890"}},
	{port: "ellis island", recordWindow: recordWindow{from: 1892, to: 1954, note: "Ellis Island operated 1892-1954"}},
}

// locationExpected lists event types whose records normally carry a place.
var locationExpected = map[models.EventType]bool{
	models.EventCensus:      true,
	models.EventImmigration: true,
	models.EventEmigration:  true,
	models.EventResidence:   true,
	models.EventBurial:      true,
}

// earliestDocumentedYear is the point before which almost no personal records survive.
const earliestDocumentedYear = 1000

// ValidateHistoricalConsistency runs record-keeping heuristics. Every reason
// is a warning; callers decide whether to act on them.
func ValidateHistoricalConsistency(date *time.Time, eventType models.EventType, location string, now time.Time) genealogy.Result {
	var r genealogy.Result
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" && locationExpected[eventType] {
		r.Add(fmt.Sprintf("%s records normally include a location", eventType))
	}
	if date == nil {
		return r
	}
	if date.After(now) {
		r.Add("event date is in the future")
	}
	year := date.Year()
	if year < earliestDocumentedYear {
		r.Add(fmt.Sprintf("year %d predates reliable personal records", year))
	}
	if w, ok := recordWindows[eventType]; ok && !w.contains(year) {
		r.Add(w.note)
	}
	if eventType == models.EventImmigration {
		for _, w := range portWindows {
			if strings.Contains(loc, w.port) && !w.contains(year) {
				r.Add(w.note)
			}
		}
	}
	return r
}

func (w recordWindow) contains(year int) bool {
	if w.from != 0 && year < w.from {
		return false
	}
	if w.to != 0 && year > w.to {
		return false
	}
	return true
}
