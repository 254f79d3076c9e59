// Package plausibility flags relationships and lifespans that are possible on
// paper but unlikely in life. Every check returns a genealogy.Result; the
// caller applies a policy.
package plausibility

import (
	"fmt"
	"time"

	"lineage/internal/genealogy"
	"lineage/internal/genealogy/chronology"
	personmodels "lineage/internal/person/models"
	relmodels "lineage/internal/relationship/models"
)

// Thresholds are the tunable limits, in whole years.
type Thresholds struct {
	MaxLifespanYears int `yaml:"max_lifespan_years"`
	MinParentAge     int `yaml:"min_parent_age"`
	MaxParentAge     int `yaml:"max_parent_age"`
	MinMarriageAge   int `yaml:"min_marriage_age"`
}

// DefaultThresholds returns the limits used when no rules file is configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLifespanYears: 120,
		MinParentAge:     12,
		MaxParentAge:     70,
		MinMarriageAge:   10,
	}
}

// posthumousBirthWindow allows a child born shortly after the father's death.
const posthumousBirthWindow = 10 * 30 * 24 * time.Hour

// Rules evaluates plausibility against a fixed set of thresholds.
type Rules struct {
	t Thresholds
}

// New builds Rules. Zero thresholds fall back to the defaults.
func New(t Thresholds) *Rules {
	d := DefaultThresholds()
	if t.MaxLifespanYears <= 0 {
		t.MaxLifespanYears = d.MaxLifespanYears
	}
	if t.MinParentAge <= 0 {
		t.MinParentAge = d.MinParentAge
	}
	if t.MaxParentAge <= 0 {
		t.MaxParentAge = d.MaxParentAge
	}
	if t.MinMarriageAge <= 0 {
		t.MinMarriageAge = d.MinMarriageAge
	}
	return &Rules{t: t}
}

// Thresholds returns the effective limits.
func (r *Rules) Thresholds() Thresholds { return r.t }

// ValidateAge flags a lifespan (birth to death, or birth to now for the
// living) above the longevity threshold.
func (r *Rules) ValidateAge(p *personmodels.Person, now time.Time) genealogy.Result {
	if p.BirthDate == nil {
		return genealogy.OK()
	}
	end := now
	if p.DeathDate != nil {
		end = *p.DeathDate
	}
	age := YearsBetween(*p.BirthDate, end)
	if age > r.t.MaxLifespanYears {
		return genealogy.Invalid(fmt.Sprintf("%s would be %d years old, above the plausible maximum of %d",
			label(p), age, r.t.MaxLifespanYears))
	}
	return genealogy.OK()
}

// ValidateParentChildAgeDifference flags a parent who would have been too
// young or too old at the child's birth. Missing birth dates pass.
func (r *Rules) ValidateParentChildAgeDifference(parent, child *personmodels.Person) genealogy.Result {
	if parent.BirthDate == nil || child.BirthDate == nil {
		return genealogy.OK()
	}
	if !parent.BirthDate.Before(*child.BirthDate) {
		return genealogy.Invalid(fmt.Sprintf("parent %s must be born before child %s", label(parent), label(child)))
	}
	gap := YearsBetween(*parent.BirthDate, *child.BirthDate)
	if gap < r.t.MinParentAge {
		return genealogy.Invalid(fmt.Sprintf("parent %s would be %d at the child's birth, below the minimum of %d",
			label(parent), gap, r.t.MinParentAge))
	}
	if gap > r.t.MaxParentAge {
		return genealogy.Invalid(fmt.Sprintf("parent %s would be %d at the child's birth, above the maximum of %d",
			label(parent), gap, r.t.MaxParentAge))
	}
	return genealogy.OK()
}

// ValidateMarriage flags a union that starts before either party's birth,
// after either party's death, or while a party is below the marriage age.
func (r *Rules) ValidateMarriage(p1, p2 *personmodels.Person, rel *relmodels.Relationship) genealogy.Result {
	var res genealogy.Result
	if rel.StartDate == nil {
		return res
	}
	start := *rel.StartDate
	for _, p := range []*personmodels.Person{p1, p2} {
		if p.BirthDate != nil {
			if start.Before(*p.BirthDate) {
				res.Add(fmt.Sprintf("marriage date precedes the birth of %s", label(p)))
				continue
			}
			if age := YearsBetween(*p.BirthDate, start); age < r.t.MinMarriageAge {
				res.Add(fmt.Sprintf("%s would be %d at marriage, below the minimum of %d",
					label(p), age, r.t.MinMarriageAge))
			}
		}
		if p.DeathDate != nil && start.After(*p.DeathDate) {
			res.Add(fmt.Sprintf("marriage date follows the death of %s", label(p)))
		}
	}
	return res
}

// ValidateParentChild is the general check for lineal edges: both lifespans
// must be internally consistent, the age gap plausible, and the child born no
// later than shortly after the parent's death.
func (r *Rules) ValidateParentChild(parent, child *personmodels.Person, now time.Time) genealogy.Result {
	res := genealogy.Merge(
		chronology.ValidatePersonDates(parent, now),
		chronology.ValidatePersonDates(child, now),
		r.ValidateParentChildAgeDifference(parent, child),
	)
	if parent.DeathDate != nil && child.BirthDate != nil &&
		child.BirthDate.After(parent.DeathDate.Add(posthumousBirthWindow)) {
		res.Add(fmt.Sprintf("child %s was born after the death of parent %s", label(child), label(parent)))
	}
	return res
}

// ValidateRelationship dispatches on the edge type: spouse edges get the
// marriage rule, lineal edges the parent/child rule with roles taken from the
// edge direction. Derived kinds have no rule.
func (r *Rules) ValidateRelationship(p1, p2 *personmodels.Person, rel *relmodels.Relationship, now time.Time) genealogy.Result {
	switch rel.Type {
	case relmodels.TypeSpouse:
		return r.ValidateMarriage(p1, p2, rel)
	case relmodels.TypeParent:
		return r.ValidateParentChild(p1, p2, now)
	case relmodels.TypeChild:
		return r.ValidateParentChild(p2, p1, now)
	}
	return genealogy.OK()
}

// YearsBetween counts completed years from a to b.
func YearsBetween(a, b time.Time) int {
	years := b.Year() - a.Year()
	if b.Month() < a.Month() || (b.Month() == a.Month() && b.Day() < a.Day()) {
		years--
	}
	return years
}

func label(p *personmodels.Person) string {
	if name := p.DisplayName(); name != "" {
		return name
	}
	return p.ID.String()
}
