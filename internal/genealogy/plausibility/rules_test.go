package plausibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	personmodels "lineage/internal/person/models"
	relmodels "lineage/internal/relationship/models"
)

type RulesSuite struct {
	suite.Suite
	rules *Rules
	now   time.Time
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) SetupTest() {
	s.rules = New(Thresholds{})
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func year(y int) *time.Time {
	t := time.Date(y, 6, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func person(name string, birth, death *time.Time) *personmodels.Person {
	return &personmodels.Person{FirstName: name, BirthDate: birth, DeathDate: death}
}

func (s *RulesSuite) TestDefaultsApplied() {
	s.Equal(DefaultThresholds(), s.rules.Thresholds())

	custom := New(Thresholds{MaxParentAge: 60})
	s.Equal(60, custom.Thresholds().MaxParentAge)
	s.Equal(12, custom.Thresholds().MinParentAge)
}

func (s *RulesSuite) TestValidateAge() {
	s.Run("living person within limit", func() {
		s.True(s.rules.ValidateAge(person("Ada", year(1950), nil), s.now).Valid())
	})

	s.Run("living person past the longevity limit", func() {
		r := s.rules.ValidateAge(person("Ada", year(1890), nil), s.now)
		s.False(r.Valid())
		s.Contains(r.Reasons[0], "Ada would be 135 years old")
	})

	s.Run("deceased person measured to death", func() {
		s.True(s.rules.ValidateAge(person("Ada", year(1800), year(1890)), s.now).Valid())
	})

	s.Run("unknown birth passes", func() {
		s.True(s.rules.ValidateAge(person("Ada", nil, nil), s.now).Valid())
	})
}

func (s *RulesSuite) TestValidateParentChildAgeDifference() {
	tests := []struct {
		name        string
		parentBirth *time.Time
		childBirth  *time.Time
		valid       bool
		contains    string
	}{
		{"typical gap", year(1950), year(1980), true, ""},
		{"parent too young", year(1970), year(1980), false, "below the minimum of 12"},
		{"parent too old", year(1900), year(1980), false, "above the maximum of 70"},
		{"child older than parent", year(1980), year(1950), false, "must be born before"},
		{"missing parent birth", nil, year(1980), true, ""},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.rules.ValidateParentChildAgeDifference(person("P", tt.parentBirth, nil), person("C", tt.childBirth, nil))
			s.Equal(tt.valid, r.Valid())
			if tt.contains != "" {
				s.Require().Len(r.Reasons, 1)
				s.Contains(r.Reasons[0], tt.contains)
			}
		})
	}
}

func (s *RulesSuite) TestValidateMarriage() {
	x := person("X", year(1950), year(2000))
	y := person("Y", year(1960), nil)

	s.Run("plausible union", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeSpouse, StartDate: year(1985)}
		s.True(s.rules.ValidateMarriage(x, y, rel).Valid())
	})

	s.Run("union after a death", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeSpouse, StartDate: year(2005)}
		r := s.rules.ValidateMarriage(x, y, rel)
		s.Equal([]string{"marriage date follows the death of X"}, r.Reasons)
	})

	s.Run("union at the minimum age", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeSpouse, StartDate: year(1970)}
		s.True(s.rules.ValidateMarriage(x, y, rel).Valid())
	})

	s.Run("party too young", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeSpouse, StartDate: year(1968)}
		r := s.rules.ValidateMarriage(x, y, rel)
		s.Equal([]string{"Y would be 8 at marriage, below the minimum of 10"}, r.Reasons)
	})

	s.Run("stricter configured age", func() {
		strict := New(Thresholds{MinMarriageAge: 16})
		rel := &relmodels.Relationship{Type: relmodels.TypeSpouse, StartDate: year(1970)}
		r := strict.ValidateMarriage(x, y, rel)
		s.Equal([]string{"Y would be 10 at marriage, below the minimum of 16"}, r.Reasons)
	})

	s.Run("union before a birth", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeSpouse, StartDate: year(1955)}
		r := s.rules.ValidateMarriage(x, y, rel)
		s.Contains(r.Reasons, "marriage date precedes the birth of Y")
	})

	s.Run("undated union passes", func() {
		s.True(s.rules.ValidateMarriage(x, y, &relmodels.Relationship{Type: relmodels.TypeSpouse}).Valid())
	})
}

func (s *RulesSuite) TestValidateRelationship() {
	parent := person("A", year(1950), year(1990))
	child := person("B", year(1980), nil)

	s.Run("parent edge reads person1 as parent", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeParent}
		s.True(s.rules.ValidateRelationship(parent, child, rel, s.now).Valid())
	})

	s.Run("child edge reads person2 as parent", func() {
		rel := &relmodels.Relationship{Type: relmodels.TypeChild}
		s.True(s.rules.ValidateRelationship(child, parent, rel, s.now).Valid())
	})

	s.Run("child born long after parent's death", func() {
		late := person("C", year(1995), nil)
		rel := &relmodels.Relationship{Type: relmodels.TypeParent}
		r := s.rules.ValidateRelationship(parent, late, rel, s.now)
		s.Contains(r.Reasons, "child C was born after the death of parent A")
	})

	s.Run("inconsistent lifespan surfaces chronology reason", func() {
		broken := person("D", year(1990), year(1950))
		rel := &relmodels.Relationship{Type: relmodels.TypeParent}
		r := s.rules.ValidateRelationship(broken, child, rel, s.now)
		s.Contains(r.Reasons, "birth date must be before death date")
	})
}

func TestYearsBetween(t *testing.T) {
	a := time.Date(1950, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 29, YearsBetween(a, time.Date(1980, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, YearsBetween(a, time.Date(1980, 6, 15, 0, 0, 0, 0, time.UTC)))
}
