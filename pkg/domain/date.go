package domain

import (
	"strings"
	"time"

	dErrors "lineage/pkg/domain-errors"
)

// dateLayouts accepts full dates and the partial dates common in records
// (year-month, year). Partial dates resolve to the first day of the period.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate parses an optional date. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid date "+s+": use YYYY-MM-DD, YYYY-MM or YYYY")
}
