package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	listutil "lineage/pkg/platform/strings"
)

// CreateRelationshipRequest is the body of POST /relationships.
type CreateRelationshipRequest struct {
	Person1ID string `json:"person1_id"`
	Person2ID string `json:"person2_id"`
	Type      string `json:"relationship_type"`
	Qualifier string `json:"relationship_qualifier"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`

	input models.CreateInput
}

func (r *CreateRelationshipRequest) Validate() error {
	p1, err := id.ParsePersonID(r.Person1ID)
	if err != nil {
		return err
	}
	p2, err := id.ParsePersonID(r.Person2ID)
	if err != nil {
		return err
	}
	t, err := models.ParseType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	q, err := models.ParseQualifier(strings.TrimSpace(r.Qualifier))
	if err != nil {
		return err
	}
	start, err := id.ParseDate(r.StartDate)
	if err != nil {
		return err
	}
	end, err := id.ParseDate(r.EndDate)
	if err != nil {
		return err
	}
	r.input = models.CreateInput{
		Person1ID: p1,
		Person2ID: p2,
		Type:      t,
		Qualifier: q,
		StartDate: start,
		EndDate:   end,
		Notes:     r.Notes,
	}
	return nil
}

func (r *CreateRelationshipRequest) Input() models.CreateInput { return r.input }

// UpdateRelationshipRequest is the body of PATCH /relationships/{id}. Absent
// fields are kept. Endpoints cannot be changed.
type UpdateRelationshipRequest struct {
	Type      *string `json:"relationship_type"`
	Qualifier *string `json:"relationship_qualifier"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Notes     *string `json:"notes"`

	input models.UpdateInput
}

func (r *UpdateRelationshipRequest) Validate() error {
	in := models.UpdateInput{Notes: r.Notes}
	if r.Type != nil {
		t, err := models.ParseType(strings.TrimSpace(*r.Type))
		if err != nil {
			return err
		}
		in.Type = &t
	}
	if r.Qualifier != nil {
		q, err := models.ParseQualifier(strings.TrimSpace(*r.Qualifier))
		if err != nil {
			return err
		}
		in.Qualifier = &q
	}
	var err error
	if r.StartDate != nil {
		if in.StartDate, err = id.ParseDate(*r.StartDate); err != nil {
			return err
		}
	}
	if r.EndDate != nil {
		if in.EndDate, err = id.ParseDate(*r.EndDate); err != nil {
			return err
		}
	}
	r.input = in
	return nil
}

func (r *UpdateRelationshipRequest) Input() models.UpdateInput { return r.input }

// parseListQuery reads the filters of GET /relationships. type accepts a
// comma-separated list.
func parseListQuery(v url.Values) (models.ListQuery, error) {
	var q models.ListQuery
	var err error
	if q.Page, err = intParam(v, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(v, "page_size"); err != nil {
		return q, err
	}
	q.Search = strings.TrimSpace(v.Get("search"))
	q.Status = models.Status(v.Get("status"))

	for _, raw := range listutil.SplitListLower(v.Get("type")) {
		t, err := models.ParseType(raw)
		if err != nil {
			return q, err
		}
		q.Types = append(q.Types, t)
	}
	if v.Has("qualifier") {
		qual, err := models.ParseQualifier(v.Get("qualifier"))
		if err != nil {
			return q, err
		}
		q.Qualifier = &qual
	}
	if raw := v.Get("person_id"); raw != "" {
		personID, err := id.ParsePersonID(raw)
		if err != nil {
			return q, err
		}
		q.PersonID = &personID
	}
	if q.DateFrom, err = id.ParseDate(v.Get("from")); err != nil {
		return q, err
	}
	if q.DateTo, err = id.ParseDate(v.Get("to")); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be an integer", key)
	}
	return n, nil
}

func dateRange(v url.Values) (from, to *time.Time, err error) {
	if from, err = id.ParseDate(v.Get("from")); err != nil {
		return nil, nil, err
	}
	if to, err = id.ParseDate(v.Get("to")); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
