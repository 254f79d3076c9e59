package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lineage/internal/person/models"
	"lineage/internal/platform/postgres"
	id "lineage/pkg/domain"
	"lineage/pkg/platform/sentinel"
	txcontext "lineage/pkg/platform/tx"
)

// PostgresStore persists persons and their life events.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const personColumns = `id, first_name, middle_name, last_name, maiden_name, gender,
	birth_date, birth_location, death_date, death_location, notes, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Person) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.MaidenName, string(p.Gender),
		p.BirthDate, p.BirthLocation, p.DeathDate, p.DeathLocation, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create person: %w", postgres.MapError(err))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Person) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE persons SET
			first_name = $2, middle_name = $3, last_name = $4, maiden_name = $5, gender = $6,
			birth_date = $7, birth_location = $8, death_date = $9, death_location = $10,
			notes = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.MaidenName, string(p.Gender),
		p.BirthDate, p.BirthLocation, p.DeathDate, p.DeathLocation, p.Notes, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, personID)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.PersonID) (map[id.PersonID]*models.Person, error) {
	out := make(map[id.PersonID]*models.Person, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	strs := make([]string, len(ids))
	for i, pid := range ids {
		strs[i] = pid.String()
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("find persons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddEvent(ctx context.Context, ev *models.Event) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO person_events (id, person_id, event_type, event_date, location, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.PersonID, string(ev.Type), ev.Date, ev.Location, ev.Description, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add person event: %w", postgres.MapError(err))
	}
	return nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, personID id.PersonID) ([]*models.Event, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, person_id, event_type, event_date, location, description, created_at
		FROM person_events
		WHERE person_id = $1
		ORDER BY event_date NULLS LAST, created_at`, personID)
	if err != nil {
		return nil, fmt.Errorf("list person events: %w", err)
	}
	defer rows.Close()

	out := []*models.Event{}
	for rows.Next() {
		var (
			ev   models.Event
			kind string
			date sql.NullTime
		)
		if err := rows.Scan(&ev.ID, &ev.PersonID, &kind, &date, &ev.Location, &ev.Description, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person event: %w", err)
		}
		ev.Type = models.EventType(kind)
		if date.Valid {
			t := date.Time.UTC()
			ev.Date = &t
		}
		ev.CreatedAt = ev.CreatedAt.UTC()
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate person events: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*models.Person, error) {
	var (
		p      models.Person
		gender string
		birth  sql.NullTime
		death  sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &p.MaidenName, &gender,
		&birth, &p.BirthLocation, &death, &p.DeathLocation, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Gender = models.Gender(gender)
	if birth.Valid {
		t := birth.Time.UTC()
		p.BirthDate = &t
	}
	if death.Valid {
		t := death.Time.UTC()
		p.DeathDate = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
