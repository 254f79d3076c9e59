package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"lineage/internal/platform/postgres"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	"lineage/pkg/platform/sentinel"
	txcontext "lineage/pkg/platform/tx"
)

// PostgresStore persists relationship edges in PostgreSQL. Every method runs
// on the transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const relationshipColumns = `id, person1_id, person2_id, relationship_type, relationship_qualifier,
	start_date, end_date, notes, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Relationship) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO relationships (`+relationshipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Person1ID, r.Person2ID, string(r.Type), string(r.Qualifier),
		r.StartDate, r.EndDate, r.Notes, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create relationship: %w", postgres.MapError(err))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Relationship) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE relationships SET
			relationship_type = $2,
			relationship_qualifier = $3,
			start_date = $4,
			end_date = $5,
			notes = $6,
			updated_at = $7
		WHERE id = $1`,
		r.ID, string(r.Type), string(r.Qualifier), r.StartDate, r.EndDate, r.Notes, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update relationship: %w", postgres.MapError(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, relID id.RelationshipID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM relationships WHERE id = $1`, relID)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, relID id.RelationshipID) (*models.Relationship, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE id = $1`, relID)
	r, err := scanRelationship(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find relationship: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) FindOne(ctx context.Context, f models.Filter) (*models.Relationship, error) {
	where, args := buildWhere(f)
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships`+where+` ORDER BY created_at, id LIMIT 1`, args...)
	r, err := scanRelationship(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find relationship: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) FindAll(ctx context.Context, f models.Filter) ([]*models.Relationship, error) {
	where, args := buildWhere(f)
	return s.query(ctx, `SELECT `+relationshipColumns+` FROM relationships`+where+` ORDER BY created_at, id`, args...)
}

func (s *PostgresStore) FindBetweenPersons(ctx context.Context, a, b id.PersonID) ([]*models.Relationship, error) {
	return s.query(ctx, `
		SELECT `+relationshipColumns+` FROM relationships
		WHERE (person1_id = $1 AND person2_id = $2) OR (person1_id = $2 AND person2_id = $1)
		ORDER BY created_at, id`, a, b)
}

func (s *PostgresStore) FindRelationships(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	q.Normalize()
	where, args := buildWhere(q.Filter)
	exec := txcontext.Executor(ctx, s.db)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT count(*) FROM relationships`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count relationships: %w", err)
	}

	n := len(args)
	args = append(args, q.PageSize, q.Offset())
	items, err := s.query(ctx, fmt.Sprintf(`SELECT %s FROM relationships%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		relationshipColumns, where, n+1, n+2), args...)
	if err != nil {
		return nil, err
	}
	return &models.Page{Items: items, Page: q.Page, PageSize: q.PageSize, Total: total}, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Relationship, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	out := []*models.Relationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return out, nil
}

// buildWhere translates a Filter into a WHERE clause with positional args,
// following the same rules as Filter.Matches.
func buildWhere(f models.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PersonID != nil {
		p := arg(*f.PersonID)
		clauses = append(clauses, fmt.Sprintf("(person1_id = %s OR person2_id = %s)", p, p))
	}
	if f.Person1ID != nil {
		clauses = append(clauses, "person1_id = "+arg(*f.Person1ID))
	}
	if f.Person2ID != nil {
		clauses = append(clauses, "person2_id = "+arg(*f.Person2ID))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		clauses = append(clauses, "relationship_type = ANY("+arg(pq.Array(types))+")")
	}
	if f.Qualifier != nil {
		clauses = append(clauses, "relationship_qualifier = "+arg(string(*f.Qualifier)))
	}
	if f.DateFrom != nil || f.DateTo != nil {
		clauses = append(clauses, fmt.Sprintf("(%s OR %s)",
			dateInRange("start_date", f, arg), dateInRange("end_date", f, arg)))
	}
	switch f.Status {
	case models.StatusActive:
		clauses = append(clauses, "(end_date IS NULL OR end_date > "+arg(f.Now)+")")
	case models.StatusEnded:
		clauses = append(clauses, "(end_date IS NOT NULL AND end_date <= "+arg(f.Now)+")")
	}
	if f.Search != "" {
		clauses = append(clauses, "notes ILIKE "+arg("%"+escapeLike(f.Search)+"%"))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func dateInRange(col string, f models.Filter, arg func(any) string) string {
	parts := []string{col + " IS NOT NULL"}
	if f.DateFrom != nil {
		parts = append(parts, col+" >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		parts = append(parts, col+" <= "+arg(*f.DateTo))
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

type scanner interface {
	Scan(dest ...any) error
}

func scanRelationship(row scanner) (*models.Relationship, error) {
	var (
		r         models.Relationship
		relType   string
		qualifier string
		start     sql.NullTime
		end       sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Person1ID, &r.Person2ID, &relType, &qualifier,
		&start, &end, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Type = models.Type(relType)
	r.Qualifier = models.Qualifier(qualifier)
	if start.Valid {
		t := start.Time.UTC()
		r.StartDate = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		r.EndDate = &t
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
