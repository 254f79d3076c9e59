package feed

import (
	"context"
	"database/sql"
	"fmt"

	"lineage/internal/changefeed"
	id "lineage/pkg/domain"
)

// PostgresStore persists the feed in change_feed, one row per (event, person).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, ev changefeed.Event) error {
	for _, pid := range ev.PersonIDs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO change_feed (event_id, person_id, event_type, aggregate_id, actor_id, occurred_at, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (event_id, person_id) DO NOTHING`,
			ev.ID, pid, string(ev.Kind), ev.AggregateID, ev.ActorID, ev.OccurredAt, []byte(ev.Payload),
		)
		if err != nil {
			return fmt.Errorf("insert feed item: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListByPerson(ctx context.Context, personID id.PersonID, limit int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, person_id, event_type, aggregate_id, actor_id, occurred_at, payload
		FROM change_feed
		WHERE person_id = $1
		ORDER BY occurred_at DESC, event_id
		LIMIT $2`, personID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it      Item
			kind    string
			payload []byte
		)
		if err := rows.Scan(&it.EventID, &it.PersonID, &kind, &it.AggregateID, &it.ActorID, &it.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		it.Kind = changefeed.Kind(kind)
		it.Payload = payload
		it.OccurredAt = it.OccurredAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed: %w", err)
	}
	return items, nil
}
