// Package feed holds the per-person notification feed materialized from
// change events.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"lineage/internal/changefeed"
	id "lineage/pkg/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Item is one feed entry as seen by one person.
type Item struct {
	EventID     uuid.UUID       `json:"event_id"`
	PersonID    id.PersonID     `json:"person_id"`
	Kind        changefeed.Kind `json:"kind"`
	AggregateID string          `json:"aggregate_id"`
	ActorID     string          `json:"actor_id,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Store materializes events. Append is idempotent per (event, person) so
// redelivered messages are harmless.
type Store interface {
	Append(ctx context.Context, event changefeed.Event) error
	ListByPerson(ctx context.Context, personID id.PersonID, limit int) ([]Item, error)
}

// ClampLimit maps a requested limit into [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LocalPublisher delivers events straight into a feed store. It stands in for
// Kafka when no brokers are configured.
type LocalPublisher struct {
	store Store
}

func NewLocalPublisher(store Store) *LocalPublisher {
	return &LocalPublisher{store: store}
}

func (p *LocalPublisher) Publish(ctx context.Context, events []changefeed.Event) error {
	for _, ev := range events {
		if err := p.store.Append(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
