// Package changefeed records domain mutations for the notification feed.
//
// Services append an Event to the outbox inside the same transaction as the
// write, so an event exists exactly when its mutation committed. The relay
// ships pending outbox rows to Kafka; the consumer materializes them into a
// per-person feed.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "lineage/pkg/domain"
	"lineage/pkg/requestcontext"
)

// Kind names what happened.
type Kind string

const (
	KindPersonCreated       Kind = "person.created"
	KindPersonUpdated       Kind = "person.updated"
	KindPersonEventAdded    Kind = "person.event_added"
	KindRelationshipCreated Kind = "relationship.created"
	KindRelationshipUpdated Kind = "relationship.updated"
	KindRelationshipDeleted Kind = "relationship.deleted"
)

// AggregateType is the entity family the event belongs to.
func (k Kind) AggregateType() string {
	switch k {
	case KindRelationshipCreated, KindRelationshipUpdated, KindRelationshipDeleted:
		return "relationship"
	}
	return "person"
}

// Event is one committed change. PersonIDs lists every person whose feed
// shows it.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	AggregateID string          `json:"aggregate_id"`
	PersonIDs   []id.PersonID   `json:"person_ids"`
	ActorID     string          `json:"actor_id,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event stamped with the actor, request id and request
// time carried by ctx.
func NewEvent(ctx context.Context, kind Kind, aggregateID string, persons []id.PersonID, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	ev := Event{
		ID:          uuid.New(),
		Kind:        kind,
		AggregateID: aggregateID,
		PersonIDs:   persons,
		RequestID:   requestcontext.RequestID(ctx),
		OccurredAt:  requestcontext.Now(ctx).UTC(),
		Payload:     body,
	}
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		ev.ActorID = actor.String()
	}
	return ev, nil
}

// Outbox accepts events inside the caller's transaction.
type Outbox interface {
	Append(ctx context.Context, event Event) error
}

// Publisher ships events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
}
