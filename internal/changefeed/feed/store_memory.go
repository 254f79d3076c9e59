package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lineage/internal/changefeed"
	id "lineage/pkg/domain"
)

type feedKey struct {
	event  uuid.UUID
	person id.PersonID
}

type InMemoryStore struct {
	mu     sync.RWMutex
	seen   map[feedKey]bool
	byUser map[id.PersonID][]Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		seen:   make(map[feedKey]bool),
		byUser: make(map[id.PersonID][]Item),
	}
}

func (s *InMemoryStore) Append(_ context.Context, ev changefeed.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range ev.PersonIDs {
		k := feedKey{event: ev.ID, person: pid}
		if s.seen[k] {
			continue
		}
		s.seen[k] = true
		s.byUser[pid] = append(s.byUser[pid], Item{
			EventID:     ev.ID,
			PersonID:    pid,
			Kind:        ev.Kind,
			AggregateID: ev.AggregateID,
			ActorID:     ev.ActorID,
			OccurredAt:  ev.OccurredAt,
			Payload:     ev.Payload,
		})
	}
	return nil
}

// ListByPerson returns the newest items first.
func (s *InMemoryStore) ListByPerson(_ context.Context, personID id.PersonID, limit int) ([]Item, error) {
	limit = ClampLimit(limit)
	s.mu.RLock()
	items := append([]Item{}, s.byUser[personID]...)
	s.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
