package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lineage/internal/changefeed"
)

// InMemoryStore is a process-local outbox. Entries stay in append order.
type InMemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event changefeed.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Event: event})
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[uuid.UUID]bool, len(ids))
	for _, eid := range ids {
		set[eid] = true
	}
	for i := range s.entries {
		if set[s.entries[i].Event.ID] {
			published := at
			s.entries[i].PublishedAt = &published
		}
	}
	return nil
}

// Len is the number of entries, published or not.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot implements tx.Snapshotter so events of a rolled-back write vanish
// with it.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if n < len(s.entries) {
			s.entries = s.entries[:n]
		}
	}
}
