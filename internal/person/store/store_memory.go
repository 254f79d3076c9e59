package store

import (
	"context"
	"sort"
	"sync"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
	"lineage/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	persons map[id.PersonID]*models.Person
	events  map[id.PersonID][]*models.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		persons: make(map[id.PersonID]*models.Person),
		events:  make(map[id.PersonID][]*models.Event),
	}
}

func clonePerson(p *models.Person) *models.Person {
	c := *p
	return &c
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.persons[p.ID] = clonePerson(p)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.persons[p.ID] = clonePerson(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePerson(p), nil
}

// FindByIDs returns the persons that exist; missing ids are absent from the map.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []id.PersonID) (map[id.PersonID]*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.PersonID]*models.Person, len(ids))
	for _, pid := range ids {
		if p, ok := s.persons[pid]; ok {
			out[pid] = clonePerson(p)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AddEvent(_ context.Context, ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[ev.PersonID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *ev
	s.events[ev.PersonID] = append(s.events[ev.PersonID], &c)
	return nil
}

// ListEvents returns a person's events by date; undated events sort last.
func (s *InMemoryStore) ListEvents(_ context.Context, personID id.PersonID) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events[personID]))
	for _, ev := range s.events[personID] {
		c := *ev
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	persons := make(map[id.PersonID]*models.Person, len(s.persons))
	for k, v := range s.persons {
		persons[k] = v
	}
	events := make(map[id.PersonID][]*models.Event, len(s.events))
	for k, v := range s.events {
		events[k] = append([]*models.Event{}, v...)
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.persons = persons
		s.events = events
	}
}
