package store

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	"lineage/pkg/platform/sentinel"
)

type edgeKey struct {
	p1, p2 id.PersonID
	t      models.Type
}

// InMemoryStore keeps edges in insertion order and enforces the same
// (person1, person2, type) uniqueness as the postgres schema.
type InMemoryStore struct {
	mu    sync.RWMutex
	edges []*models.Relationship
	byID  map[id.RelationshipID]int
	keys  map[edgeKey]id.RelationshipID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID: make(map[id.RelationshipID]int),
		keys: make(map[edgeKey]id.RelationshipID),
	}
}

func keyOf(r *models.Relationship) edgeKey {
	return edgeKey{p1: r.Person1ID, p2: r.Person2ID, t: r.Type}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; ok {
		return sentinel.ErrConflict
	}
	k := keyOf(r)
	if _, ok := s.keys[k]; ok {
		return sentinel.ErrConflict
	}
	s.byID[r.ID] = len(s.edges)
	s.keys[k] = r.ID
	s.edges = append(s.edges, r.Clone())
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, r *models.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	old := s.edges[i]
	if oldKey, newKey := keyOf(old), keyOf(r); oldKey != newKey {
		if _, taken := s.keys[newKey]; taken {
			return sentinel.ErrConflict
		}
		delete(s.keys, oldKey)
		s.keys[newKey] = r.ID
	}
	updated := r.Clone()
	updated.CreatedAt = old.CreatedAt
	s.edges[i] = updated
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, relID id.RelationshipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[relID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.keys, keyOf(s.edges[i]))
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	s.reindex()
	return nil
}

func (s *InMemoryStore) reindex() {
	s.byID = make(map[id.RelationshipID]int, len(s.edges))
	for i, e := range s.edges {
		s.byID[e.ID] = i
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, relID id.RelationshipID) (*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[relID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.edges[i].Clone(), nil
}

// FindOne returns the first edge matching f in (created_at, id) order.
func (s *InMemoryStore) FindOne(_ context.Context, f models.Filter) (*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first *models.Relationship
	for _, e := range s.edges {
		if f.Matches(e) && (first == nil || less(e, first)) {
			first = e
		}
	}
	if first == nil {
		return nil, sentinel.ErrNotFound
	}
	return first.Clone(), nil
}

func (s *InMemoryStore) FindAll(_ context.Context, f models.Filter) ([]*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matching(f), nil
}

// FindBetweenPersons returns edges joining a and b in either direction.
func (s *InMemoryStore) FindBetweenPersons(_ context.Context, a, b id.PersonID) ([]*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Relationship
	for _, e := range s.edges {
		if (e.Person1ID == a && e.Person2ID == b) || (e.Person1ID == b && e.Person2ID == a) {
			out = append(out, e.Clone())
		}
	}
	sortEdges(out)
	return out, nil
}

func (s *InMemoryStore) FindRelationships(_ context.Context, q models.ListQuery) (*models.Page, error) {
	q.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.matching(q.Filter)
	page := &models.Page{Page: q.Page, PageSize: q.PageSize, Total: len(all), Items: []*models.Relationship{}}
	if off := q.Offset(); off < len(all) {
		end := min(off+q.PageSize, len(all))
		page.Items = all[off:end]
	}
	return page, nil
}

// matching returns clones in (created_at, id) order, the order postgres uses.
func (s *InMemoryStore) matching(f models.Filter) []*models.Relationship {
	out := []*models.Relationship{}
	for _, e := range s.edges {
		if f.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sortEdges(out)
	return out
}

// less orders by created_at, then by id bytes, matching postgres uuid ordering.
func less(a, b *models.Relationship) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func sortEdges(edges []*models.Relationship) {
	sort.Slice(edges, func(i, j int) bool { return less(edges[i], edges[j]) })
}

// Snapshot implements tx.Snapshotter. Stored edges are never mutated in
// place, so copying the slice header list is enough.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	edges := append([]*models.Relationship{}, s.edges...)
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.edges = edges
		s.reindex()
		s.keys = make(map[edgeKey]id.RelationshipID, len(s.edges))
		for _, e := range s.edges {
			s.keys[keyOf(e)] = e.ID
		}
	}
}
