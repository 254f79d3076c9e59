package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
	"lineage/pkg/platform/sentinel"
	"lineage/pkg/platform/tx"
)

func newPerson(t *testing.T, first string) *models.Person {
	t.Helper()
	p, err := models.NewPerson(id.NewPersonID(), first, "Marsh", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

func TestInMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	p := newPerson(t, "Agnes")

	require.NoError(t, s.Create(ctx, p))
	assert.ErrorIs(t, s.Create(ctx, p), sentinel.ErrConflict)

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agnes", got.FirstName)

	got.FirstName = "mutated"
	again, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agnes", again.FirstName, "callers get copies")

	_, err = s.FindByID(ctx, id.NewPersonID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_FindByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	p := newPerson(t, "Agnes")
	require.NoError(t, s.Create(ctx, p))

	got, err := s.FindByIDs(ctx, []id.PersonID{p.ID, id.NewPersonID()})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, p.ID)
}

func TestInMemoryStore_UpdateMissing(t *testing.T) {
	err := NewInMemoryStore().Update(context.Background(), newPerson(t, "Nobody"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_EventsSortUndatedLast(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	p := newPerson(t, "Agnes")
	require.NoError(t, s.Create(ctx, p))

	d1901 := time.Date(1901, 4, 1, 0, 0, 0, 0, time.UTC)
	d1881 := time.Date(1881, 4, 3, 0, 0, 0, 0, time.UTC)
	for _, ev := range []*models.Event{
		{ID: id.NewEventID(), PersonID: p.ID, Type: models.EventResidence},
		{ID: id.NewEventID(), PersonID: p.ID, Type: models.EventCensus, Date: &d1901},
		{ID: id.NewEventID(), PersonID: p.ID, Type: models.EventCensus, Date: &d1881},
	} {
		require.NoError(t, s.AddEvent(ctx, ev))
	}

	events, err := s.ListEvents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, d1881, *events[0].Date)
	assert.Equal(t, d1901, *events[1].Date)
	assert.Nil(t, events[2].Date)

	err = s.AddEvent(ctx, &models.Event{ID: id.NewEventID(), PersonID: id.NewPersonID(), Type: models.EventBirth})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	kept := newPerson(t, "Kept")
	require.NoError(t, s.Create(ctx, kept))
	runner := tx.NewMemoryRunner(s)

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Create(ctx, newPerson(t, "Rolled")))
		renamed := *kept
		renamed.FirstName = "Renamed"
		require.NoError(t, s.Update(ctx, &renamed))
		return sentinel.ErrConflict
	})
	require.ErrorIs(t, err, sentinel.ErrConflict)

	got, err := s.FindByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kept", got.FirstName)
	assert.Len(t, s.persons, 1)
}
