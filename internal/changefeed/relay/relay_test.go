package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage/internal/changefeed"
	"lineage/internal/changefeed/feed"
	"lineage/internal/changefeed/outbox"
	"lineage/internal/platform/kafka"
	id "lineage/pkg/domain"
)

func event(t *testing.T, persons ...id.PersonID) changefeed.Event {
	t.Helper()
	ev, err := changefeed.NewEvent(context.Background(), changefeed.KindRelationshipCreated, "rel-1", persons, map[string]string{"k": "v"})
	require.NoError(t, err)
	return ev
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, []changefeed.Event) error { return p.err }

func TestRelayOnce_ShipsPendingToFeed(t *testing.T) {
	ctx := context.Background()
	box := outbox.NewInMemoryStore()
	sink := feed.NewInMemoryStore()
	a, b := id.NewPersonID(), id.NewPersonID()
	require.NoError(t, box.Append(ctx, event(t, a, b)))
	require.NoError(t, box.Append(ctx, event(t, a)))

	r := New(box, feed.NewLocalPublisher(sink), WithBatchSize(10))
	n, err := r.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := sink.ListByPerson(ctx, a, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	n, err = r.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "published entries are not shipped twice")
}

func TestRelayOnce_PublishFailureKeepsEntriesPending(t *testing.T) {
	ctx := context.Background()
	box := outbox.NewInMemoryStore()
	require.NoError(t, box.Append(ctx, event(t, id.NewPersonID())))

	boom := errors.New("broker down")
	_, err := New(box, failingPublisher{err: boom}).RelayOnce(ctx)
	require.ErrorIs(t, err, boom)

	pending, err := box.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRelayOnce_RespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	box := outbox.NewInMemoryStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, box.Append(ctx, event(t, id.NewPersonID())))
	}
	r := New(box, feed.NewLocalPublisher(feed.NewInMemoryStore()), WithBatchSize(2))

	n, err := r.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = r.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type recordingProducer struct{ records []kafka.Record }

func (p *recordingProducer) Produce(_ context.Context, records []kafka.Record) error {
	p.records = append(p.records, records...)
	return nil
}

func TestKafkaPublisher_KeysByEventID(t *testing.T) {
	prod := &recordingProducer{}
	ev := event(t, id.NewPersonID())
	require.NoError(t, NewKafkaPublisher(prod).Publish(context.Background(), []changefeed.Event{ev}))

	require.Len(t, prod.records, 1)
	assert.Equal(t, ev.ID.String(), string(prod.records[0].Key))
	var decoded changefeed.Event
	require.NoError(t, json.Unmarshal(prod.records[0].Value, &decoded))
	assert.Equal(t, ev.Kind, decoded.Kind)
	assert.Equal(t, ev.PersonIDs, decoded.PersonIDs)
}
