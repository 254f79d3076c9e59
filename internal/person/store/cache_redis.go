package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
	"lineage/pkg/platform/circuit"
	txcontext "lineage/pkg/platform/tx"
)

const personKeyPrefix = "lineage:person:"

// Backend is the store a cache fronts.
type Backend interface {
	Create(ctx context.Context, p *models.Person) error
	Update(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	FindByIDs(ctx context.Context, ids []id.PersonID) (map[id.PersonID]*models.Person, error)
	AddEvent(ctx context.Context, ev *models.Event) error
	ListEvents(ctx context.Context, personID id.PersonID) ([]*models.Event, error)
}

// CachedStore is a read-through Redis cache in front of a Backend. Reads
// inside a transaction bypass the cache so validators see the transaction's
// view. Writes invalidate the key; cache failures degrade to the backend,
// and repeated failures open a breaker that skips Redis reads for a while.
type CachedStore struct {
	backend Backend
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

func NewCachedStore(backend Backend, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		breaker: circuit.New("person-cache"),
	}
}

func personKey(personID id.PersonID) string {
	return personKeyPrefix + personID.String()
}

func inTx(ctx context.Context) bool {
	_, ok := txcontext.From(ctx)
	return ok
}

func (c *CachedStore) Create(ctx context.Context, p *models.Person) error {
	return c.backend.Create(ctx, p)
}

func (c *CachedStore) Update(ctx context.Context, p *models.Person) error {
	if err := c.backend.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *CachedStore) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	if inTx(ctx) || !c.breaker.Allow() {
		return c.backend.FindByID(ctx, personID)
	}
	raw, err := c.client.Get(ctx, personKey(personID)).Bytes()
	c.observe(ctx, err)
	switch {
	case err == nil:
		var p models.Person
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
		c.invalidate(ctx, personID)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "person cache read failed", "person_id", personID, "error", err)
	}

	p, err := c.backend.FindByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, p)
	return p, nil
}

// FindByIDs serves hits with one MGET and loads the misses in one backend call.
func (c *CachedStore) FindByIDs(ctx context.Context, ids []id.PersonID) (map[id.PersonID]*models.Person, error) {
	if inTx(ctx) || len(ids) == 0 || !c.breaker.Allow() {
		return c.backend.FindByIDs(ctx, ids)
	}
	keys := make([]string, len(ids))
	for i, pid := range ids {
		keys[i] = personKey(pid)
	}
	out := make(map[id.PersonID]*models.Person, len(ids))
	var missing []id.PersonID

	vals, err := c.client.MGet(ctx, keys...).Result()
	c.observe(ctx, err)
	if err != nil {
		c.logger.WarnContext(ctx, "person cache mget failed", "error", err)
		missing = ids
	} else {
		for i, v := range vals {
			s, ok := v.(string)
			var p models.Person
			if !ok || json.Unmarshal([]byte(s), &p) != nil {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = &p
		}
	}

	if len(missing) == 0 {
		return out, nil
	}
	loaded, err := c.backend.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for pid, p := range loaded {
		out[pid] = p
		c.fill(ctx, p)
	}
	return out, nil
}

func (c *CachedStore) AddEvent(ctx context.Context, ev *models.Event) error {
	return c.backend.AddEvent(ctx, ev)
}

func (c *CachedStore) ListEvents(ctx context.Context, personID id.PersonID) ([]*models.Event, error) {
	return c.backend.ListEvents(ctx, personID)
}

func (c *CachedStore) fill(ctx context.Context, p *models.Person) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	err = c.client.Set(ctx, personKey(p.ID), raw, c.ttl).Err()
	c.observe(ctx, err)
	if err != nil {
		c.logger.WarnContext(ctx, "person cache write failed", "person_id", p.ID, "error", err)
	}
}

// Invalidate drops a cached person. Services call it after commit.
func (c *CachedStore) Invalidate(ctx context.Context, personID id.PersonID) {
	c.invalidate(ctx, personID)
}

// invalidate always reaches Redis, even with the breaker open, so a recovered
// cache never serves a person written during the outage.
func (c *CachedStore) invalidate(ctx context.Context, personID id.PersonID) {
	err := c.client.Del(ctx, personKey(personID)).Err()
	c.observe(ctx, err)
	if err != nil {
		c.logger.WarnContext(ctx, "person cache invalidation failed", "person_id", personID, "error", err)
	}
}

func (c *CachedStore) observe(ctx context.Context, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		c.breaker.RecordSuccess()
		return
	}
	if c.breaker.RecordFailure() {
		c.logger.WarnContext(ctx, "person cache disabled after repeated failures", "error", err)
	}
}
