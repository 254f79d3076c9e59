// Package relay moves committed outbox entries to subscribers.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lineage/internal/changefeed"
	"lineage/internal/changefeed/outbox"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Store is the outbox side the relay drains.
type Store interface {
	Pending(ctx context.Context, limit int) ([]outbox.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// TxRunner scopes one drain cycle. Postgres uses it so Pending's row locks
// hold until MarkPublished commits.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Relay polls the outbox and publishes pending entries in order. Delivery is
// at-least-once: a crash between publish and mark republishes the batch, and
// consumers deduplicate by event id.
type Relay struct {
	store     Store
	publisher changefeed.Publisher
	tx        TxRunner
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithTx(tx TxRunner) Option {
	return func(r *Relay) { r.tx = tx }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func New(store Store, publisher changefeed.Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox every interval until ctx is done. Failed cycles are
// logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "outbox relay cycle failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries it shipped.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var shipped int
	cycle := func(ctx context.Context) error {
		entries, err := r.store.Pending(ctx, r.batchSize)
		if err != nil || len(entries) == 0 {
			return err
		}
		events := make([]changefeed.Event, len(entries))
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			events[i] = e.Event
			ids[i] = e.Event.ID
		}
		if err := r.publisher.Publish(ctx, events); err != nil {
			return err
		}
		if err := r.store.MarkPublished(ctx, ids, r.now()); err != nil {
			return err
		}
		shipped = len(entries)
		return nil
	}

	var err error
	if r.tx != nil {
		err = r.tx.RunInTx(ctx, cycle)
	} else {
		err = cycle(ctx)
	}
	if err != nil {
		return 0, err
	}
	if shipped > 0 {
		r.logger.DebugContext(ctx, "relayed outbox entries", "count", shipped)
	}
	return shipped, nil
}
