package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"lineage/internal/changefeed"
	"lineage/internal/changefeed/feed"
	"lineage/internal/changefeed/outbox"
	"lineage/internal/changefeed/relay"
	httpapi "lineage/internal/http"
	personstore "lineage/internal/person/store"
	"lineage/internal/platform/config"
	"lineage/internal/platform/postgres"
	platformredis "lineage/internal/platform/redis"
	relservice "lineage/internal/relationship/service"
	relstore "lineage/internal/relationship/store"
	txcontext "lineage/pkg/platform/tx"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type outboxStore interface {
	changefeed.Outbox
	relay.Store
}

// storage is the set of stores one process runs on: postgres when a
// database URL is configured, in-memory otherwise.
type storage struct {
	persons       personstore.Backend
	relationships relservice.Store
	outbox        outboxStore
	feed          feed.Store
	tx            txRunner
	checks        map[string]httpapi.HealthCheck
	closers       []func()
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, migrate bool) (*storage, error) {
	s := &storage{checks: map[string]httpapi.HealthCheck{}}

	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, running on in-memory stores")
		persons := personstore.NewInMemoryStore()
		relationships := relstore.NewInMemoryStore()
		out := outbox.NewInMemoryStore()
		s.persons = persons
		s.relationships = relationships
		s.outbox = out
		s.feed = feed.NewInMemoryStore()
		s.tx = txcontext.NewMemoryRunner(persons, relationships, out)
	} else {
		db, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		if migrate {
			if err := postgres.Migrate(ctx, db, logger); err != nil {
				s.Close()
				return nil, err
			}
		}
		s.persons = personstore.NewPostgresStore(db)
		s.relationships = relstore.NewPostgresStore(db)
		s.outbox = outbox.NewPostgresStore(db)
		s.feed = feed.NewPostgresStore(db)
		s.tx = postgres.NewTxRunner(db, cfg.Database.TxTimeout)
		s.checks["postgres"] = db.PingContext
	}

	rdb, err := platformredis.New(ctx, cfg.Redis, reg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	if rdb != nil {
		s.persons = personstore.NewCachedStore(s.persons, rdb.Client, cfg.Redis.CacheTTL, logger)
		s.checks["redis"] = rdb.Health
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		logger.Info("person cache enabled", "ttl", cfg.Redis.CacheTTL)
	}
	return s, nil
}

// Close releases connections in reverse order of acquisition.
func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
