package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lineage/internal/changefeed"
	"lineage/internal/changefeed/consumer"
	"lineage/internal/changefeed/feed"
	"lineage/internal/changefeed/relay"
	"lineage/internal/genealogy/plausibility"
	httpapi "lineage/internal/http"
	jwttoken "lineage/internal/jwt_token"
	personhandler "lineage/internal/person/handler"
	personservice "lineage/internal/person/service"
	"lineage/internal/platform/config"
	"lineage/internal/platform/httpserver"
	"lineage/internal/platform/kafka"
	"lineage/internal/platform/logger"
	"lineage/internal/platform/metrics"
	relhandler "lineage/internal/relationship/handler"
	relmetrics "lineage/internal/relationship/metrics"
	relservice "lineage/internal/relationship/service"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the change feed relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending schema migrations before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := openStorage(ctx, cfg, log, reg, migrate)
	if err != nil {
		return err
	}
	defer store.Close()

	g, ctx := errgroup.WithContext(ctx)

	publisher, err := startFeed(ctx, g, cfg, store, log)
	if err != nil {
		return err
	}
	rel := relay.New(store.outbox, publisher,
		relay.WithLogger(log),
		relay.WithTx(store.tx),
		relay.WithInterval(cfg.Changefeed.RelayInterval),
		relay.WithBatchSize(cfg.Changefeed.BatchSize),
	)
	g.Go(func() error { return rel.Run(ctx) })

	rules := plausibility.New(cfg.Thresholds)
	persons := personservice.New(store.persons, store.tx,
		personservice.WithLogger(log),
		personservice.WithRules(rules),
		personservice.WithOutbox(store.outbox),
		personservice.WithFeed(store.feed),
	)
	relationships := relservice.New(store.relationships, persons, store.tx,
		relservice.WithLogger(log),
		relservice.WithRules(rules),
		relservice.WithOutbox(store.outbox),
		relservice.WithMetrics(relmetrics.New(reg)),
	)

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	validator := jwttoken.NewJWTServiceAdapter(jwt)
	writers := []string{jwttoken.RoleManager, jwttoken.RoleAdmin}

	router := httpapi.NewRouter(httpapi.Options{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		Checks:         store.checks,
	},
		personhandler.New(persons, log, validator, writers...),
		relhandler.New(relationships, log, validator, writers...),
	)

	srv := httpserver.New(cfg.Server.Addr, router)
	g.Go(func() error { return httpserver.Run(ctx, srv, log) })

	log.Info("lineage started", "addr", cfg.Server.Addr, "version", version)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("lineage stopped")
	return nil
}

// startFeed picks where committed change events go. With brokers configured
// they are published to Kafka and a consumer group folds them into the feed;
// otherwise the relay appends them to the feed directly.
func startFeed(ctx context.Context, g *errgroup.Group, cfg config.Config, store *storage, log *slog.Logger) (changefeed.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return feed.NewLocalPublisher(store.feed), nil
	}

	kcfg := kafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		Partitions:    cfg.Kafka.Partitions,
		Replication:   cfg.Kafka.Replication,
	}
	if err := kafka.EnsureTopic(ctx, kcfg); err != nil {
		return nil, fmt.Errorf("ensuring kafka topic: %w", err)
	}

	producer, err := kafka.NewProducer(kcfg)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	store.closers = append(store.closers, producer.Close)
	store.checks["kafka"] = producer.Ping

	sub, err := kafka.NewConsumer(kcfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating kafka consumer: %w", err)
	}
	store.closers = append(store.closers, sub.Close)
	g.Go(func() error { return sub.Run(ctx, consumer.NewFeedHandler(store.feed, log)) })

	log.Info("change feed publishing to kafka", "topic", kcfg.Topic, "brokers", kcfg.Brokers)
	return relay.NewKafkaPublisher(producer), nil
}
