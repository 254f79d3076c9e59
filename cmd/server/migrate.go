package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lineage/internal/platform/config"
	"lineage/internal/platform/logger"
	"lineage/internal/platform/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			log := logger.New(cfg.Log)

			db, err := postgres.Open(ctx, postgres.Config{URL: cfg.Database.URL})
			if err != nil {
				return err
			}
			defer db.Close()

			return postgres.Migrate(ctx, db, log)
		},
	}
}
