package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending up migrations. It runs on a dedicated connection
// so the shared pool stays open afterwards; golang-migrate's advisory lock
// keeps concurrent starts from racing.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()
	m.Log = migrateLogger{ctx: ctx, logger: logger}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.InfoContext(ctx, "schema migrated", "version", version, "dirty", dirty)
	return nil
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	ctx    context.Context
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.DebugContext(l.ctx, fmt.Sprintf(format, v...))
}

func (l migrateLogger) Verbose() bool { return false }
