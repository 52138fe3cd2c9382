// Package migration applies the embedded goose migrations under sql/.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"gatewayapi/internal/logger"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

// NewProvider returns a goose provider over the embedded migrations.
func NewProvider(db *sql.DB, opts ...goose.ProviderOption) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("migration: db is nil")
	}
	fsys, err := fs.Sub(embedMigrations, "sql")
	if err != nil {
		return nil, fmt.Errorf("migration: open embedded files: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys, opts...)
	if err != nil {
		return nil, fmt.Errorf("migration: new provider: %w", err)
	}
	return p, nil
}

// Run applies pending migrations. A Postgres advisory lock is held for the
// whole run so replicas starting together apply each version once.
func Run(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	locker, err := lock.NewPostgresSessionLocker(lock.WithLockTimeout(5, 60))
	if err != nil {
		return fmt.Errorf("migration: session locker: %w", err)
	}
	return run(ctx, db, log, goose.WithSessionLocker(locker))
}

func run(ctx context.Context, db *sql.DB, log *logger.Logger, opts ...goose.ProviderOption) error {
	start := time.Now()
	log = log.WithField("component", "database")

	p, err := NewProvider(db, opts...)
	if err != nil {
		return err
	}

	log.Info().Str("event", "db_migration_check").Msg("checking schema")

	results, err := p.Up(ctx)
	for _, r := range results {
		logStep(log, r)
	}
	if err != nil {
		var failed string
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			for _, r := range partial.Applied {
				logStep(log, r)
			}
			failed = stepName(partial.Failed)
		}
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Str("migration_step", failed).
			Dur("duration_ms", time.Since(start)).
			Msg("migration failed")
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info().
		Str("event", "db_migration_success").
		Int("applied", len(results)).
		Dur("duration_ms", time.Since(start)).
		Msg("schema up to date")

	return nil
}

func logStep(log *logger.Logger, r *goose.MigrationResult) {
	if r == nil || r.Source == nil || r.Error != nil {
		return
	}
	log.Info().
		Str("event", "db_migration_step").
		Str("migration_step", stepName(r)).
		Int64("version", r.Source.Version).
		Dur("step_duration_ms", r.Duration).
		Msg("migration step applied")
}

func stepName(r *goose.MigrationResult) string {
	if r == nil || r.Source == nil {
		return ""
	}
	return path.Base(r.Source.Path)
}
