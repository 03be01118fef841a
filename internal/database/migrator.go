package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// migrationsTable keeps schema history separate from the research tables.
const migrationsTable = "schema_migrations"

// Migrator applies SQL migrations from a directory to the research
// database. It borrows a database/sql handle from the pgx pool for its
// lifetime; Close returns it.
type Migrator struct {
	m      *migrate.Migrate
	handle *sql.DB
	logger zerolog.Logger
}

// NewMigrator opens the migration source at dir and binds it to the
// connected database.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil || db.pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if dir == "" {
		return nil, fmt.Errorf("migration directory is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migration directory %s: %w", dir, err)
	}

	handle := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(handle, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("prepare postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("open migration source %s: %w", dir, err)
	}

	return &Migrator{
		m:      m,
		handle: handle,
		logger: logger.With().Str("component", "migrator").Logger(),
	}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return mg.apply("up", mg.m.Up)
}

// Down rolls every applied migration back.
func (mg *Migrator) Down() error {
	mg.logger.Warn().Msg("rolling back all schema migrations")
	return mg.apply("down", mg.m.Down)
}

// Steps applies n migrations forward, or rolls -n back.
func (mg *Migrator) Steps(n int) error {
	return mg.apply(fmt.Sprintf("%+d steps", n), func() error { return mg.m.Steps(n) })
}

// apply runs op, treating nothing-to-do outcomes as success.
func (mg *Migrator) apply(op string, fn func() error) error {
	err := fn()
	switch {
	case err == nil:
		mg.logger.Info().Str("op", op).Msg("schema migration applied")
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		mg.logger.Info().Str("op", op).Msg("schema already up to date")
		return nil
	case errors.Is(err, os.ErrNotExist):
		// Stepping past the last available migration file.
		mg.logger.Info().Str("op", op).Msg("no further migrations available")
		return nil
	default:
		return fmt.Errorf("apply %s: %w", op, err)
	}
}

// Version reports the recorded schema version and whether a failed
// migration left the schema dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return mg.m.Version()
}

// Force overwrites the recorded schema version without running any
// migration, to recover from a dirty state.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn().Int("version", version).Msg("forcing schema version")
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the migration source and returns the borrowed handle
// to the pool.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if closeErr := mg.handle.Close(); closeErr != nil && dbErr == nil {
		dbErr = closeErr
	}
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database handle: %w", dbErr)
	}
	return nil
}
