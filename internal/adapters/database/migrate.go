package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/pkg/logger"
)

func newMigrator(db *sql.DB, migrationsPath string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return v, dirty, nil
}

// RunMigrations applies every pending migration.
// A dirty schema is forced back to its recorded version first.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}

	current, dirty, err := version(m)
	if err != nil {
		return err
	}

	if dirty {
		logger.Warn("schema is dirty, forcing recorded version", zap.Uint("version", current))
		if err := m.Force(int(current)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema up to date", zap.Uint("version", current))
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	next, _, err := version(m)
	if err != nil {
		return err
	}

	logger.Info("migrations applied",
		zap.String("path", migrationsPath),
		zap.Uint("from", current),
		zap.Uint("to", next),
	)
	return nil
}

// RollbackMigrations reverts the given number of applied migrations
func RollbackMigrations(db *sql.DB, migrationsPath string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}

	current, _, err := version(m)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	next, _, err := version(m)
	if err != nil {
		return err
	}

	logger.Info("migrations rolled back", zap.Uint("from", current), zap.Uint("to", next))
	return nil
}

// MigrationVersion returns the applied version and dirty flag
func MigrationVersion(db *sql.DB, migrationsPath string) (uint, bool, error) {
	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return 0, false, err
	}
	return version(m)
}
