package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// DefaultMigrationsDir is where the SQL migrations live relative to the working directory
const DefaultMigrationsDir = "migrations"

func newMigrate(url, dir string) (*migrate.Migrate, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration
func MigrateUp(url, dir string) error {
	m, err := newMigrate(url, dir)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.Info("No pending migrations")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	logrus.Info("Migrations applied successfully")
	return nil
}

// MigrateDown rolls back the given number of migrations (at least one)
func MigrateDown(url, dir string, steps int) error {
	m, err := newMigrate(url, dir)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if steps <= 0 {
		steps = 1
	}

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("rollback migrations: %w", err)
	}

	logrus.Infof("Rolled back %d migration(s)", steps)
	return nil
}

// MigrationVersion reports the applied version and whether it is dirty
func MigrationVersion(url, dir string) (uint, bool, error) {
	m, err := newMigrate(url, dir)
	if err != nil {
		return 0, false, err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, nil
}
