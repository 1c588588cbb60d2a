package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// MigrateSalesSchema brings the products and sales tables at dbPath up to
// the newest embedded migration and returns the resulting schema version.
// It is a no-op on an up-to-date database.
func MigrateSalesSchema(dbPath string) (uint, error) {
	// golang-migrate closes the handle it is given, so it gets its own.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s for schema migration: %w", dbPath, err)
	}
	defer conn.Close()

	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("sales schema target: %w", err)
	}
	source, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("embedded sales migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("sales schema migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply sales migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read sales schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("sales schema version %d is dirty; fix the database and force the version", version)
	}
	return version, nil
}
