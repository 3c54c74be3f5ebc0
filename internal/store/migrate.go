package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations to databaseURL.
func Migrate(databaseURL string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a postgres:// URL to the pgx5 scheme the migrate
// driver registers under.
func migrateURL(databaseURL string) string {
	const (
		long  = "postgresql://"
		short = "postgres://"
	)
	switch {
	case len(databaseURL) >= len(long) && databaseURL[:len(long)] == long:
		return "pgx5://" + databaseURL[len(long):]
	case len(databaseURL) >= len(short) && databaseURL[:len(short)] == short:
		return "pgx5://" + databaseURL[len(short):]
	default:
		return databaseURL
	}
}
