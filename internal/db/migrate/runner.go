// Package migrate applies the embedded MongoDB data migrations with golang-migrate.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"sensor-failure-detection/shared/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange is returned by golang-migrate when already at the target version.
var ErrNoChange = migrate.ErrNoChange

// DefaultCollection stores the applied migration version.
const DefaultCollection = "schema_migrations"

// DSN builds the golang-migrate connection string: the database goes in the
// path and the version collection in x-migrations-collection. Other options in
// uri are kept.
func DSN(uri, database, collection string) (string, error) {
	if strings.TrimSpace(uri) == "" {
		return "", errors.New("MONGODB_URI is not set")
	}
	if database == "" {
		return "", errors.New("database name is required")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse mongodb uri: %w", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return "", fmt.Errorf("unsupported mongodb uri scheme %q", u.Scheme)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	u.Path = "/" + database
	q := u.Query()
	q.Set("x-migrations-collection", collection)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run applies migrations in direction "up" or "down". Already being at the
// target version is not an error. Cancelling ctx stops after the migration in
// flight.
func Run(ctx context.Context, uri, database, collection, direction string) error {
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	dsn, err := DSN(uri, database, collection)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return ctx.Err()
}

// Version reports the applied version. ok is false before any migration ran.
func Version(uri, database, collection string) (version uint, dirty, ok bool, err error) {
	dsn, err := DSN(uri, database, collection)
	if err != nil {
		return 0, false, false, err
	}
	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return 0, false, false, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return 0, false, false, fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}
