package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"dconn.dev/portfolio/internal/database/migrations"
)

// Migrate applies every pending up migration for db's dialect. It runs on a
// dedicated handle because golang-migrate closes its database on shutdown.
func Migrate(db *DB) error {
	target, err := ParseURL(db.url)
	if err != nil {
		return err
	}
	sqlDB, err := sql.Open(target.Dialect.DriverName, target.DSN)
	if err != nil {
		return fmt.Errorf("open migration handle: %w", err)
	}

	var driver migratedb.Driver
	switch target.Dialect.Name {
	case Postgres.Name:
		driver, err = pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	default:
		driver, err = sqlitemigrate.WithInstance(sqlDB, &sqlitemigrate.Config{})
	}
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	sub, err := fs.Sub(migrations.FS, target.Dialect.Name)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("locate %s migrations: %w", target.Dialect.Name, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("read migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, target.Dialect.Name, driver)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	slog.Info("database migrated", "dialect", target.Dialect.Name, "version", version, "dirty", dirty)
	return nil
}
