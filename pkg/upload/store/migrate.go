package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by golang-migrate

	"github.com/reelverse/upload-service/pkg/upload/store/migrations"
)

// runPostgresMigrations applies the versioned schema in pkg/upload/store/migrations
// using golang-migrate. SQLite deployments rely on GORM's AutoMigrate instead,
// since golang-migrate's sqlite3 driver requires cgo.
func runPostgresMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("store: open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    "upload_service",
	})
	if err != nil {
		return fmt.Errorf("store: create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("store: open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("store: create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	return nil
}

// RunMigrations applies pending schema migrations for cfg's driver. It is
// also called implicitly from New, so most callers never need it directly;
// it is exported for the standalone "migrate" CLI subcommand, which applies
// migrations without fully standing up the rest of the service.
func RunMigrations(ctx context.Context, cfg Config) error {
	switch cfg.Driver {
	case DriverPostgres:
		return runPostgresMigrations(cfg.DSN)
	case DriverSQLite:
		s, err := New(cfg)
		if err != nil {
			return err
		}
		return s.Close()
	default:
		return fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
