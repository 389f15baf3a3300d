package postgres

import (
	"database/sql"
	"embed"
	"errors"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "funduq_schema_migrations"

// Migrate applies pending migrations. It does not close db.
func Migrate(db *sql.DB, log *logger.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to load migrations").
			Mark(ierr.ErrSystem)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to prepare migrations").
			Mark(ierr.ErrDatabase)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to prepare migrations").
			Mark(ierr.ErrDatabase)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Infow("database schema is up to date")
			return nil
		}
		return ierr.WithError(err).
			WithHint("Failed to apply migrations").
			Mark(ierr.ErrDatabase)
	}

	version, dirty, _ := m.Version()
	log.Infow("applied database migrations", "version", version, "dirty", dirty)
	return nil
}
