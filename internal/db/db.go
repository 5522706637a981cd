package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nhatem/pollumap/internal/models"
	"github.com/nhatem/pollumap/internal/uploads"
)

const (
	LimitMaxDescriptionLen = 255

	DefaultSeverity      = "medium"
	DefaultPollutionType = "other"

	// AggregationWindowDays is the trailing window of the daily statistics series.
	AggregationWindowDays = 30
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var ErrMissingField = errors.New("latitude, longitude and description are required")
var ErrBadCoordinate = errors.New("latitude and longitude must be finite numbers")
var ErrDescriptionTooLong = errors.New("the description is too long")
var ErrReportNotFound = errors.New("report not found")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SharedDB owns the report database and the upload file store. It is built
// once at process start and passed by reference into the routes; there is no
// ambient global handle.
type SharedDB struct {
	db     *sql.DB
	config *models.EnvConfig
	files  *uploads.Store
}

func dsn(databasePath string) string {
	return databasePath + "?_foreign_keys=on&_busy_timeout=5000"
}

func newMigrator(databasePath string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error reading migrations: %w", err)
	}
	pool, err := sql.Open("sqlite3", dsn(databasePath))
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", databasePath, err)
	}
	driver, err := sqlite3.WithInstance(pool, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
}

func MigrateUp(databasePath string) error {
	m, err := newMigrator(databasePath)
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("while migrating up: %w", err)
	}
	return nil
}

func MigrateDown(databasePath string) error {
	m, err := newMigrator(databasePath)
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Down()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("while migrating down: %w", err)
	}
	return nil
}

func Drop(databasePath string) error {
	m, err := newMigrator(databasePath)
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Drop()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("while dropping: %w", err)
	}
	return nil
}

func Connect(config *models.EnvConfig, files *uploads.Store) (SharedDB, error) {
	pool, err := sql.Open("sqlite3", dsn(config.DatabasePath))
	if err != nil {
		return SharedDB{}, fmt.Errorf("failed to open database %s: %w", config.DatabasePath, err)
	}
	if err := pool.Ping(); err != nil {
		return SharedDB{}, fmt.Errorf("failed to reach database %s: %w", config.DatabasePath, err)
	}

	return SharedDB{
		db:     pool,
		config: config,
		files:  files,
	}, nil
}

func (sdb *SharedDB) Close() error {
	return sdb.db.Close()
}

func execTx(ctx context.Context, pool *sql.DB, txFunc func(tx *sql.Tx) error) error {
	tx, err := pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := txFunc(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
