// Package sqlstore persists batches, weekly submissions, breed targets and the
// farm ledgers in a relational database through sqlx. SQLite (pure Go) and
// Postgres (pgx) are supported with the same portable SQL.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write collides with a unique key, e.g. a
// duplicate batch code or two concurrent submissions of the same week.
var ErrConflict = errors.New("record conflict")

// ErrBatchInactive is returned when a weekly submission targets a batch that
// is no longer active.
var ErrBatchInactive = errors.New("batch is not active")

// Dialect selects the database engine.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database dialect %q", d)
	}
}

// Store is the relational repository.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
}

// Open connects to the database and creates missing tables.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("database dsn must not be empty")
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		sqlx.BindDriver(driver, sqlx.QUESTION)
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}

	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		breed TEXT NOT NULL DEFAULT '',
		house TEXT NOT NULL DEFAULT '',
		housed_at TEXT NOT NULL,
		housed_birds INTEGER NOT NULL CHECK (housed_birds > 0),
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weekly_submissions (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		week_of_age INTEGER NOT NULL CHECK (week_of_age >= 1),
		revision INTEGER NOT NULL,
		birds_in_week INTEGER NOT NULL DEFAULT 0,
		mort_d1 INTEGER NOT NULL DEFAULT 0,
		mort_d2 INTEGER NOT NULL DEFAULT 0,
		mort_d3 INTEGER NOT NULL DEFAULT 0,
		mort_d4 INTEGER NOT NULL DEFAULT 0,
		mort_d5 INTEGER NOT NULL DEFAULT 0,
		mort_d6 INTEGER NOT NULL DEFAULT 0,
		mort_d7 INTEGER NOT NULL DEFAULT 0,
		weighing_date TEXT NOT NULL DEFAULT '',
		average_weight_grams DOUBLE PRECISION NOT NULL DEFAULT 0,
		daily_feed_intake_grams DOUBLE PRECISION NOT NULL DEFAULT 0,
		submitted_at TEXT NOT NULL,
		submitted_by TEXT NOT NULL DEFAULT '',
		UNIQUE (batch_id, week_of_age, revision)
	)`,
	`CREATE TABLE IF NOT EXISTS breed_targets (
		id TEXT PRIMARY KEY,
		breed TEXT NOT NULL,
		week_of_age INTEGER NOT NULL CHECK (week_of_age >= 1),
		weight_grams DOUBLE PRECISION NOT NULL DEFAULT 0,
		daily_feed_grams DOUBLE PRECISION NOT NULL DEFAULT 0,
		cumulative_feed_grams DOUBLE PRECISION NOT NULL DEFAULT 0,
		cumulative_mortality_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE (breed, week_of_age)
	)`,
	`CREATE TABLE IF NOT EXISTS finance_entries (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount NUMERIC(14,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS egg_production (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		produced_on TEXT NOT NULL,
		total_eggs INTEGER NOT NULL,
		broken_eggs INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS water_quality (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		measured_on TEXT NOT NULL,
		ph DOUBLE PRECISION NOT NULL,
		alkalinity_ppm DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS treatments (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		medication TEXT NOT NULL,
		starts_on TEXT NOT NULL,
		ends_on TEXT NOT NULL,
		withdrawal_days INTEGER NOT NULL DEFAULT 0,
		route TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weekly_batch_week ON weekly_submissions (batch_id, week_of_age)`,
	`CREATE INDEX IF NOT EXISTS idx_finance_batch ON finance_entries (batch_id, entry_date)`,
	`CREATE INDEX IF NOT EXISTS idx_eggs_batch ON egg_production (batch_id, produced_on)`,
}

func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}

	return false
}

func parseStoredDate(value string) models.Date {
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}
	}
	return d
}
