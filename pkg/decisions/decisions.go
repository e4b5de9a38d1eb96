// Package decisions records the final verdict of each decision cycle in a
// SQL database, so realized outcomes can later be joined back for
// reflection. SQLite covers single-host runs; Postgres covers shared
// deployments.
package decisions

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Decision is one recorded verdict.
type Decision struct {
	ID        string    `db:"id"`
	Symbol    string    `db:"symbol"`
	TradeDate string    `db:"trade_date"`
	Action    string    `db:"action"`
	Rationale string    `db:"rationale"`
	CreatedAt time.Time `db:"created_at"`
}

// Store is a SQL-backed decision log.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database and applies pending migrations. Supported
// drivers are "sqlite3" and "postgres".
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, errors.Wrap(errors.ErrInvalidConfig, "unsupported driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to decision log: %w", err)
	}

	if err := applyMigrations(driver, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("Opened decision log", "driver", driver)

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a decision and returns it with its generated ID set.
func (s *Store) Record(ctx context.Context, d Decision) (Decision, error) {
	if d.Symbol == "" || d.TradeDate == "" || d.Action == "" {
		return Decision{}, errors.Wrap(errors.ErrInvalidInput,
			"symbol, trade date, and action are required")
	}

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	d.Action = strings.ToUpper(d.Action)

	query := s.db.Rebind(`INSERT INTO trade_decisions
		(id, symbol, trade_date, action, rationale, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Symbol, d.TradeDate, d.Action, d.Rationale, d.CreatedAt)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to record decision: %w", err)
	}

	log.DebugContext(ctx, "Recorded decision",
		"symbol", d.Symbol, "trade_date", d.TradeDate, "action", d.Action)

	return d, nil
}

// Recent returns the latest decisions for a symbol, newest trade date
// first, up to limit.
func (s *Store) Recent(ctx context.Context, symbol string, limit int) ([]Decision, error) {
	if limit <= 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "limit must be positive, got %d", limit)
	}

	query := s.db.Rebind(`SELECT id, symbol, trade_date, action, rationale, created_at
		FROM trade_decisions
		WHERE symbol = ?
		ORDER BY trade_date DESC, created_at DESC
		LIMIT ?`)

	var out []Decision
	if err := s.db.SelectContext(ctx, &out, query, symbol, limit); err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	return out, nil
}

func applyMigrations(driver string, db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := newMigrator(driver, db, src)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func newMigrator(driver string, db *sqlx.DB, src source.Driver) (*migrate.Migrate, error) {
	switch driver {
	case "sqlite3":
		instance, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to prepare migrations: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "sqlite3", instance)
	case "postgres":
		instance, err := migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to prepare migrations: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "postgres", instance)
	default:
		return nil, errors.Wrap(errors.ErrInvalidConfig, "unsupported driver %q", driver)
	}
}
