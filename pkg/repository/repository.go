// Package repository keeps the run ledger in SQLite: one row per pipeline run and one per entry outcome.
package repository

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/stageside/stageside/pkg/domain"
)

//go:embed schema.sql
var schemaFS embed.FS

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Repositories contains all repository instances
type Repositories struct {
	Run   *RunRepository
	Entry *EntryRepository
	DB    *sqlx.DB
}

// NewRepositories opens the database, applies the schema and creates all repositories
func NewRepositories(ctx context.Context, cfg Config) (*Repositories, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:stageside.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Repositories{
		Run:   NewRunRepository(db),
		Entry: NewEntryRepository(db),
		DB:    db,
	}, nil
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// Ping verifies the database connection
func (r *Repositories) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// StartRun records the start of a run and returns its id
func (r *Repositories) StartRun(ctx context.Context, kind string, startedAt time.Time) (string, error) {
	return r.Run.Start(ctx, kind, startedAt)
}

// RecordOutcomes stores entry outcomes of the run
func (r *Repositories) RecordOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	return r.Entry.Record(ctx, runID, outcomes)
}

// FinishRun stores final counters of the run
func (r *Repositories) FinishRun(ctx context.Context, run domain.Run) error {
	return r.Run.Finish(ctx, run)
}

// ListRuns returns the latest runs, newest first
func (r *Repositories) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	return r.Run.List(ctx, limit)
}

// GetRun returns a single run, ErrNotFound if missing
func (r *Repositories) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return r.Run.Get(ctx, id)
}

// RunOutcomes returns entry outcomes of the run
func (r *Repositories) RunOutcomes(ctx context.Context, id string) ([]domain.Outcome, error) {
	return r.Entry.ForRun(ctx, id)
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sqlx.DB) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	return nil
}
