package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stageside/stageside/pkg/domain"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("not found")

// RunRepository handles run-related database operations
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// runSQL is the database row of a run
type runSQL struct {
	ID         string       `db:"id"`
	Kind       string       `db:"kind"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
	Entries    int          `db:"entries"`
	Admitted   int          `db:"admitted"`
	Rejected   int          `db:"rejected"`
	Failed     int          `db:"failed"`
	Skipped    int          `db:"skipped"`
	Added      int          `db:"added"`
	Error      string       `db:"error"`
}

func (r runSQL) toDomain() domain.Run {
	res := domain.Run{
		ID:        r.ID,
		Kind:      r.Kind,
		StartedAt: r.StartedAt.UTC(),
		Entries:   r.Entries,
		Admitted:  r.Admitted,
		Rejected:  r.Rejected,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
		Added:     r.Added,
		Error:     r.Error,
	}
	if r.FinishedAt.Valid {
		res.FinishedAt = r.FinishedAt.Time.UTC()
	}
	return res
}

// Start inserts an unfinished run and returns its generated id
func (r *RunRepository) Start(ctx context.Context, kind string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	err := retryOnLock(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `INSERT INTO runs (id, kind, started_at) VALUES (?, ?, ?)`,
			id, kind, startedAt.UTC())
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("insert run: %w", err)}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Finish stores counters, error and finish time of a started run
func (r *RunRepository) Finish(ctx context.Context, run domain.Run) error {
	query := `
		UPDATE runs
		SET finished_at = ?, entries = ?, admitted = ?, rejected = ?, failed = ?,
		    skipped = ?, added = ?, error = ?
		WHERE id = ?
	`
	var affected int64
	err := retryOnLock(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, run.FinishedAt.UTC(), run.Entries, run.Admitted, run.Rejected,
			run.Failed, run.Skipped, run.Added, run.Error, run.ID)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("finish run: %w", err)}
		}
		if affected, err = res.RowsAffected(); err != nil {
			return &criticalError{err: fmt.Errorf("finish run rows affected: %w", err)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// Get returns a single run
func (r *RunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	var row runSQL
	err := r.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	res := row.toDomain()
	return &res, nil
}

// List returns the latest runs, newest first
func (r *RunRepository) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runSQL
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	res := make([]domain.Run, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

// Prune removes all but the latest keep runs together with their outcomes
func (r *RunRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	keepQuery := `SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_entries WHERE run_id NOT IN (`+keepQuery+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune run entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN (`+keepQuery+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return n, nil
}
