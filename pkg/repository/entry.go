package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stageside/stageside/pkg/domain"
)

// EntryRepository handles entry outcomes of runs
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Record stores outcomes of the run in a single transaction
func (r *EntryRepository) Record(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	query := `
		INSERT INTO run_entries (run_id, link, title, source, tier, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	return retryOnLock(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("begin transaction: %w", err)}
		}
		defer tx.Rollback()

		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return &criticalError{err: fmt.Errorf("prepare insert: %w", err)}
		}
		defer stmt.Close()

		for _, o := range outcomes {
			if _, err := stmt.ExecContext(ctx, runID, o.Link, o.Title, o.Source, string(o.Tier), string(o.Status), o.Reason); err != nil {
				if isLockError(err) {
					return err
				}
				return &criticalError{err: fmt.Errorf("insert outcome for %s: %w", o.Link, err)}
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit outcomes: %w", err)}
		}
		return nil
	})
}

// ForRun returns outcomes of the run in recorded order
func (r *EntryRepository) ForRun(ctx context.Context, runID string) ([]domain.Outcome, error) {
	var res []domain.Outcome
	query := `SELECT link, title, source, tier, status, reason FROM run_entries WHERE run_id = ? ORDER BY id`
	if err := r.db.SelectContext(ctx, &res, query, runID); err != nil {
		return nil, fmt.Errorf("get outcomes of run %s: %w", runID, err)
	}
	return res, nil
}

// ForLink returns every recorded outcome of the link, latest first
func (r *EntryRepository) ForLink(ctx context.Context, link string) ([]domain.Outcome, error) {
	var res []domain.Outcome
	query := `SELECT link, title, source, tier, status, reason FROM run_entries WHERE link = ? ORDER BY id DESC`
	if err := r.db.SelectContext(ctx, &res, query, link); err != nil {
		return nil, fmt.Errorf("get outcomes of %s: %w", link, err)
	}
	return res, nil
}
