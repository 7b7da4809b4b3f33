package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// errCritical matches any criticalError, it terminates lock retries
var errCritical = errors.New("critical database error")

// criticalError wraps a non-lock error returned from a retried statement
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

func (e *criticalError) Is(target error) bool { return target == errCritical }

// retryOnLock runs fn with backoff while it fails with lock errors.
// A criticalError stops retries at once and its wrapped error is returned.
func retryOnLock(ctx context.Context, fn func() error) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, fn, errCritical)
	var ce *criticalError
	if errors.As(err, &ce) {
		return ce.err
	}
	return err
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
