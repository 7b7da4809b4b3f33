// Package retry provides a retry policy for calls to unreliable upstream capabilities.
// A policy combines attempt limit, backoff function and a predicate deciding which errors
// are worth another attempt. Attempts and waits are run by repeater, non-retryable errors
// terminate it immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// ErrExhausted is wrapped into the error returned after the last allowed attempt failed
var ErrExhausted = errors.New("retry attempts exhausted")

// errPermanent matches errors the predicate refused to retry
var errPermanent = errors.New("permanent error")

// BackoffFunc returns the delay before the next attempt. attempt is zero-based
// index of the attempt that just failed.
type BackoffFunc func(attempt int) time.Duration

// Policy describes how an operation is retried
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   func(err error) bool // nil means every error is retryable
	OnRetry     func(attempt int, delay time.Duration, err error)
}

// Exponential returns base * 2^attempt + random jitter in [0, jitter)
func Exponential(base, jitter time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base * time.Duration(1<<uint(attempt)) //nolint:gosec // attempt is small
		if jitter > 0 {
			d += time.Duration(rand.Int63n(int64(jitter))) //nolint:gosec // non-cryptographic jitter
		}
		return d
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts are exhausted.
// A non-retryable error is returned as is, exhaustion wraps ErrExhausted and the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	delay := &plannedDelay{}

	attempt := 0
	err := repeater.NewWithStrategy(attempts, delay).Do(ctx, func() error {
		defer func() { attempt++ }()
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return &permanentError{err: err}
		}
		if attempt < attempts-1 {
			delay.next = 0
			if p.Backoff != nil {
				delay.next = p.Backoff(attempt)
			}
			if p.OnRetry != nil {
				p.OnRetry(attempt, delay.next, err)
			}
		}
		return err
	}, errPermanent)

	var perr *permanentError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &perr):
		return perr.err
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return fmt.Errorf("retry interrupted: %w", err)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
}

// plannedDelay is a repeater strategy returning the delay computed for the attempt that just failed
type plannedDelay struct {
	next time.Duration
}

func (d *plannedDelay) NextDelay(int) time.Duration { return d.next }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string        { return e.err.Error() }
func (e *permanentError) Unwrap() error        { return e.err }
func (e *permanentError) Is(target error) bool { return target == errPermanent }
