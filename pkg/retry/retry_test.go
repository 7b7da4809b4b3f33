package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("429 too many requests")

func recordingRetry(waits *[]time.Duration) func(int, time.Duration, error) {
	return func(_ int, d time.Duration, _ error) {
		*waits = append(*waits, d)
	}
}

func TestPolicy_Do(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		var waits []time.Duration
		calls := 0
		p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Millisecond, 0), OnRetry: recordingRetry(&waits)}
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, waits)
	})

	t.Run("success after retries", func(t *testing.T) {
		var waits []time.Duration
		calls := 0
		p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Millisecond, 0), OnRetry: recordingRetry(&waits)}
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
	})

	t.Run("exhausted", func(t *testing.T) {
		var waits []time.Duration
		var retried []int
		calls := 0
		p := Policy{
			MaxAttempts: 3,
			Backoff:     Exponential(2*time.Millisecond, time.Millisecond),
			OnRetry: func(attempt int, d time.Duration, _ error) {
				retried = append(retried, attempt)
				waits = append(waits, d)
			},
		}
		st := time.Now()
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			return errTransient
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExhausted)
		assert.ErrorIs(t, err, errTransient)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, calls)
		require.Len(t, waits, 2, "no wait after the last attempt")
		assert.Greater(t, waits[1], waits[0])
		assert.Equal(t, []int{0, 1}, retried)
		assert.GreaterOrEqual(t, time.Since(st), waits[0]+waits[1], "waits are slept")
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		var waits []time.Duration
		calls := 0
		fatal := errors.New("invalid api key")
		p := Policy{
			MaxAttempts: 5,
			Backoff:     Exponential(time.Millisecond, 0),
			OnRetry:     recordingRetry(&waits),
			Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
		}
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			return fatal
		})
		require.Equal(t, fatal, err, "returned unwrapped")
		assert.NotErrorIs(t, err, ErrExhausted)
		assert.Equal(t, 1, calls)
		assert.Empty(t, waits)
	})

	t.Run("retryable then non-retryable", func(t *testing.T) {
		calls := 0
		fatal := errors.New("bad request")
		p := Policy{MaxAttempts: 5, Backoff: Exponential(time.Millisecond, 0),
			Retryable: func(err error) bool { return errors.Is(err, errTransient) }}
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			if calls == 1 {
				return errTransient
			}
			return fatal
		})
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, 2, calls)
	})

	t.Run("context canceled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := Policy{MaxAttempts: 3}.Do(ctx, func(context.Context) error {
			calls++
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("context canceled during wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		calls := 0
		p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Hour, 0),
			OnRetry: func(int, time.Duration, error) { cancel() }}
		st := time.Now()
		err := p.Do(ctx, func(context.Context) error {
			calls++
			return errTransient
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrExhausted)
		assert.Equal(t, 1, calls)
		assert.Less(t, time.Since(st), time.Minute)
	})

	t.Run("zero attempts treated as one", func(t *testing.T) {
		calls := 0
		err := Policy{}.Do(context.Background(), func(context.Context) error {
			calls++
			return errTransient
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestExponential(t *testing.T) {
	b := Exponential(5*time.Second, 0)
	assert.Equal(t, 5*time.Second, b(0))
	assert.Equal(t, 10*time.Second, b(1))
	assert.Equal(t, 20*time.Second, b(2))

	jittered := Exponential(time.Second, 500*time.Millisecond)
	for i := 0; i < 20; i++ {
		d := jittered(1)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 2*time.Second+500*time.Millisecond)
	}
}
