package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageside/stageside/pkg/pipeline"
	"github.com/stageside/stageside/pkg/scheduler/mocks"
)

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(Params{Runner: &mocks.RunnerMock{}})
	assert.Equal(t, 6*time.Hour, s.interval)

	s = NewScheduler(Params{Runner: &mocks.RunnerMock{}, Interval: time.Minute})
	assert.Equal(t, time.Minute, s.interval)
}

func TestScheduler_RunsOnStartAndInterval(t *testing.T) {
	var runs atomic.Int32
	runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (pipeline.Report, error) {
		runs.Add(1)
		return pipeline.Report{RunID: "r"}, nil
	}}
	pruner := &mocks.PrunerMock{PruneFunc: func(ctx context.Context, keep int) (int64, error) { return 0, nil }}

	s := NewScheduler(Params{Runner: runner, Pruner: pruner, Interval: 20 * time.Millisecond, KeepRuns: 10})
	s.Start(context.Background())
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "no runs after stop")

	require.NotEmpty(t, pruner.PruneCalls())
	assert.Equal(t, 10, pruner.PruneCalls()[0].Keep)
}

func TestScheduler_RunNow(t *testing.T) {
	var runs atomic.Int32
	runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (pipeline.Report, error) {
		runs.Add(1)
		return pipeline.Report{}, nil
	}}

	s := NewScheduler(Params{Runner: runner, Interval: time.Hour})
	s.Start(context.Background())
	defer s.Stop()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond, "initial run")

	assert.True(t, s.RunNow())
	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_RunNowPending(t *testing.T) {
	s := NewScheduler(Params{Runner: &mocks.RunnerMock{}, Interval: time.Hour})
	assert.True(t, s.RunNow())
	assert.False(t, s.RunNow(), "second request is dropped while the first is pending")
}

func TestScheduler_RunErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantPruned bool
	}{
		{name: "failed run still prunes", err: errors.New("load archive: broken"), wantPruned: true},
		{name: "run in progress skipped", err: pipeline.ErrRunInProgress, wantPruned: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (pipeline.Report, error) {
				return pipeline.Report{}, tt.err
			}}
			pruner := &mocks.PrunerMock{PruneFunc: func(ctx context.Context, keep int) (int64, error) {
				return 0, errors.New("db closed")
			}}
			s := NewScheduler(Params{Runner: runner, Pruner: pruner, KeepRuns: 5})
			s.runOnce(context.Background())
			assert.Len(t, runner.RunCalls(), 1)
			assert.Equal(t, tt.wantPruned, len(pruner.PruneCalls()) == 1)
		})
	}
}

func TestScheduler_NoPruneWithoutKeep(t *testing.T) {
	runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (pipeline.Report, error) { return pipeline.Report{}, nil }}
	pruner := &mocks.PrunerMock{}
	s := NewScheduler(Params{Runner: runner, Pruner: pruner})
	s.runOnce(context.Background())
	assert.Empty(t, pruner.PruneCalls())
}

func TestScheduler_StopByContext(t *testing.T) {
	runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (pipeline.Report, error) { return pipeline.Report{}, nil }}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(Params{Runner: runner, Interval: time.Hour})
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
	s.Stop()
}
