// Package scheduler runs the ingest pipeline on a fixed interval and on demand.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/stageside/stageside/pkg/pipeline"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner
//go:generate moq -out mocks/pruner.go -pkg mocks -skip-ensure -fmt goimports . Pruner

// Runner executes a single ingest run
type Runner interface {
	Run(ctx context.Context) (pipeline.Report, error)
}

// Pruner drops old runs from the ledger
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// Params holds scheduler dependencies and settings. Pruner may be nil.
type Params struct {
	Runner   Runner
	Pruner   Pruner
	Interval time.Duration
	KeepRuns int
}

// Scheduler triggers pipeline runs periodically and on request
type Scheduler struct {
	runner   Runner
	pruner   Pruner
	interval time.Duration
	keepRuns int

	trigger chan struct{}
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(p Params) *Scheduler {
	if p.Interval <= 0 {
		p.Interval = 6 * time.Hour
	}
	return &Scheduler{
		runner:   p.Runner,
		pruner:   p.Pruner,
		interval: p.Interval,
		keepRuns: p.KeepRuns,
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs the pipeline right away and then every interval until ctx is done or Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.worker(ctx)

	lgr.Printf("[INFO] scheduler started with interval %v", s.interval)
}

// Stop gracefully stops the scheduler, an active run is allowed to finish
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// RunNow requests an immediate run. Returns false if a request is already pending.
func (s *Scheduler) RunNow() bool {
	select {
	case s.trigger <- struct{}{}:
		lgr.Printf("[INFO] immediate run requested")
		return true
	default:
		return false
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
			ticker.Reset(s.interval)
		}
	}
}

// runOnce executes a single run and prunes the ledger after it
func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		lgr.Printf("[INFO] scheduled run skipped, another run is active")
		return
	case err != nil:
		lgr.Printf("[ERROR] run %s failed: %v", report.RunID, err)
	default:
		lgr.Printf("[INFO] run %s done in %v: %d entries, %d admitted, %d added",
			report.RunID, time.Since(start).Truncate(time.Millisecond), report.Entries, report.Admitted, len(report.Added))
	}

	if s.pruner == nil || s.keepRuns <= 0 {
		return
	}
	n, err := s.pruner.Prune(ctx, s.keepRuns)
	if err != nil {
		lgr.Printf("[WARN] failed to prune run ledger: %v", err)
		return
	}
	if n > 0 {
		lgr.Printf("[DEBUG] pruned %d old runs", n)
	}
}
