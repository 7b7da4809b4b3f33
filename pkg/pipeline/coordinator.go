package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/stageside/stageside/pkg/domain"
)

// EntryProcessor turns an entry into an admitted record or a rejection
type EntryProcessor interface {
	Process(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict)
}

// Batch is the result of processing all entries of a run
type Batch struct {
	Major    []domain.ArticleRecord // newest first
	Indie    []domain.ArticleRecord // newest first
	Outcomes []domain.Outcome       // in input order
	Rejected int
	Failed   int
}

// Admitted returns number of records in both tiers
func (b Batch) Admitted() int { return len(b.Major) + len(b.Indie) }

// Coordinator runs the processor over entries with a bounded pool
type Coordinator struct {
	processor EntryProcessor
	workers   int
}

// NewCoordinator makes a coordinator, workers < 1 treated as 1
func NewCoordinator(processor EntryProcessor, workers int) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{processor: processor, workers: workers}
}

type admitted struct {
	rec   domain.ArticleRecord
	entry domain.Entry
	idx   int
}

// Run processes all entries and partitions admitted records by tier. A panic in a task is
// recovered and counted as failed, other tasks go on. Tasks get a context detached from
// cancellation of ctx, so a started batch always drains.
func (c *Coordinator) Run(ctx context.Context, entries []domain.Entry) Batch {
	taskCtx := context.WithoutCancel(ctx)

	var (
		mu       sync.Mutex
		results  []admitted
		outcomes = make([]domain.Outcome, len(entries))
		res      Batch
	)

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, e := range entries {
		g.Go(func() error {
			rec, v, err := c.process(taskCtx, e)
			outcome := domain.Outcome{Link: e.Link, Title: e.Title, Source: e.Source, Tier: e.Tier}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				lgr.Printf("[ERROR] processing of %s failed: %v", e.Link, err)
				outcome.Status, outcome.Reason = domain.OutcomeFailed, ReasonPanic
				res.Failed++
			case rec == nil || !v.Admitted:
				outcome.Status, outcome.Reason = domain.OutcomeRejected, v.Reason
				res.Rejected++
			default:
				outcome.Status = domain.OutcomeAdmitted
				results = append(results, admitted{rec: *rec, entry: e, idx: i})
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	// newest first, input order on equal publish time
	sort.Slice(results, func(i, j int) bool {
		pi, pj := results[i].entry.Published, results[j].entry.Published
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return results[i].idx < results[j].idx
	})
	for _, r := range results {
		if r.rec.Tier == domain.TierIndie {
			res.Indie = append(res.Indie, r.rec)
			continue
		}
		res.Major = append(res.Major, r.rec)
	}
	res.Outcomes = outcomes

	lgr.Printf("[INFO] processed %d entries: %d major, %d indie, %d rejected, %d failed",
		len(entries), len(res.Major), len(res.Indie), res.Rejected, res.Failed)
	return res
}

// process calls the processor and turns a panic into an error
func (c *Coordinator) process(ctx context.Context, e domain.Entry) (rec *domain.ArticleRecord, v Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[DEBUG] panic stack for %s: %s", e.Link, debug.Stack())
			rec, v, err = nil, Verdict{}, fmt.Errorf("panic: %v", r)
		}
	}()
	rec, v = c.processor.Process(ctx, e)
	return rec, v, nil
}
