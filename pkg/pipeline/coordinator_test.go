package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageside/stageside/pkg/domain"
)

type processorFunc func(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict)

func (f processorFunc) Process(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict) {
	return f(ctx, e)
}

func entry(link string, tier domain.Tier, hoursAgo int) domain.Entry {
	base := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	return domain.Entry{Title: "title " + link, Link: link, Tier: tier, Source: "src",
		Published: base.Add(-time.Duration(hoursAgo) * time.Hour)}
}

// admitAll admits every entry except links listed in reject, panics on links listed in crash
func admitAll(reject, crash map[string]bool) processorFunc {
	return func(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict) {
		if crash[e.Link] {
			panic("boom " + e.Link)
		}
		if reject[e.Link] {
			return nil, Verdict{Reason: ReasonNoImage}
		}
		rec := domain.NewArticleRecord(e, goodFields, "https://img/"+e.Link+".png", time.Now())
		return &rec, Verdict{Admitted: true}
	}
}

func TestCoordinator_Run(t *testing.T) {
	entries := []domain.Entry{
		entry("m-old", domain.TierMajor, 10),
		entry("i-1", domain.TierIndie, 3),
		entry("m-new", domain.TierMajor, 1),
		entry("m-rejected", domain.TierMajor, 2),
		entry("m-crash", domain.TierMajor, 2),
		entry("i-2", domain.TierIndie, 5),
		entry("m-mid", domain.TierMajor, 5),
	}
	c := NewCoordinator(admitAll(map[string]bool{"m-rejected": true}, map[string]bool{"m-crash": true}), 2)
	b := c.Run(context.Background(), entries)

	assert.Equal(t, []string{"m-new", "m-mid", "m-old"}, recLinks(b.Major), "newest first")
	assert.Equal(t, []string{"i-1", "i-2"}, recLinks(b.Indie))
	assert.Equal(t, 1, b.Rejected)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, 5, b.Admitted())

	require.Len(t, b.Outcomes, len(entries))
	for i, o := range b.Outcomes {
		assert.Equal(t, entries[i].Link, o.Link, "outcomes in input order")
	}
	assert.Equal(t, domain.OutcomeRejected, b.Outcomes[3].Status)
	assert.Equal(t, ReasonNoImage, b.Outcomes[3].Reason)
	assert.Equal(t, domain.OutcomeFailed, b.Outcomes[4].Status)
	assert.Equal(t, ReasonPanic, b.Outcomes[4].Reason)
	assert.Equal(t, domain.OutcomeAdmitted, b.Outcomes[0].Status)
}

func TestCoordinator_SamePublishTimeKeepsInputOrder(t *testing.T) {
	entries := []domain.Entry{entry("a", domain.TierMajor, 1), entry("b", domain.TierMajor, 1), entry("c", domain.TierMajor, 1)}
	for i := 0; i < 5; i++ {
		b := NewCoordinator(admitAll(nil, nil), 3).Run(context.Background(), entries)
		assert.Equal(t, []string{"a", "b", "c"}, recLinks(b.Major))
	}
}

func TestCoordinator_BoundedPool(t *testing.T) {
	var active, peak atomic.Int32
	proc := processorFunc(func(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return nil, Verdict{Reason: ReasonShortSummary}
	})

	entries := make([]domain.Entry, 8)
	for i := range entries {
		entries[i] = entry(fmt.Sprintf("e%d", i), domain.TierMajor, i)
	}
	b := NewCoordinator(proc, 2).Run(context.Background(), entries)
	assert.Equal(t, 8, b.Rejected)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(2), peak.Load())
}

func TestCoordinator_DrainsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seenCanceled atomic.Bool
	proc := processorFunc(func(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict) {
		if ctx.Err() != nil {
			seenCanceled.Store(true)
		}
		return admitAll(nil, nil)(ctx, e)
	})
	entries := []domain.Entry{entry("a", domain.TierMajor, 1), entry("b", domain.TierIndie, 1)}
	b := NewCoordinator(proc, 0).Run(ctx, entries)
	assert.Equal(t, 2, b.Admitted())
	assert.False(t, seenCanceled.Load(), "tasks get a detached context")
}

func TestCoordinator_Empty(t *testing.T) {
	b := NewCoordinator(admitAll(nil, nil), 2).Run(context.Background(), nil)
	assert.Zero(t, b.Admitted())
	assert.Empty(t, b.Outcomes)
}

func recLinks(recs []domain.ArticleRecord) []string {
	res := make([]string, 0, len(recs))
	for _, r := range recs {
		res = append(res, r.Link)
	}
	return res
}
