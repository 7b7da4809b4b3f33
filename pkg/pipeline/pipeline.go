package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/stageside/stageside/pkg/archive"
	"github.com/stageside/stageside/pkg/config"
	"github.com/stageside/stageside/pkg/domain"
)

//go:generate moq -out mocks/feed_reader.go -pkg mocks -skip-ensure -fmt goimports . FeedReader
//go:generate moq -out mocks/archive_store.go -pkg mocks -skip-ensure -fmt goimports . ArchiveStore
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier
//go:generate moq -out mocks/ledger.go -pkg mocks -skip-ensure -fmt goimports . Ledger

// ErrRunInProgress is returned when a run is requested while another one is active
var ErrRunInProgress = errors.New("pipeline run already in progress")

// FeedReader discovers entries of all sources
type FeedReader interface {
	Read(ctx context.Context, sources []domain.FeedSource) []domain.Entry
}

// ArchiveStore persists the archive
type ArchiveStore interface {
	Load() (domain.Archive, error)
	Update(ctx context.Context, fn func(domain.Archive) (domain.Archive, error)) error
}

// Notifier receives newly added records
type Notifier interface {
	Notify(ctx context.Context, records []domain.ArticleRecord) error
}

// Ledger records runs and entry outcomes
type Ledger interface {
	StartRun(ctx context.Context, kind string, startedAt time.Time) (string, error)
	RecordOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error
	FinishRun(ctx context.Context, run domain.Run) error
}

// Report describes a finished run
type Report struct {
	RunID    string
	Entries  int
	Skipped  int
	Admitted int
	Rejected int
	Failed   int
	Added    []domain.ArticleRecord // records which made it into the archive, archive order
}

// Params holds pipeline dependencies. Notifier and Ledger may be nil.
type Params struct {
	Config    config.PipelineConfig
	Sources   []domain.FeedSource
	Reader    FeedReader
	Processor EntryProcessor
	Store     ArchiveStore
	Notifier  Notifier
	Ledger    Ledger
}

// Pipeline runs ingest and repair cycles, one at a time
type Pipeline struct {
	cfg         config.PipelineConfig
	sources     []domain.FeedSource
	reader      FeedReader
	coordinator *Coordinator
	store       ArchiveStore
	notifier    Notifier
	ledger      Ledger
	markers     []string

	running sync.Mutex
	now     func() time.Time
}

// New makes a pipeline. Failure markers of the admission gate are also used to find records for repair.
func New(p Params, markers []string) *Pipeline {
	return &Pipeline{
		cfg:         p.Config,
		sources:     p.Sources,
		reader:      p.Reader,
		coordinator: NewCoordinator(p.Processor, p.Config.Workers),
		store:       p.Store,
		notifier:    p.Notifier,
		ledger:      p.Ledger,
		markers:     markers,
		now:         time.Now,
	}
}

// Run executes one ingest cycle: read feeds, skip known links, process entries, merge
// admitted records into the archive, notify about added ones and record the run.
// Without admitted records the archive is not written and nothing is sent.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if !p.running.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer p.running.Unlock()

	run := domain.Run{Kind: domain.RunIngest, StartedAt: p.now().UTC()}
	run.ID = p.startRun(ctx, run)
	report := Report{RunID: run.ID}

	existing, err := p.store.Load()
	if err != nil {
		err = fmt.Errorf("load archive: %w", err)
		p.finishRun(ctx, run, report, err)
		return report, err
	}

	entries := p.reader.Read(ctx, p.sources)
	fresh, skipped := skipKnown(entries, existing.Links())
	report.Entries, report.Skipped = len(entries), len(skipped)
	lgr.Printf("[INFO] run %s: %d entries, %d already archived", run.ID, len(entries), len(skipped))

	batch := p.coordinator.Run(ctx, fresh)
	report.Admitted, report.Rejected, report.Failed = batch.Admitted(), batch.Rejected, batch.Failed
	p.recordOutcomes(ctx, run.ID, append(skipped, batch.Outcomes...))

	candidates := append(archive.Take(batch.Major, p.cfg.MajorSlice), archive.Take(batch.Indie, p.cfg.IndieSlice)...)
	if len(candidates) == 0 {
		lgr.Printf("[INFO] run %s: no records admitted, archive left as is", run.ID)
		p.finishRun(ctx, run, report, nil)
		return report, nil
	}

	err = p.store.Update(ctx, func(a domain.Archive) (domain.Archive, error) {
		merged, added := archive.Merge(a, candidates, p.cfg.RetentionCap)
		report.Added = added
		return merged, nil
	})
	if err != nil {
		err = fmt.Errorf("save archive: %w", err)
		report.Added = nil
		p.finishRun(ctx, run, report, err)
		return report, err
	}
	lgr.Printf("[INFO] run %s: %d records added to the archive", run.ID, len(report.Added))

	if p.notifier != nil && len(report.Added) > 0 {
		if err := p.notifier.Notify(ctx, report.Added); err != nil {
			lgr.Printf("[WARN] notification failed: %v", err)
		}
	}

	p.finishRun(ctx, run, report, nil)
	return report, nil
}

// NeedsRepair reports whether a record was stored without real enrichment
func (p *Pipeline) NeedsRepair(rec domain.ArticleRecord) bool {
	if strings.TrimSpace(rec.SummaryKR) == "" || strings.TrimSpace(rec.TitleKR) == rec.OriginalTitle {
		return true
	}
	return Admission{Markers: p.markers}.HasMarker(rec.SummaryKR)
}

// Repair re-processes archived records which need repair and replaces each admitted one
// as a whole, keeping its position and capture time. Records failing again are left untouched.
func (p *Pipeline) Repair(ctx context.Context) (Report, error) {
	if !p.running.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer p.running.Unlock()

	run := domain.Run{Kind: domain.RunRepair, StartedAt: p.now().UTC()}
	run.ID = p.startRun(ctx, run)
	report := Report{RunID: run.ID}

	existing, err := p.store.Load()
	if err != nil {
		err = fmt.Errorf("load archive: %w", err)
		p.finishRun(ctx, run, report, err)
		return report, err
	}

	var entries []domain.Entry
	for _, rec := range existing {
		if p.NeedsRepair(rec) {
			entries = append(entries, entryFromRecord(rec))
		}
	}
	report.Entries = len(entries)
	if len(entries) == 0 {
		lgr.Printf("[INFO] repair %s: nothing to repair in %d records", run.ID, len(existing))
		p.finishRun(ctx, run, report, nil)
		return report, nil
	}

	batch := p.coordinator.Run(ctx, entries)
	report.Admitted, report.Rejected, report.Failed = batch.Admitted(), batch.Rejected, batch.Failed
	p.recordOutcomes(ctx, run.ID, batch.Outcomes)

	repaired := make(map[string]domain.ArticleRecord, batch.Admitted())
	for _, rec := range append(batch.Major, batch.Indie...) {
		repaired[rec.Link] = rec
	}
	if len(repaired) == 0 {
		p.finishRun(ctx, run, report, nil)
		return report, nil
	}

	err = p.store.Update(ctx, func(a domain.Archive) (domain.Archive, error) {
		res := make(domain.Archive, len(a))
		for i, rec := range a {
			res[i] = rec
			fixed, ok := repaired[rec.Link]
			if !ok {
				continue
			}
			fixed.CapturedAt = rec.CapturedAt
			fixed.Date = rec.Date
			res[i] = fixed
			report.Added = append(report.Added, fixed)
		}
		return res, nil
	})
	if err != nil {
		err = fmt.Errorf("save archive: %w", err)
		report.Added = nil
		p.finishRun(ctx, run, report, err)
		return report, err
	}
	lgr.Printf("[INFO] repair %s: %d of %d records replaced", run.ID, len(report.Added), len(entries))
	p.finishRun(ctx, run, report, nil)
	return report, nil
}

// skipKnown drops entries already in the archive or seen earlier in the same run
func skipKnown(entries []domain.Entry, known map[string]struct{}) (fresh []domain.Entry, skipped []domain.Outcome) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		_, archived := known[e.Link]
		_, dup := seen[e.Link]
		if archived || dup {
			reason := "already archived"
			if !archived {
				reason = "duplicate link"
			}
			skipped = append(skipped, domain.Outcome{Link: e.Link, Title: e.Title, Source: e.Source, Tier: e.Tier,
				Status: domain.OutcomeSkipped, Reason: reason})
			continue
		}
		seen[e.Link] = struct{}{}
		fresh = append(fresh, e)
	}
	return fresh, skipped
}

// entryFromRecord rebuilds the feed entry of an archived record, its image becomes the feed hint
func entryFromRecord(rec domain.ArticleRecord) domain.Entry {
	published, err := time.Parse("2006-01-02", rec.Date)
	if err != nil {
		published = rec.CapturedAt
	}
	return domain.Entry{
		Title:     rec.OriginalTitle,
		Link:      rec.Link,
		Published: published,
		ImageURL:  rec.Image,
		Source:    rec.Source,
		Tier:      rec.Tier,
	}
}

func (p *Pipeline) startRun(ctx context.Context, run domain.Run) string {
	if p.ledger == nil {
		return ""
	}
	id, err := p.ledger.StartRun(ctx, run.Kind, run.StartedAt)
	if err != nil {
		lgr.Printf("[WARN] failed to record %s run start: %v", run.Kind, err)
		return ""
	}
	return id
}

func (p *Pipeline) recordOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) {
	if p.ledger == nil || runID == "" || len(outcomes) == 0 {
		return
	}
	if err := p.ledger.RecordOutcomes(ctx, runID, outcomes); err != nil {
		lgr.Printf("[WARN] failed to record outcomes of run %s: %v", runID, err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, run domain.Run, report Report, runErr error) {
	if p.ledger == nil || run.ID == "" {
		return
	}
	run.FinishedAt = p.now().UTC()
	run.Entries, run.Skipped = report.Entries, report.Skipped
	run.Admitted, run.Rejected, run.Failed = report.Admitted, report.Rejected, report.Failed
	run.Added = len(report.Added)
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := p.ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		lgr.Printf("[WARN] failed to record finish of run %s: %v", run.ID, err)
	}
}
