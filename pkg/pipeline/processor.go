// Package pipeline turns feed entries into admitted archive records and runs the whole ingest cycle.
package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/stageside/stageside/pkg/domain"
	"github.com/stageside/stageside/pkg/images"
	"github.com/stageside/stageside/pkg/llm"
)

//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/reaction_finder.go -pkg mocks -skip-ensure -fmt goimports . ReactionFinder
//go:generate moq -out mocks/enricher.go -pkg mocks -skip-ensure -fmt goimports . Enricher
//go:generate moq -out mocks/image_resolver.go -pkg mocks -skip-ensure -fmt goimports . ImageResolver

// Extractor fetches article text and page images
type Extractor interface {
	Extract(ctx context.Context, url string) domain.Result[domain.ExtractedContent]
}

// ReactionFinder looks up community discussion of an article
type ReactionFinder interface {
	Lookup(ctx context.Context, title, link string) domain.Result[*domain.CommunityReaction]
}

// Enricher produces localized editorial fields, never fails
type Enricher interface {
	Enrich(ctx context.Context, req llm.EnrichRequest) domain.EnrichedFields
}

// ImageResolver picks the record image
type ImageResolver interface {
	Resolve(ctx context.Context, h images.Hints) string
}

// rejection reasons
const (
	ReasonEmptySummary  = "empty summary"
	ReasonFailureMarker = "summary is a failure marker"
	ReasonShortSummary  = "summary too short"
	ReasonNoImage       = "no image"
	ReasonPanic         = "processing panic"
)

// Verdict is the admission decision for a candidate record
type Verdict struct {
	Admitted bool
	Reason   string // empty when admitted
}

// Admission is the quality gate applied to every candidate record
type Admission struct {
	MinSummaryLength int
	RequireImage     bool
	Markers          []string // summaries containing any of them are rejected
}

// Check returns the verdict for a record
func (a Admission) Check(rec domain.ArticleRecord) Verdict {
	if v := a.CheckSummary(rec.SummaryKR); !v.Admitted {
		return v
	}
	if a.RequireImage && strings.TrimSpace(rec.Image) == "" {
		return Verdict{Reason: ReasonNoImage}
	}
	return Verdict{Admitted: true}
}

// CheckSummary applies the summary part of the gate, it needs no image
func (a Admission) CheckSummary(summary string) Verdict {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return Verdict{Reason: ReasonEmptySummary}
	}
	if a.HasMarker(summary) {
		return Verdict{Reason: ReasonFailureMarker}
	}
	if utf8.RuneCountInString(summary) < a.MinSummaryLength {
		return Verdict{Reason: ReasonShortSummary}
	}
	return Verdict{Admitted: true}
}

// HasMarker reports whether summary carries one of the failure markers, case-insensitive
func (a Admission) HasMarker(summary string) bool {
	lower := strings.ToLower(summary)
	for _, m := range a.Markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Processor builds one record per entry
type Processor struct {
	extractor Extractor
	reactions ReactionFinder
	enricher  Enricher
	images    ImageResolver
	admission Admission
	now       func() time.Time
}

// ProcessorParams holds the processor dependencies. Reactions may be nil.
type ProcessorParams struct {
	Extractor Extractor
	Reactions ReactionFinder
	Enricher  Enricher
	Images    ImageResolver
	Admission Admission
}

// NewProcessor makes a processor
func NewProcessor(p ProcessorParams) *Processor {
	return &Processor{
		extractor: p.Extractor,
		reactions: p.Reactions,
		enricher:  p.Enricher,
		images:    p.Images,
		admission: p.Admission,
		now:       time.Now,
	}
}

// Process runs extraction and the reaction lookup concurrently, then enrichment and image
// resolution, and applies the admission gate. Image resolution is skipped when the summary
// alone fails the gate. Rejected entries return nil record.
func (p *Processor) Process(ctx context.Context, e domain.Entry) (*domain.ArticleRecord, Verdict) {
	var extracted domain.Result[domain.ExtractedContent]
	var reaction domain.Result[*domain.CommunityReaction]

	var g errgroup.Group
	g.Go(func() error {
		extracted = p.extractor.Extract(ctx, e.Link)
		return nil
	})
	if p.reactions != nil {
		g.Go(func() error {
			reaction = p.reactions.Lookup(ctx, e.Title, e.Link)
			return nil
		})
	}
	_ = g.Wait()

	if extracted.Err != nil {
		lgr.Printf("[WARN] extraction of %s failed: %v", e.Link, extracted.Err)
	}
	if reaction.Err != nil {
		lgr.Printf("[DEBUG] no community reaction for %s: %v", e.Link, reaction.Err)
	}

	page := extracted.OrZero()
	fields := p.enricher.Enrich(ctx, llm.EnrichRequest{
		Title:    e.Title,
		Body:     page.Text,
		Reaction: reaction.OrZero().Text(),
	})

	// a failed or fallback summary is rejected regardless of the image, skip the lookups
	if v := p.admission.CheckSummary(fields.SummaryKR); !v.Admitted {
		lgr.Printf("[INFO] rejected %q from %s: %s", e.Title, e.Source, v.Reason)
		return nil, v
	}

	image := p.images.Resolve(ctx, images.Hints{
		FeedImage: e.ImageURL,
		MetaImage: page.MetaImage,
		BodyImage: page.BodyImage,
		Title:     e.Title,
		Keywords:  fields.Keywords,
	})

	rec := domain.NewArticleRecord(e, fields, image, p.now().UTC())
	v := p.admission.Check(rec)
	if !v.Admitted {
		lgr.Printf("[INFO] rejected %q from %s: %s", e.Title, e.Source, v.Reason)
		return nil, v
	}
	lgr.Printf("[INFO] admitted %q from %s", e.Title, e.Source)
	return &rec, v
}
