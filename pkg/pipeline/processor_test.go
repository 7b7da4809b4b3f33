package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageside/stageside/pkg/domain"
	"github.com/stageside/stageside/pkg/images"
	"github.com/stageside/stageside/pkg/llm"
	"github.com/stageside/stageside/pkg/pipeline/mocks"
)

var testEntry = domain.Entry{
	Title:     "Hadestown Names New Director",
	Link:      "https://playbill.com/article/hadestown",
	Published: time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC),
	Source:    "Playbill",
	Tier:      domain.TierMajor,
}

var goodFields = domain.EnrichedFields{
	TitleKR:   "하데스타운, 새 연출가 영입",
	SummaryKR: "토니상 수상작 하데스타운이 다음 시즌 새 연출가를 맞이한다.",
	ContentKR: "<p>본문</p>",
	Keywords:  []string{"Hadestown"},
}

func testAdmission() Admission {
	return Admission{MinSummaryLength: 20, RequireImage: true, Markers: llm.FailureMarkers()}
}

func TestAdmission_Check(t *testing.T) {
	base := domain.ArticleRecord{SummaryKR: goodFields.SummaryKR, Image: "https://img/1.png"}

	tests := []struct {
		name    string
		mod     func(r *domain.ArticleRecord)
		adm     Admission
		want    bool
		wantWhy string
	}{
		{name: "good record", mod: func(r *domain.ArticleRecord) {}, adm: testAdmission(), want: true},
		{name: "empty summary", mod: func(r *domain.ArticleRecord) { r.SummaryKR = "  " }, adm: testAdmission(),
			wantWhy: ReasonEmptySummary},
		{name: "failed marker", mod: func(r *domain.ArticleRecord) { r.SummaryKR = llm.MarkerFailed }, adm: testAdmission(),
			wantWhy: ReasonFailureMarker},
		{name: "marker inside longer text", mod: func(r *domain.ArticleRecord) { r.SummaryKR = "기사 정보를 불러오는 중입니다. 잠시만 기다려 주세요." },
			adm: testAdmission(), wantWhy: ReasonFailureMarker},
		{name: "marker case insensitive", mod: func(r *domain.ArticleRecord) { r.SummaryKR = "Summarization Failed for this entry, sorry" },
			adm: testAdmission(), wantWhy: ReasonFailureMarker},
		{name: "custom marker", mod: func(r *domain.ArticleRecord) { r.SummaryKR = "[draft] 토니상 수상작 하데스타운이 다음 시즌 새 연출가를 맞이한다." },
			adm: Admission{MinSummaryLength: 20, RequireImage: true, Markers: []string{"[DRAFT]"}}, wantWhy: ReasonFailureMarker},
		{name: "short summary", mod: func(r *domain.ArticleRecord) { r.SummaryKR = "짧은 요약" }, adm: testAdmission(),
			wantWhy: ReasonShortSummary},
		{name: "no image", mod: func(r *domain.ArticleRecord) { r.Image = "" }, adm: testAdmission(), wantWhy: ReasonNoImage},
		{name: "no image allowed", mod: func(r *domain.ArticleRecord) { r.Image = "" },
			adm: Admission{MinSummaryLength: 20, RequireImage: false}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mod(&r)
			v := tt.adm.Check(r)
			assert.Equal(t, tt.want, v.Admitted)
			assert.Equal(t, tt.wantWhy, v.Reason)
		})
	}
}

type processorMocks struct {
	extractor *mocks.ExtractorMock
	reactions *mocks.ReactionFinderMock
	enricher  *mocks.EnricherMock
	images    *mocks.ImageResolverMock
}

func newProcessorMocks(page domain.Result[domain.ExtractedContent], reaction domain.Result[*domain.CommunityReaction],
	fields domain.EnrichedFields, image string) processorMocks {
	return processorMocks{
		extractor: &mocks.ExtractorMock{ExtractFunc: func(ctx context.Context, url string) domain.Result[domain.ExtractedContent] {
			return page
		}},
		reactions: &mocks.ReactionFinderMock{LookupFunc: func(ctx context.Context, title, link string) domain.Result[*domain.CommunityReaction] {
			return reaction
		}},
		enricher: &mocks.EnricherMock{EnrichFunc: func(ctx context.Context, req llm.EnrichRequest) domain.EnrichedFields {
			return fields
		}},
		images: &mocks.ImageResolverMock{ResolveFunc: func(ctx context.Context, h images.Hints) string {
			return image
		}},
	}
}

func (m processorMocks) processor(adm Admission) *Processor {
	p := NewProcessor(ProcessorParams{Extractor: m.extractor, Reactions: m.reactions, Enricher: m.enricher,
		Images: m.images, Admission: adm})
	p.now = func() time.Time { return time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestProcessor_Admitted(t *testing.T) {
	page := domain.Ok(domain.ExtractedContent{Text: "article body", MetaImage: "https://cdn/meta.jpg", BodyImage: "https://cdn/body.jpg"})
	reaction := domain.Ok(&domain.CommunityReaction{ThreadID: "bbb", Comments: []string{"great news", "finally"}})
	m := newProcessorMocks(page, reaction, goodFields, "https://cdn/meta.jpg")

	e := testEntry
	e.ImageURL = "https://cdn/feed.jpg"
	rec, v := m.processor(testAdmission()).Process(context.Background(), e)
	require.True(t, v.Admitted)
	require.NotNil(t, rec)

	assert.Equal(t, domain.ArticleRecord{
		Source: "Playbill", Tier: domain.TierMajor, OriginalTitle: e.Title, Link: e.Link, Image: "https://cdn/meta.jpg",
		TitleKR: goodFields.TitleKR, SummaryKR: goodFields.SummaryKR, ContentKR: goodFields.ContentKR,
		Keywords: []string{"Hadestown"}, Date: "2025-05-02", CapturedAt: time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC),
	}, *rec)

	require.Len(t, m.extractor.ExtractCalls(), 1)
	assert.Equal(t, e.Link, m.extractor.ExtractCalls()[0].Url)
	require.Len(t, m.reactions.LookupCalls(), 1)
	assert.Equal(t, e.Title, m.reactions.LookupCalls()[0].Title)

	require.Len(t, m.enricher.EnrichCalls(), 1)
	assert.Equal(t, llm.EnrichRequest{Title: e.Title, Body: "article body", Reaction: "- great news\n- finally"},
		m.enricher.EnrichCalls()[0].Req)

	require.Len(t, m.images.ResolveCalls(), 1)
	assert.Equal(t, images.Hints{FeedImage: "https://cdn/feed.jpg", MetaImage: "https://cdn/meta.jpg",
		BodyImage: "https://cdn/body.jpg", Title: e.Title, Keywords: []string{"Hadestown"}}, m.images.ResolveCalls()[0].H)
}

func TestProcessor_RejectedWithoutImage(t *testing.T) {
	m := newProcessorMocks(domain.Ok(domain.ExtractedContent{Text: "article body"}), domain.Ok[*domain.CommunityReaction](nil),
		goodFields, "")

	rec, v := m.processor(testAdmission()).Process(context.Background(), testEntry)
	assert.Nil(t, rec)
	assert.False(t, v.Admitted)
	assert.Equal(t, ReasonNoImage, v.Reason)

	adm := testAdmission()
	adm.RequireImage = false
	rec, v = m.processor(adm).Process(context.Background(), testEntry)
	require.NotNil(t, rec)
	assert.True(t, v.Admitted)
	assert.Empty(t, rec.Image)
}

func TestProcessor_UpstreamFailures(t *testing.T) {
	page := domain.Failed[domain.ExtractedContent]("extract page", testEntry.Link, errors.New("timeout"))
	reaction := domain.Failed[*domain.CommunityReaction]("hot listing", "", errors.New("429"))
	m := newProcessorMocks(page, reaction, llm.Fallback(testEntry.Title), "https://cdn/x.jpg")

	rec, v := m.processor(testAdmission()).Process(context.Background(), testEntry)
	assert.Nil(t, rec)
	assert.Equal(t, ReasonFailureMarker, v.Reason)

	require.Len(t, m.enricher.EnrichCalls(), 1)
	assert.Equal(t, llm.EnrichRequest{Title: testEntry.Title}, m.enricher.EnrichCalls()[0].Req, "empty body and reaction")
	assert.Empty(t, m.images.ResolveCalls(), "no image lookup for a fallback summary")
}

func TestProcessor_SummaryRejectedBeforeImageLookup(t *testing.T) {
	tests := []struct {
		name    string
		fields  domain.EnrichedFields
		wantWhy string
	}{
		{name: "failure", fields: llm.Failure(testEntry.Title), wantWhy: ReasonFailureMarker},
		{name: "fallback", fields: llm.Fallback(testEntry.Title), wantWhy: ReasonFailureMarker},
		{name: "empty", fields: domain.EnrichedFields{TitleKR: "제목", SummaryKR: "  "}, wantWhy: ReasonEmptySummary},
		{name: "short", fields: domain.EnrichedFields{TitleKR: "제목", SummaryKR: "짧은 요약"}, wantWhy: ReasonShortSummary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newProcessorMocks(domain.Ok(domain.ExtractedContent{Text: "article body"}),
				domain.Ok[*domain.CommunityReaction](nil), tt.fields, "https://cdn/x.jpg")
			rec, v := m.processor(testAdmission()).Process(context.Background(), testEntry)
			assert.Nil(t, rec)
			assert.False(t, v.Admitted)
			assert.Equal(t, tt.wantWhy, v.Reason)
			assert.Empty(t, m.images.ResolveCalls())
		})
	}
}

func TestProcessor_NoReactionFinder(t *testing.T) {
	m := newProcessorMocks(domain.Ok(domain.ExtractedContent{Text: "article body"}), domain.Result[*domain.CommunityReaction]{},
		goodFields, "https://cdn/x.jpg")
	p := NewProcessor(ProcessorParams{Extractor: m.extractor, Enricher: m.enricher, Images: m.images, Admission: testAdmission()})

	rec, v := p.Process(context.Background(), testEntry)
	require.NotNil(t, rec)
	assert.True(t, v.Admitted)
	assert.Empty(t, m.enricher.EnrichCalls()[0].Req.Reaction)
}
