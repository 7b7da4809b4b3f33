package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageside/stageside/pkg/domain"
)

func testArchive() domain.Archive {
	return domain.Archive{
		{
			Source:        "Variety",
			Tier:          domain.TierMajor,
			OriginalTitle: "Hadestown Names New Director",
			Link:          "https://variety.com/2025/legit/hadestown-1",
			Image:         "https://variety.com/img/hadestown.png",
			TitleKR:       "하데스타운, 새 연출가 선임",
			SummaryKR:     "브로드웨이 장기 공연작 하데스타운이 새 연출가를 맞는다.",
			Keywords:      []string{"Hadestown", "Broadway"},
			Date:          "2025-03-01",
		},
		{
			Source:        "Deadline",
			Tier:          domain.TierIndie,
			OriginalTitle: "Box Office: 'Wicked' & Friends!",
			Link:          "https://deadline.com/box-office-2",
			TitleKR:       "",
			SummaryKR:     "주말 박스오피스 <요약>",
			Keywords:      []string{},
			Date:          "",
			CapturedAt:    time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestGenerator_RSS(t *testing.T) {
	gen := NewGenerator("https://stageside.example.com/")
	gen.now = func() time.Time { return time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) }

	rss, err := gen.RSS(testArchive())
	require.NoError(t, err)

	assert.Contains(t, rss, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, rss, `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	assert.Contains(t, rss, `<link>https://stageside.example.com/</link>`)
	assert.Contains(t, rss, `href="https://stageside.example.com/rss"`)
	assert.Contains(t, rss, `<language>ko</language>`)

	assert.Contains(t, rss, `<title>하데스타운, 새 연출가 선임</title>`)
	assert.Contains(t, rss, `<link>https://stageside.example.com/article.html?id=hadestown-names-new-director</link>`)
	assert.Contains(t, rss, `<guid>https://variety.com/2025/legit/hadestown-1</guid>`)
	assert.Contains(t, rss, `<category>Hadestown</category>`)
	assert.Contains(t, rss, `<enclosure url="https://variety.com/img/hadestown.png" type="image/png" length="0"></enclosure>`)
	assert.Contains(t, rss, `<pubDate>Sat, 01 Mar 2025 00:00:00 +0000</pubDate>`)

	// missing korean title falls back to original, special chars escaped
	assert.Contains(t, rss, `<title>Box Office: &#39;Wicked&#39; &amp; Friends!</title>`)
	assert.Contains(t, rss, `주말 박스오피스 &lt;요약&gt;`)
	assert.Contains(t, rss, `<pubDate>Sun, 02 Mar 2025 10:00:00 +0000</pubDate>`)
	assert.NotContains(t, rss, "example.com//")

	assert.Regexp(t, `(?s)<rss[^>]*>.*<channel>.*</channel>.*</rss>`, rss)
}

func TestGenerator_RSSEmpty(t *testing.T) {
	rss, err := NewGenerator("https://stageside.example.com").RSS(nil)
	require.NoError(t, err)
	assert.Contains(t, rss, `<channel>`)
	assert.NotContains(t, rss, `<item>`)
}

func TestGenerator_Sitemap(t *testing.T) {
	gen := NewGenerator("https://stageside.example.com")
	sm, err := gen.Sitemap(testArchive())
	require.NoError(t, err)

	assert.Contains(t, sm, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, sm, `<loc>https://stageside.example.com/</loc>`)
	assert.Contains(t, sm, `<loc>https://stageside.example.com/article.html?id=hadestown-names-new-director</loc>`)
	assert.Contains(t, sm, `<lastmod>2025-03-01</lastmod>`)
	assert.Contains(t, sm, `<loc>https://stageside.example.com/article.html?id=box-office-wicked-friends</loc>`)
	assert.Equal(t, 3, strings.Count(sm, "<url>"))
}

func TestGenerator_OPML(t *testing.T) {
	gen := NewGenerator("https://stageside.example.com")
	opml, err := gen.OPML([]domain.FeedSource{
		{Name: "Variety", URL: "https://variety.com/feed/", Tier: domain.TierMajor},
		{Name: "Playbill", URL: "https://playbill.com/rss", Tier: domain.TierIndie},
	})
	require.NoError(t, err)
	assert.Contains(t, opml, `<opml version="2.0">`)
	assert.Contains(t, opml, `xmlUrl="https://variety.com/feed/"`)
	assert.Contains(t, opml, `category="indie"`)
	assert.Contains(t, opml, `<title>StageSide Sources</title>`)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hadestown Names New Director", "hadestown-names-new-director"},
		{"Box Office: 'Wicked' & Friends!", "box-office-wicked-friends"},
		{"  Multiple   Spaces  ", "multiple-spaces"},
		{"Tony Awards 2025", "tony-awards-2025"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
