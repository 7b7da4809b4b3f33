package domain

import (
	"strings"
	"time"
)

// CommunityReaction holds top comments of the single discussion thread matched to an entry
type CommunityReaction struct {
	ThreadID  string
	Subreddit string
	Title     string
	Score     int // keyword overlap between the thread title and the entry title
	Comments  []string
}

// Text returns comments as a newline-joined block, each line prefixed with a marker.
// Empty reaction returns empty string.
func (c *CommunityReaction) Text() string {
	if c == nil || len(c.Comments) == 0 {
		return ""
	}
	lines := make([]string, 0, len(c.Comments))
	for _, cm := range c.Comments {
		lines = append(lines, "- "+cm)
	}
	return strings.Join(lines, "\n")
}

// EnrichedFields is the structured output of the enrichment engine
type EnrichedFields struct {
	TitleKR    string   `json:"title_kr" jsonschema:"description=Catchy Korean headline"`
	SummaryKR  string   `json:"summary_kr" jsonschema:"description=One or two sentence Korean summary"`
	ContentKR  string   `json:"content_kr" jsonschema:"description=Rich Korean article body as HTML (p/h3/blockquote/ul/li)"`
	Keywords   []string `json:"keywords" jsonschema:"description=Proper nouns and key terms in English (people/productions/venues)"`
	ReactionKR string   `json:"reddit_reaction_kr" jsonschema:"description=Korean synthesis of community reaction or empty string"`
}

// ArticleRecord is the persisted unit of the archive. Link is unique across the archive.
// Records are never mutated in place; a repair pass replaces the whole record.
type ArticleRecord struct {
	Source        string    `json:"source"`
	Tier          Tier      `json:"tier"`
	OriginalTitle string    `json:"original_title"`
	Link          string    `json:"link"`
	Image         string    `json:"image"`
	TitleKR       string    `json:"title_kr"`
	SummaryKR     string    `json:"summary_kr"`
	ContentKR     string    `json:"content_kr"`
	Keywords      []string  `json:"keywords"`
	ReactionKR    string    `json:"reddit_reaction_kr,omitempty"`
	Date          string    `json:"date"` // published date, YYYY-MM-DD
	CapturedAt    time.Time `json:"crawled_at"`
}

// NewArticleRecord assembles a record from an entry, its enrichment and the resolved image
func NewArticleRecord(e Entry, f EnrichedFields, image string, capturedAt time.Time) ArticleRecord {
	published := e.Published
	if published.IsZero() {
		published = capturedAt
	}
	keywords := f.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return ArticleRecord{
		Source:        e.Source,
		Tier:          e.Tier,
		OriginalTitle: e.Title,
		Link:          e.Link,
		Image:         image,
		TitleKR:       f.TitleKR,
		SummaryKR:     f.SummaryKR,
		ContentKR:     f.ContentKR,
		Keywords:      keywords,
		ReactionKR:    f.ReactionKR,
		Date:          published.Format("2006-01-02"),
		CapturedAt:    capturedAt,
	}
}

// Archive is the ordered list of records, newest first
type Archive []ArticleRecord

// Links returns a set of all links in the archive
func (a Archive) Links() map[string]struct{} {
	res := make(map[string]struct{}, len(a))
	for _, r := range a {
		res[r.Link] = struct{}{}
	}
	return res
}
