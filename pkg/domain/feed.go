package domain

import "time"

// Tier classifies a feed source by outlet size
type Tier string

// tier values
const (
	TierMajor Tier = "major"
	TierIndie Tier = "indie"
)

// Valid reports whether the tier is one of the known values
func (t Tier) Valid() bool {
	return t == TierMajor || t == TierIndie
}

// FeedSource is a named RSS/Atom endpoint, immutable for a run
type FeedSource struct {
	Name string
	URL  string
	Tier Tier
}

// Entry is a single item discovered in a feed, together with the source it came from
type Entry struct {
	Title     string
	Link      string // canonical identity of the entry
	Published time.Time
	ImageURL  string // image hint from the feed itself (enclosure, media:content), optional
	Source    string
	Tier      Tier
}

// ExtractedContent is what the article extractor got out of the entry page.
// All fields are optional and empty when missing.
type ExtractedContent struct {
	Text      string
	MetaImage string // og:image / twitter:image
	BodyImage string // first plausible <img> in the markup
}

// LeadImage returns the best image found on the page, meta tags first
func (e ExtractedContent) LeadImage() string {
	if e.MetaImage != "" {
		return e.MetaImage
	}
	return e.BodyImage
}
