// Package images picks one representative image per entry from feed, page and encyclopedia candidates.
package images

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/stageside/stageside/pkg/content"
)

//go:generate moq -out mocks/thumbnailer.go -pkg mocks -skip-ensure -fmt goimports . Thumbnailer

var (
	phraseRe = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+`)
	singleRe = regexp.MustCompile(`\b[A-Z][a-z]{3,}\b`)
	wordRe   = regexp.MustCompile(`[A-Za-z]{4,}`)
)

const minKeywordLen = 3

// Thumbnailer finds an image for a search keyword
type Thumbnailer interface {
	Thumbnail(ctx context.Context, keyword string) (string, error)
}

// Hints are image candidates collected for an entry, plus data for the encyclopedia fallback
type Hints struct {
	FeedImage string
	MetaImage string
	BodyImage string
	Title     string   // original title
	Keywords  []string // keywords from enrichment
}

// Resolver chooses the image by priority: feed, page meta, page body, encyclopedia search
type Resolver struct {
	wiki        Thumbnailer
	maxKeywords int
}

// NewResolver makes a resolver. wiki may be nil to disable the encyclopedia fallback.
func NewResolver(wiki Thumbnailer, maxKeywords int) *Resolver {
	return &Resolver{wiki: wiki, maxKeywords: maxKeywords}
}

// Resolve returns the chosen image URL or empty string if nothing usable was found
func (r *Resolver) Resolve(ctx context.Context, h Hints) string {
	image, source := r.pick(ctx, h)
	if content.IsJunkImage(image) {
		if image != "" {
			lgr.Printf("[DEBUG] discarded junk image %s for %q", image, h.Title)
		}
		return ""
	}
	lgr.Printf("[DEBUG] image for %q from %s: %s", h.Title, source, image)
	return image
}

func (r *Resolver) pick(ctx context.Context, h Hints) (image, source string) {
	candidates := []struct{ url, source string }{
		{h.FeedImage, "feed"},
		{h.MetaImage, "page meta"},
		{h.BodyImage, "page body"},
	}
	for _, c := range candidates {
		if !content.IsJunkImage(c.url) {
			return c.url, c.source
		}
	}

	if r.wiki == nil {
		return "", ""
	}
	for _, kw := range SearchKeywords(h.Title, h.Keywords, r.maxKeywords) {
		if ctx.Err() != nil {
			return "", ""
		}
		thumb, err := r.wiki.Thumbnail(ctx, kw)
		if err != nil {
			lgr.Printf("[DEBUG] encyclopedia lookup for %q failed: %v", kw, err)
			continue
		}
		if thumb != "" && !content.IsJunkImage(thumb) {
			return thumb, "encyclopedia [" + kw + "]"
		}
	}
	return "", ""
}

// SearchKeywords builds the encyclopedia search list: capitalized multi-word phrases of the title,
// then its capitalized words of 4+ letters (any 4+ letter words if there are none), then AI keywords.
// The list is deduplicated in order, keywords shorter than 3 chars are skipped, limit <= 0 means no limit.
func SearchKeywords(title string, aiKeywords []string, limit int) []string {
	fromTitle := phraseRe.FindAllString(title, -1)
	fromTitle = append(fromTitle, singleRe.FindAllString(title, -1)...)
	if len(fromTitle) == 0 {
		fromTitle = wordRe.FindAllString(title, -1)
	}

	seen := make(map[string]struct{})
	var res []string
	for _, kw := range append(fromTitle, aiKeywords...) {
		kw = strings.Join(strings.Fields(kw), " ")
		if len([]rune(kw)) < minKeywordLen {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		res = append(res, kw)
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	return res
}
