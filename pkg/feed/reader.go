package feed

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"

	"github.com/stageside/stageside/pkg/domain"
)

var feedLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.9,ko;q=0.8",
}

// Reader pulls the newest entries from configured RSS/Atom sources
type Reader struct {
	client         *http.Client
	userAgent      string
	perSourceLimit int
}

// NewReader creates a feed reader. perSourceLimit <= 0 means no limit.
func NewReader(timeout time.Duration, userAgent string, perSourceLimit int) *Reader {
	return &Reader{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:      userAgent,
		perSourceLimit: perSourceLimit,
	}
}

// Read returns entries of all sources in source order, at most perSourceLimit per source.
// A failing source is logged and contributes nothing, Read itself never fails.
func (r *Reader) Read(ctx context.Context, sources []domain.FeedSource) []domain.Entry {
	var res []domain.Entry
	for _, src := range sources {
		if ctx.Err() != nil {
			lgr.Printf("[WARN] feed reading interrupted: %v", ctx.Err())
			return res
		}
		entries, err := r.ReadSource(ctx, src)
		if err != nil {
			lgr.Printf("[WARN] failed to read feed %s: %v", src.Name, err)
			continue
		}
		lgr.Printf("[DEBUG] got %d entries from %s", len(entries), src.Name)
		res = append(res, entries...)
	}
	return res
}

// ReadSource fetches and parses a single source. Items without a link are dropped
// before the per-source limit applies.
func (r *Reader) ReadSource(ctx context.Context, src domain.FeedSource) ([]domain.Entry, error) {
	body, err := r.fetch(ctx, src.URL)
	if err != nil {
		return nil, &domain.FetchError{Op: "fetch feed", URL: src.URL, Err: err}
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, &domain.FetchError{Op: "parse feed", URL: src.URL, Err: err}
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if r.perSourceLimit > 0 && len(entries) == r.perSourceLimit {
			break
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		entry := domain.Entry{
			Title:    strings.TrimSpace(item.Title),
			Link:     link,
			ImageURL: ImageHint(item),
			Source:   src.Name,
			Tier:     src.Tier,
		}
		switch {
		case item.PublishedParsed != nil:
			entry.Published = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			entry.Published = item.UpdatedParsed.UTC()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ImageHint returns the image the feed itself carries for the item: item image first,
// then media:content and media:thumbnail, then image enclosures. Non-http URLs are ignored.
func ImageHint(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if item.Image != nil && isHTTPURL(item.Image.URL) {
		return item.Image.URL
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, c := range media["content"] {
			medium, typ := c.Attrs["medium"], c.Attrs["type"]
			if medium != "" && medium != "image" {
				continue
			}
			if typ != "" && !strings.HasPrefix(typ, "image/") {
				continue
			}
			if u := c.Attrs["url"]; isHTTPURL(u) {
				return u
			}
		}
		for _, th := range media["thumbnail"] {
			if u := th.Attrs["url"]; isHTTPURL(u) {
				return u
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && isHTTPURL(enc.URL) {
			return enc.URL
		}
	}
	return ""
}

func (r *Reader) fetch(ctx context.Context, feedURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", feedLanguages[rand.Intn(len(feedLanguages))]) //nolint:gosec // header variation only
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func isHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
