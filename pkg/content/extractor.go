package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html/charset"

	"github.com/stageside/stageside/pkg/domain"
)

const maxPageSize = 5 * 1024 * 1024

// meta tags checked for a lead image, in order of preference
var imageMetaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:secure_url"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// attributes holding image source, lazy loaders use data-*
var imageSrcAttrs = []string{"src", "data-src", "data-lazy-src", "data-original"}

// HTTPExtractor extracts article text and a lead image from article pages
type HTTPExtractor struct {
	client    *http.Client
	userAgent string
}

// NewHTTPExtractor creates a new content extractor
func NewHTTPExtractor(timeout time.Duration, userAgent string) *HTTPExtractor {
	return &HTTPExtractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Extract retrieves the page and returns readable text plus lead image candidates.
// Fetch failures are returned as failed result with empty value. Text extraction failure
// is not fatal, images found in the markup are still returned.
func (e *HTTPExtractor) Extract(ctx context.Context, urlStr string) domain.Result[domain.ExtractedContent] {
	const op = "extract page"

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return domain.Failed[domain.ExtractedContent](op, urlStr, fmt.Errorf("parse URL: %w", err))
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return domain.Failed[domain.ExtractedContent](op, urlStr, fmt.Errorf("invalid URL"))
	}

	page, err := e.fetch(ctx, urlStr)
	if err != nil {
		return domain.Failed[domain.ExtractedContent](op, urlStr, err)
	}

	var res domain.ExtractedContent
	res.Text, err = extractText(page, parsedURL)
	if err != nil {
		lgr.Printf("[DEBUG] no text extracted from %s: %v", urlStr, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		lgr.Printf("[DEBUG] can't parse markup of %s: %v", urlStr, err)
		return domain.Ok(res)
	}
	res.MetaImage = metaImage(doc, parsedURL)
	res.BodyImage = bodyImage(doc, parsedURL)
	return domain.Ok(res)
}

// fetch downloads the page and converts it to UTF-8
func (e *HTTPExtractor) fetch(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	addBrowserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	utf8Body, err := charset.NewReader(io.LimitReader(resp.Body, maxPageSize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	page, err := io.ReadAll(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return page, nil
}

// extractText runs trafilatura over the page and returns main content as plain text
func extractText(page []byte, pageURL *url.URL) (string, error) {
	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		ExcludeTables:   false,
		IncludeImages:   false,
		IncludeLinks:    false,
		Deduplicate:     true,
		OriginalURL:     pageURL,
	}

	result, err := trafilatura.Extract(bytes.NewReader(page), opts)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return "", fmt.Errorf("no text content")
	}
	return strings.TrimSpace(result.ContentText), nil
}

// metaImage returns the first usable og/twitter image
func metaImage(doc *goquery.Document, base *url.URL) string {
	for _, sel := range imageMetaSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if u := absURL(base, s.AttrOr("content", "")); u != "" && !IsJunkImage(u) {
				found = u
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// bodyImage scans <img> elements and returns the first plausible content image
func bodyImage(doc *goquery.Document, base *url.URL) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isTinyImage(s) {
			return true
		}
		for _, attr := range imageSrcAttrs {
			src, ok := s.Attr(attr)
			if !ok {
				continue
			}
			if u := absURL(base, src); u != "" && !IsJunkImage(u) {
				found = u
				return false
			}
		}
		return true
	})
	return found
}

// isTinyImage detects placeholders and pixels by declared dimensions
func isTinyImage(s *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		v, ok := s.Attr(attr)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
		if err == nil && n < 50 {
			return true
		}
	}
	return false
}

// absURL resolves ref against base, returns empty string for non-http results
func absURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
