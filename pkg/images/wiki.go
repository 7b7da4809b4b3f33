package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/stageside/stageside/pkg/config"
)

const (
	wikiInterval  = 300 * time.Millisecond
	wikiCacheSize = 256
	wikiCacheTTL  = time.Hour
)

// WikiClient looks up lead images of encyclopedia pages via the MediaWiki pageimages API
type WikiClient struct {
	client    *http.Client
	endpoint  string
	thumbSize int
	userAgent string
	limiter   *rate.Limiter
	cache     *expirable.LRU[string, string]
}

// NewWikiClient makes a client for the configured MediaWiki endpoint
func NewWikiClient(cfg config.ImagesConfig) *WikiClient {
	return &WikiClient{
		client:    &http.Client{Timeout: cfg.Timeout},
		endpoint:  cfg.WikiEndpoint,
		thumbSize: cfg.ThumbSize,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Every(wikiInterval), 1),
		cache:     expirable.NewLRU[string, string](wikiCacheSize, nil, wikiCacheTTL),
	}
}

type pageImagesResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Thumbnail struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// Thumbnail returns thumbnail URL of the page titled keyword, empty string if the page
// does not exist or has no image. Both hits and misses are cached.
func (w *WikiClient) Thumbnail(ctx context.Context, keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", nil
	}
	if thumb, ok := w.cache.Get(keyword); ok {
		return thumb, nil
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("titles", keyword)
	q.Set("prop", "pageimages")
	q.Set("format", "json")
	q.Set("pithumbsize", strconv.Itoa(w.thumbSize))
	q.Set("redirects", "1")
	reqURL := w.endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("query pageimages for %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("query pageimages for %q: unexpected status code %d", keyword, resp.StatusCode)
	}

	var pr pageImagesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1024*1024)).Decode(&pr); err != nil {
		return "", fmt.Errorf("decode pageimages response: %w", err)
	}

	var thumb string
	for _, p := range pr.Query.Pages {
		if p.Thumbnail.Source != "" {
			thumb = p.Thumbnail.Source
			break
		}
	}
	w.cache.Add(keyword, thumb)
	return thumb, nil
}
