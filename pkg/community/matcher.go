// Package community finds a discussion thread about the same story as a news entry
// and pulls its top comments. Matching is a keyword-overlap heuristic, not an exact join.
package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/stageside/stageside/pkg/config"
	"github.com/stageside/stageside/pkg/domain"
)

//go:generate moq -out mocks/confirmer.go -pkg mocks -skip-ensure -fmt goimports . Confirmer

const (
	maxCommentLen  = 300
	minCommentLen  = 10
	hotCacheSize   = 64
	maxResponseLen = 4 * 1024 * 1024
)

var wordRe = regexp.MustCompile(`\b[A-Za-z]{4,}\b`)

// Confirmer double-checks that a matched thread is about the same story, it can veto a match
type Confirmer interface {
	ConfirmRelevance(ctx context.Context, title, threadTitle string, comments []string) (bool, error)
}

// Post is a thread from a community hot listing
type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	NumComments int    `json:"num_comments"`
}

// Candidate is the best scoring post with its keyword overlap
type Candidate struct {
	Post  Post
	Score int
}

// Matcher looks up community reaction for entry titles
type Matcher struct {
	client    *http.Client
	cfg       config.CommunityConfig
	stopwords map[string]struct{}
	limiter   *rate.Limiter
	hot       *expirable.LRU[string, []Post]
	confirmer Confirmer
}

// NewMatcher creates a matcher with the given community settings
func NewMatcher(cfg config.CommunityConfig) *Matcher {
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Matcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		cfg:       cfg,
		stopwords: StopwordSet(cfg.Stopwords),
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		hot:       expirable.NewLRU[string, []Post](hotCacheSize, nil, ttl),
	}
}

// SetConfirmer sets optional relevance confirmation
func (m *Matcher) SetConfirmer(c Confirmer) {
	m.confirmer = c
}

// Match returns the newline-joined comment block for the entry, or empty string when
// there is no confident match or any upstream call failed
func (m *Matcher) Match(ctx context.Context, title, link string) string {
	res := m.Lookup(ctx, title, link)
	if res.Err != nil {
		lgr.Printf("[DEBUG] community lookup for %s failed: %v", link, res.Err)
		return ""
	}
	return res.Value.Text()
}

// Lookup finds the single best thread across configured communities and returns its comments.
// Not attempted when disabled or the title has no keywords, nil value when nothing matched.
func (m *Matcher) Lookup(ctx context.Context, title, link string) domain.Result[*domain.CommunityReaction] {
	if !m.cfg.IsEnabled() || len(m.cfg.Subreddits) == 0 {
		return domain.Skipped[*domain.CommunityReaction]()
	}
	keywords := Keywords(title, m.stopwords)
	if len(keywords) == 0 {
		return domain.Skipped[*domain.CommunityReaction]()
	}

	var posts []Post
	var errs []error
	for _, sub := range m.cfg.Subreddits {
		p, err := m.hotPosts(ctx, sub)
		if err != nil {
			errs = append(errs, err)
			lgr.Printf("[DEBUG] can't get hot listing of r/%s: %v", sub, err)
			continue
		}
		posts = append(posts, p...)
	}
	if len(errs) == len(m.cfg.Subreddits) {
		return domain.Failed[*domain.CommunityReaction]("hot listing", m.cfg.BaseURL, errors.Join(errs...))
	}

	best, ok := Best(keywords, posts)
	if !ok || best.Score < m.cfg.MinOverlap {
		lgr.Printf("[DEBUG] no community thread for %q, best overlap %d", title, best.Score)
		return domain.Ok[*domain.CommunityReaction](nil)
	}

	comments, err := m.comments(ctx, best.Post.ID)
	if err != nil {
		return domain.Failed[*domain.CommunityReaction]("thread comments", m.commentsURL(best.Post.ID), err)
	}
	if len(comments) == 0 {
		return domain.Ok[*domain.CommunityReaction](nil)
	}

	if m.confirmer != nil {
		confirmed, err := m.confirmer.ConfirmRelevance(ctx, title, best.Post.Title, comments)
		switch {
		case err != nil:
			lgr.Printf("[WARN] relevance confirmation for %s failed, keeping match: %v", link, err)
		case !confirmed:
			lgr.Printf("[DEBUG] thread %q vetoed for %q", best.Post.Title, title)
			return domain.Ok[*domain.CommunityReaction](nil)
		}
	}

	lgr.Printf("[DEBUG] matched %q to r/%s %q, overlap %d, %d comments",
		title, best.Post.Subreddit, best.Post.Title, best.Score, len(comments))
	return domain.Ok(&domain.CommunityReaction{
		ThreadID:  best.Post.ID,
		Subreddit: best.Post.Subreddit,
		Title:     best.Post.Title,
		Score:     best.Score,
		Comments:  comments,
	})
}

// StopwordSet builds a lowercase lookup set
func StopwordSet(words []string) map[string]struct{} {
	res := make(map[string]struct{}, len(words))
	for _, w := range words {
		res[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return res
}

// Keywords returns lowercase alphabetic tokens of 4+ letters which are not stopwords
func Keywords(title string, stopwords map[string]struct{}) map[string]struct{} {
	res := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(title, -1) {
		w = strings.ToLower(w)
		if _, skip := stopwords[w]; skip {
			continue
		}
		res[w] = struct{}{}
	}
	return res
}

// Score is the size of overlap between keywords and tokens of the post title
func Score(keywords map[string]struct{}, postTitle string) int {
	seen := make(map[string]struct{})
	score := 0
	for _, w := range wordRe.FindAllString(postTitle, -1) {
		w = strings.ToLower(w)
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := keywords[w]; ok {
			score++
		}
	}
	return score
}

// Best returns the highest scoring post, the first one wins ties. ok is false when nothing overlaps.
func Best(keywords map[string]struct{}, posts []Post) (best Candidate, ok bool) {
	for _, p := range posts {
		if s := Score(keywords, p.Title); s > best.Score {
			best = Candidate{Post: p, Score: s}
			ok = true
		}
	}
	return best, ok
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (m *Matcher) hotPosts(ctx context.Context, sub string) ([]Post, error) {
	if posts, ok := m.hot.Get(sub); ok {
		return posts, nil
	}

	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", strings.TrimRight(m.cfg.BaseURL, "/"), url.PathEscape(sub), m.cfg.HotLimit)
	var l listing
	if err := m.getJSON(ctx, u, &l); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		var p Post
		if err := json.Unmarshal(c.Data, &p); err != nil || p.ID == "" {
			continue
		}
		if p.Subreddit == "" {
			p.Subreddit = sub
		}
		posts = append(posts, p)
	}
	m.hot.Add(sub, posts)
	return posts, nil
}

func (m *Matcher) commentsURL(id string) string {
	return fmt.Sprintf("%s/comments/%s.json?sort=confidence&limit=%d",
		strings.TrimRight(m.cfg.BaseURL, "/"), url.PathEscape(id), m.cfg.MaxComments)
}

// comments returns bodies of top-level comments of the thread which are long enough and not removed
func (m *Matcher) comments(ctx context.Context, id string) ([]string, error) {
	var listings []listing
	if err := m.getJSON(ctx, m.commentsURL(id), &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var res []string
	for _, c := range listings[1].Data.Children {
		if c.Kind != "t1" {
			continue
		}
		var cm struct {
			Body string `json:"body"`
		}
		if err := json.Unmarshal(c.Data, &cm); err != nil {
			continue
		}
		body := strings.Join(strings.Fields(cm.Body), " ")
		if utf8.RuneCountInString(body) <= minCommentLen || strings.Contains(body, "[deleted]") || strings.Contains(body, "[removed]") {
			continue
		}
		res = append(res, truncate(body, maxCommentLen))
		if m.cfg.MaxComments > 0 && len(res) >= m.cfg.MaxComments {
			break
		}
	}
	return res, nil
}

// getJSON waits for the politeness limiter and decodes the response into v
func (m *Matcher) getJSON(ctx context.Context, u string, v any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, u)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseLen)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
