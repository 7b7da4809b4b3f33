package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/stageside/stageside/pkg/config"
	"github.com/stageside/stageside/pkg/images/mocks"
)

func TestResolver_Resolve(t *testing.T) {
	wikiThumbs := map[string]string{
		"Walter Kerr Theatre": "https://upload.wikimedia.org/walter_kerr.jpg",
		"Hadestown":           "https://upload.wikimedia.org/hadestown.jpg",
		"Some Logo":           "https://upload.wikimedia.org/some_logo.svg.png",
	}

	tests := []struct {
		name string
		h    Hints
		want string
	}{
		{
			name: "feed image first",
			h: Hints{FeedImage: "https://cdn.example.com/feed.jpg", MetaImage: "https://cdn.example.com/meta.jpg",
				BodyImage: "https://cdn.example.com/body.jpg", Title: "Hadestown"},
			want: "https://cdn.example.com/feed.jpg",
		},
		{
			name: "junk feed image skipped for meta",
			h: Hints{FeedImage: "https://cdn.example.com/pixel.gif", MetaImage: "https://cdn.example.com/meta.jpg",
				BodyImage: "https://cdn.example.com/body.jpg"},
			want: "https://cdn.example.com/meta.jpg",
		},
		{
			name: "body image when meta missing",
			h:    Hints{BodyImage: "https://cdn.example.com/body.jpg"},
			want: "https://cdn.example.com/body.jpg",
		},
		{
			name: "encyclopedia by title phrase",
			h:    Hints{Title: "Revival heads to Walter Kerr Theatre", MetaImage: "https://cdn.example.com/logo.png"},
			want: "https://upload.wikimedia.org/walter_kerr.jpg",
		},
		{
			name: "encyclopedia by ai keyword",
			h:    Hints{Title: "tonight's the night", Keywords: []string{"Hadestown"}},
			want: "https://upload.wikimedia.org/hadestown.jpg",
		},
		{
			name: "junk encyclopedia thumbnail skipped",
			h:    Hints{Title: "Some Logo", Keywords: []string{"Hadestown"}},
			want: "https://upload.wikimedia.org/hadestown.jpg",
		},
		{
			name: "nothing found",
			h:    Hints{Title: "Quiet Week", Keywords: []string{"nothing"}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wiki := &mocks.ThumbnailerMock{
				ThumbnailFunc: func(ctx context.Context, keyword string) (string, error) {
					return wikiThumbs[keyword], nil
				},
			}
			r := NewResolver(wiki, 6)
			assert.Equal(t, tt.want, r.Resolve(context.Background(), tt.h))
		})
	}
}

func TestResolver_WikiErrorsAndLimits(t *testing.T) {
	var tried []string
	wiki := &mocks.ThumbnailerMock{
		ThumbnailFunc: func(ctx context.Context, keyword string) (string, error) {
			tried = append(tried, keyword)
			return "", errors.New("timeout")
		},
	}
	r := NewResolver(wiki, 2)
	got := r.Resolve(context.Background(), Hints{Title: "Audra McDonald Joins Gypsy Revival", Keywords: []string{"Broadway"}})
	assert.Empty(t, got)
	assert.Equal(t, []string{"Audra Mc", "Donald Joins Gypsy Revival"}, tried, "at most maxKeywords lookups")

	assert.Empty(t, NewResolver(nil, 6).Resolve(context.Background(), Hints{Title: "Hadestown"}), "no fallback without client")
}

func TestSearchKeywords(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ai    []string
		limit int
		want  []string
	}{
		{
			name:  "phrases then singles then ai",
			title: "Revival of Gypsy opens at Majestic Theatre with Audra",
			ai:    []string{"Gypsy", "Broadway", "AB"},
			limit: 10,
			want:  []string{"Majestic Theatre", "Revival", "Gypsy", "Majestic", "Theatre", "Audra", "Broadway"},
		},
		{
			name:  "limit applied",
			title: "Hadestown Names New Director",
			ai:    []string{"Hadestown"},
			limit: 2,
			want:  []string{"Hadestown Names New Director", "Hadestown"},
		},
		{
			name:  "lowercase title falls back to long words",
			title: "tickets on sale now for revival",
			ai:    nil,
			limit: 6,
			want:  []string{"tickets", "sale", "revival"},
		},
		{
			name:  "short and blank ai keywords skipped",
			title: "",
			ai:    []string{" ", "NY", "  Lincoln   Center "},
			limit: 6,
			want:  []string{"Lincoln Center"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchKeywords(tt.title, tt.ai, tt.limit))
		})
	}
}

func TestWikiClient_Thumbnail(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "pageimages", q.Get("prop"))
		assert.Equal(t, "800", q.Get("pithumbsize"))
		assert.Equal(t, "1", q.Get("redirects"))
		assert.Equal(t, "stageside-test", r.Header.Get("User-Agent"))
		switch q.Get("titles") {
		case "Hadestown":
			_, _ = w.Write([]byte(`{"query":{"pages":{"4242":{"pageid":4242,"title":"Hadestown",
				"thumbnail":{"source":"https://upload.wikimedia.org/hadestown.jpg","width":800,"height":600}}}}}`))
		case "Broken":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte(`{"query":{"pages":{"-1":{"title":"Nope","missing":""}}}}`))
		}
	}))
	defer ts.Close()

	w := NewWikiClient(config.ImagesConfig{WikiEndpoint: ts.URL, ThumbSize: 800, Timeout: time.Second, UserAgent: "stageside-test"})
	w.limiter = rate.NewLimiter(rate.Inf, 1)

	thumb, err := w.Thumbnail(context.Background(), "Hadestown")
	require.NoError(t, err)
	assert.Equal(t, "https://upload.wikimedia.org/hadestown.jpg", thumb)

	thumb, err = w.Thumbnail(context.Background(), "Nope")
	require.NoError(t, err)
	assert.Empty(t, thumb)

	_, err = w.Thumbnail(context.Background(), "Broken")
	require.Error(t, err)

	// cached hit and miss
	before := calls.Load()
	thumb, err = w.Thumbnail(context.Background(), "Hadestown")
	require.NoError(t, err)
	assert.NotEmpty(t, thumb)
	_, _ = w.Thumbnail(context.Background(), "Nope")
	assert.Equal(t, before, calls.Load())

	thumb, err = w.Thumbnail(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, thumb)
}
