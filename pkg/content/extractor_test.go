package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleBody = `<p>The Tony-winning musical Hadestown will welcome a new director this fall as the production
enters its sixth year at the Walter Kerr Theatre. The change comes after a record-breaking season in which the
show recouped its investment and extended its run indefinitely.</p>
<p>Producers said the creative team will remain in place and that rehearsals begin in September, with the
new staging expected to debut in time for the holiday season on Broadway.</p>`

func TestHTTPExtractor_Extract(t *testing.T) {
	tests := []struct {
		name          string
		html          string
		statusCode    int
		wantText      string
		wantMeta      string
		wantBody      string
		wantErr       bool
		wantNoContent bool
	}{
		{
			name: "og image and article text",
			html: `<!DOCTYPE html><html><head><title>Hadestown</title>
				<meta property="og:image" content="https://cdn.example.com/hadestown.jpg"/>
				</head><body><article><h1>Hadestown gets a new director</h1>` + articleBody + `</article></body></html>`,
			statusCode: http.StatusOK,
			wantText:   "Walter Kerr Theatre",
			wantMeta:   "https://cdn.example.com/hadestown.jpg",
		},
		{
			name: "junk og image skipped, twitter image used",
			html: `<html><head>
				<meta property="og:image" content="https://cdn.example.com/site-logo.png"/>
				<meta name="twitter:image" content="/img/stage.jpg"/>
				</head><body><article>` + articleBody + `</article></body></html>`,
			statusCode: http.StatusOK,
			wantMeta:   "{server}/img/stage.jpg",
		},
		{
			name: "body image fallback skips pixels and tiny images",
			html: `<html><head></head><body><article>
				<img src="https://tracker.example.com/pixel.png"/>
				<img src="/img/spacer-dot.jpg" width="1" height="1"/>
				<img data-src="/photos/cast.jpg"/>` + articleBody + `</article></body></html>`,
			statusCode: http.StatusOK,
			wantBody:   "{server}/photos/cast.jpg",
		},
		{
			name:       "server error",
			html:       "error",
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
		},
		{
			name:          "empty page",
			html:          `<html><head></head><body></body></html>`,
			statusCode:    http.StatusOK,
			wantNoContent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.html))
			}))
			defer server.Close()

			extractor := NewHTTPExtractor(5*time.Second, "test-agent")
			res := extractor.Extract(context.Background(), server.URL+"/article")
			assert.True(t, res.Attempted)

			if tt.wantErr {
				require.Error(t, res.Err)
				assert.Empty(t, res.Value.Text)
				assert.Empty(t, res.Value.LeadImage())
				return
			}
			require.NoError(t, res.Err)

			if tt.wantNoContent {
				assert.Empty(t, res.Value.Text)
				assert.Empty(t, res.Value.LeadImage())
				return
			}
			if tt.wantText != "" {
				assert.Contains(t, res.Value.Text, tt.wantText)
			}
			assert.Equal(t, expand(tt.wantMeta, server.URL), res.Value.MetaImage)
			if tt.wantBody != "" {
				assert.Equal(t, expand(tt.wantBody, server.URL), res.Value.BodyImage)
			}
		})
	}
}

func TestHTTPExtractor_InvalidURL(t *testing.T) {
	extractor := NewHTTPExtractor(time.Second, "test-agent")

	res := extractor.Extract(context.Background(), "not a url")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "invalid URL")

	res = extractor.Extract(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, res.Err)
	assert.Empty(t, res.OrZero().Text)
}

func TestHTTPExtractor_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(50*time.Millisecond, "test-agent")
	res := extractor.Extract(context.Background(), server.URL)
	require.Error(t, res.Err)
}

func TestIsJunkImage(t *testing.T) {
	tests := []struct {
		url  string
		junk bool
	}{
		{"", true},
		{"   ", true},
		{"https://sb.scorecardresearch.com/p?c1=2", true},
		{"https://cdn.example.com/tracking/1x1.png", true},
		{"https://cdn.example.com/Site-LOGO.png", true},
		{"https://cdn.example.com/favicon-32.ico", true},
		{"https://cdn.example.com/avatar/123.jpg", true},
		{"https://cdn.example.com/loading.gif", true},
		{"https://cdn.example.com/brand.svg", true},
		{"data:image/png;base64,AAAA", true},
		{"https://variety.com/wp-content/uploads/2025/01/hadestown.jpg", false},
		{"https://upload.wikimedia.org/wikipedia/commons/thumb/a/ab/Walter_Kerr.jpg/800px-Walter_Kerr.jpg", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.junk, IsJunkImage(tt.url), tt.url)
	}
}

func expand(s, serverURL string) string {
	if len(s) >= 8 && s[:8] == "{server}" {
		return serverURL + s[8:]
	}
	return s
}
