package feed

import (
	"encoding/xml"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/stageside/stageside/pkg/domain"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Generator renders the archive as RSS, sitemap and OPML documents
type Generator struct {
	baseURL string
	now     func() time.Time
}

// NewGenerator creates a new generator for the site at baseURL
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// ArticleURL returns the site page of the record
func (g *Generator) ArticleURL(rec domain.ArticleRecord) string {
	return g.baseURL + "/article.html?id=" + url.QueryEscape(Slugify(rec.OriginalTitle))
}

// RSS creates an RSS 2.0 feed of the archive, in archive order
func (g *Generator) RSS(archive domain.Archive) (string, error) {
	items := make([]*RSSItem, 0, len(archive))
	for _, rec := range archive {
		items = append(items, g.rssItem(rec))
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         "StageSide - 공연 & 엔터테인먼트 뉴스",
			Link:          g.baseURL + "/",
			Description:   "Theater and entertainment news in Korean",
			Language:      "ko",
			AtomLink:      &AtomLink{Href: g.baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: g.now().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

func (g *Generator) rssItem(rec domain.ArticleRecord) *RSSItem {
	title := rec.TitleKR
	if title == "" {
		title = rec.OriginalTitle
	}
	item := &RSSItem{
		Title:       title,
		Link:        g.ArticleURL(rec),
		GUID:        rec.Link,
		Description: rec.SummaryKR,
		Source:      rec.Source,
		Categories:  rec.Keywords,
	}
	if d, err := time.Parse("2006-01-02", rec.Date); err == nil {
		item.PubDate = d.Format(time.RFC1123Z)
	} else if !rec.CapturedAt.IsZero() {
		item.PubDate = rec.CapturedAt.Format(time.RFC1123Z)
	}
	if rec.Image != "" {
		item.Enclosure = &RSSEnclosure{URL: rec.Image, Type: imageType(rec.Image)}
	}
	return item
}

// Sitemap creates sitemap.xml listing one article page per record
func (g *Generator) Sitemap(archive domain.Archive) (string, error) {
	set := URLSet{XMLNS: sitemapNS, URLs: make([]SitemapURL, 0, len(archive)+1)}
	set.URLs = append(set.URLs, SitemapURL{Loc: g.baseURL + "/", ChangeFreq: "daily", Priority: "1.0"})
	for _, rec := range archive {
		set.URLs = append(set.URLs, SitemapURL{
			Loc:        g.ArticleURL(rec),
			LastMod:    rec.Date,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	output, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sitemap: %w", err)
	}
	return xml.Header + string(output), nil
}

// OPML creates an OPML document with configured sources
func (g *Generator) OPML(sources []domain.FeedSource) (string, error) {
	type outline struct {
		XMLName  xml.Name `xml:"outline"`
		Text     string   `xml:"text,attr"`
		Title    string   `xml:"title,attr"`
		Type     string   `xml:"type,attr"`
		XMLUrl   string   `xml:"xmlUrl,attr"`
		Category string   `xml:"category,attr,omitempty"`
	}
	type body struct {
		XMLName  xml.Name  `xml:"body"`
		Outlines []outline `xml:"outline"`
	}
	type head struct {
		XMLName     xml.Name `xml:"head"`
		Title       string   `xml:"title"`
		DateCreated string   `xml:"dateCreated"`
	}
	type opml struct {
		XMLName xml.Name `xml:"opml"`
		Version string   `xml:"version,attr"`
		Head    head     `xml:"head"`
		Body    body     `xml:"body"`
	}

	outlines := make([]outline, 0, len(sources))
	for _, src := range sources {
		outlines = append(outlines, outline{
			Text:     src.Name,
			Title:    src.Name,
			Type:     "rss",
			XMLUrl:   src.URL,
			Category: string(src.Tier),
		})
	}

	doc := opml{
		Version: "2.0",
		Head:    head{Title: "StageSide Sources", DateCreated: g.now().Format(time.RFC1123Z)},
		Body:    body{Outlines: outlines},
	}
	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal OPML: %w", err)
	}
	return xml.Header + string(output), nil
}

// Slugify keeps letters, digits and spaces, lowercases, and joins words with dashes
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}

func imageType(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "image/jpeg"
	}
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}
