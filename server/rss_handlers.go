package server

import (
	"log"
	"net/http"
)

// rssHandler serves the archive as RSS feed
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	archive, err := s.Archive.Load()
	if err != nil {
		log.Printf("[ERROR] failed to load archive for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	rss, err := s.generator.RSS(archive)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}
	writeXML(w, "application/rss+xml; charset=utf-8", rss)
}

// sitemapHandler serves sitemap.xml with one page per archived record
func (s *Server) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	archive, err := s.Archive.Load()
	if err != nil {
		log.Printf("[ERROR] failed to load archive for sitemap: %v", err)
		http.Error(w, "Failed to generate sitemap", http.StatusInternalServerError)
		return
	}

	sitemap, err := s.generator.Sitemap(archive)
	if err != nil {
		log.Printf("[ERROR] failed to generate sitemap: %v", err)
		http.Error(w, "Failed to generate sitemap", http.StatusInternalServerError)
		return
	}
	writeXML(w, "application/xml; charset=utf-8", sitemap)
}

// opmlHandler lists configured sources
func (s *Server) opmlHandler(w http.ResponseWriter, _ *http.Request) {
	opml, err := s.generator.OPML(s.Sources)
	if err != nil {
		log.Printf("[ERROR] failed to generate OPML: %v", err)
		http.Error(w, "Failed to generate OPML", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="stageside.opml"`)
	writeXML(w, "text/x-opml; charset=utf-8", opml)
}

func writeXML(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("[ERROR] failed to write response: %v", err)
	}
}
