// Package server exposes the archive over HTTP: JSON API, RSS, sitemap and OPML, plus the run ledger.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/stageside/stageside/pkg/domain"
	"github.com/stageside/stageside/pkg/feed"
)

//go:generate moq -out mocks/archive.go -pkg mocks -skip-ensure -fmt goimports . Archive
//go:generate moq -out mocks/ledger.go -pkg mocks -skip-ensure -fmt goimports . Ledger
//go:generate moq -out mocks/trigger.go -pkg mocks -skip-ensure -fmt goimports . Trigger

// Archive provides current archive content
type Archive interface {
	Load() (domain.Archive, error)
}

// Ledger provides recorded runs
type Ledger interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	RunOutcomes(ctx context.Context, id string) ([]domain.Outcome, error)
}

// Trigger requests an immediate pipeline run
type Trigger interface {
	RunNow() bool
}

// Params holds server settings and dependencies. Ledger and Trigger may be nil,
// the run trigger endpoint is mounted only with both Trigger and AdminToken set.
type Params struct {
	Listen     string
	Timeout    time.Duration
	BaseURL    string
	AdminToken string
	Sources    []domain.FeedSource
	Archive    Archive
	Ledger     Ledger
	Trigger    Trigger
	Version    string
	Debug      bool
}

// Server represents HTTP server instance
type Server struct {
	Params
	generator *feed.Generator

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(p Params) *Server {
	s := &Server{
		Params:    p,
		generator: feed.NewGenerator(p.BaseURL),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.Timeout,
		WriteTimeout:      s.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// ServeHTTP makes the server usable as a handler in tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("stageside", "stageside", s.Version))
	s.router.Use(rest.Ping)

	if s.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024))
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /articles", s.articlesHandler)
		r.HandleFunc("GET /articles/{slug}", s.articleHandler)
		r.HandleFunc("GET /runs", s.runsHandler)
		r.HandleFunc("GET /runs/{id}", s.runHandler)
		if s.Trigger != nil && s.AdminToken != "" {
			r.With(s.tokenAuth).HandleFunc("POST /run", s.triggerHandler)
		}
	})

	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.HandleFunc("GET /sitemap.xml", s.sitemapHandler)
	s.router.HandleFunc("GET /opml", s.opmlHandler)
}

// tokenAuth checks bearer token of admin requests
func (s *Server) tokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminToken)) != 1 {
			renderError(w, r, errors.New("unauthorized"), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// renderJSON sends JSON response with status code, HTML in record fields is kept unescaped
func renderJSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := rest.RenderJSONWithHTML(w, r, data); err != nil {
		log.Printf("[ERROR] can't send JSON response: %v", err)
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
