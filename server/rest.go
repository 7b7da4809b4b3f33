package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/stageside/stageside/pkg/domain"
	"github.com/stageside/stageside/pkg/feed"
	"github.com/stageside/stageside/pkg/repository"
)

const (
	defaultArticlesLimit = 50
	maxArticlesLimit     = 500
	defaultRunsLimit     = 20
)

// statusHandler returns server status with archive size and the latest run
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.Version,
		"time":    time.Now().UTC(),
	}

	if archive, err := s.Archive.Load(); err != nil {
		log.Printf("[WARN] failed to load archive for status: %v", err)
		status["status"] = "degraded"
	} else {
		status["articles"] = len(archive)
	}

	if s.Ledger != nil {
		runs, err := s.Ledger.ListRuns(r.Context(), 1)
		switch {
		case err != nil:
			log.Printf("[WARN] failed to get last run: %v", err)
		case len(runs) > 0:
			status["last_run"] = runs[0]
		}
	}
	renderJSON(w, r, http.StatusOK, status)
}

// articlesHandler returns archive records, optionally filtered by tier and source.
// GET /api/v1/articles?tier=major&source=Playbill&limit=20&offset=0
func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	archive, err := s.Archive.Load()
	if err != nil {
		log.Printf("[ERROR] failed to load archive: %v", err)
		renderError(w, r, errors.New("failed to load archive"), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	tier, source := domain.Tier(q.Get("tier")), q.Get("source")
	limit := queryInt(r, "limit", defaultArticlesLimit)
	if limit <= 0 || limit > maxArticlesLimit {
		limit = maxArticlesLimit
	}
	offset := max(queryInt(r, "offset", 0), 0)

	res := make([]domain.ArticleRecord, 0, limit)
	skipped := 0
	for _, rec := range archive {
		if tier != "" && rec.Tier != tier {
			continue
		}
		if source != "" && rec.Source != source {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(res) == limit {
			break
		}
		res = append(res, rec)
	}
	renderJSON(w, r, http.StatusOK, res)
}

// articleHandler returns a single record by its page slug
func (s *Server) articleHandler(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	archive, err := s.Archive.Load()
	if err != nil {
		log.Printf("[ERROR] failed to load archive: %v", err)
		renderError(w, r, errors.New("failed to load archive"), http.StatusInternalServerError)
		return
	}
	for _, rec := range archive {
		if feed.Slugify(rec.OriginalTitle) == slug {
			renderJSON(w, r, http.StatusOK, rec)
			return
		}
	}
	renderError(w, r, errors.New("article not found"), http.StatusNotFound)
}

// runsHandler returns the latest recorded runs
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	if s.Ledger == nil {
		renderError(w, r, errors.New("run ledger is not enabled"), http.StatusNotFound)
		return
	}
	runs, err := s.Ledger.ListRuns(r.Context(), queryInt(r, "limit", defaultRunsLimit))
	if err != nil {
		log.Printf("[ERROR] failed to list runs: %v", err)
		renderError(w, r, errors.New("failed to list runs"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, runs)
}

// runHandler returns a run with outcomes of all its entries
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	if s.Ledger == nil {
		renderError(w, r, errors.New("run ledger is not enabled"), http.StatusNotFound)
		return
	}
	id := r.PathValue("id")
	run, err := s.Ledger.GetRun(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		renderError(w, r, errors.New("run not found"), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to get run %s: %v", id, err)
		renderError(w, r, errors.New("failed to get run"), http.StatusInternalServerError)
		return
	}
	outcomes, err := s.Ledger.RunOutcomes(r.Context(), id)
	if err != nil {
		log.Printf("[ERROR] failed to get outcomes of run %s: %v", id, err)
		renderError(w, r, errors.New("failed to get run outcomes"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]any{"run": run, "outcomes": outcomes})
}

// triggerHandler requests an immediate ingest run
func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	if !s.Trigger.RunNow() {
		renderJSON(w, r, http.StatusConflict, map[string]string{"status": "already requested"})
		return
	}
	renderJSON(w, r, http.StatusAccepted, map[string]string{"status": "requested"})
}

// queryInt returns integer query parameter or def if missing or malformed
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
