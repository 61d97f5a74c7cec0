// Package reportserver serves stored results: an HTML summary, a JSON API,
// the database file, and Prometheus metrics.
package reportserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stepgrade/internal/metrics"
	"stepgrade/internal/store"
)

// Source is the read side of the results store.
type Source interface {
	Summary(ctx context.Context) ([]store.DifficultySummary, error)
	Problem(ctx context.Context, problemID string) (store.ProblemDetail, error)
	Path() string
}

// Config captures the settings for serving a results report.
type Config struct {
	Addr    string
	Title   string
	Source  Source
	Metrics *metrics.Collector
}

type server struct {
	cfg Config
}

type errResp struct {
	Error string `json:"error"`
}

// NewHandler builds the router for the report UI, API and database file.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Source == nil {
		return nil, errors.New("reportserver: source is required")
	}
	if cfg.Title == "" {
		cfg.Title = "Step Grading Report"
	}
	s := &server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/", s.index)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.summary)
		r.Get("/problems/{problem}", s.problem)
	})
	r.Get("/data/results.db", s.database)
	if cfg.Metrics != nil {
		r.Get("/metrics", s.metrics)
	}
	return r, nil
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	rows, err := s.cfg.Source.Summary(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	templ.Handler(indexPage(s.cfg.Title, rows)).ServeHTTP(w, r)
}

func (s *server) summary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.cfg.Source.Summary(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *server) problem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "problem")
	detail, err := s.cfg.Source.Problem(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	if !detail.Found() {
		writeJSON(w, http.StatusNotFound, errResp{"problem not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// database serves the results file for offline analysis.
func (s *server) database(w http.ResponseWriter, r *http.Request) {
	path := s.cfg.Source.Path()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

// metrics refreshes the store gauges before every scrape.
func (s *server) metrics(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Metrics.Refresh(r.Context(), s.cfg.Source); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.cfg.Metrics.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
