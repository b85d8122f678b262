// Package rest exposes the work-log workflow over a local HTTP API consumed
// by the desktop UI.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"worklogd/internal/cache"
	"worklogd/internal/excel"
	"worklogd/internal/jira"
	"worklogd/internal/worklog"
)

// Server wires the HTTP routes to the domain services.
type Server struct {
	router       chi.Router
	jira         jira.Client
	cache        *cache.Service
	orchestrator *worklog.Orchestrator
	excel        *excel.Reader
	version      string
}

// NewServer creates the HTTP server around the given services.
func NewServer(jiraClient jira.Client, cacheSvc *cache.Service, orch *worklog.Orchestrator, reader *excel.Reader, version string) *Server {
	s := &Server{
		jira:         jiraClient,
		cache:        cacheSvc,
		orchestrator: orch,
		excel:        reader,
		version:      version,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", s.health)

	r.Route("/jira", func(r chi.Router) {
		r.Get("/tasks", s.getTasks)
		r.Get("/tasks/{key}", s.getTask)
		r.Post("/log-work", s.logWork)
		r.Post("/log-work-bulk", s.logWorkBulk)
		r.Post("/log-work-individual", s.logWorkIndividual)
		r.Get("/transitions/common", s.commonTransitions)
		r.Get("/transitions/{key}", s.getTransitions)
		r.Post("/transition", s.transition)
		r.Get("/cache/info", s.cacheInfo)
		r.Post("/cache/clear", s.cacheClear)
	})

	r.Route("/excel", func(r chi.Router) {
		r.Post("/get-entry", s.excelEntry)
		r.Post("/parse-tasks", s.parseTasks)
		r.Post("/parse-from-excel", s.parseFromExcel)
		r.Get("/columns", s.excelColumns)
	})

	s.router = r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.version,
	})
}

// requestLogger logs each request through the global zerolog logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes the FastAPI-style error envelope the UI expects.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeJiraError maps a Jira client error to its carried status code.
func writeJiraError(w http.ResponseWriter, err error) {
	writeError(w, jira.StatusCode(err), err.Error())
}
