// Package httpapi serves the read-only query API over the persisted registry and results.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/uptimemonitor/internal/httpapi/middleware"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

type Server struct {
	Logger *zap.Logger
	Query  repo.Query
	Now    func() time.Time
}

func NewServer(l *zap.Logger, q repo.Query) *Server {
	return &Server{Logger: l, Query: q, Now: time.Now}
}

// Router builds the chi router. publicRPM <= 0 disables rate limiting.
func (s *Server) Router(publicRPM, publicBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(apimw.AccessLog(s.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst))

		r.Get("/health", s.handleHealth)
		r.Get("/targets", s.handleListTargets)
		r.Get("/targets/{id}", s.handleGetTarget)
		r.Get("/targets/{id}/results", s.handleTargetResults)
		r.Get("/results/latest", s.handleLatestResults)
		r.Get("/results/latest-by-target", s.handleLatestByTarget)
	})

	return r
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// internalError logs err under event and answers 500 without leaking details.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, event string, err error) {
	s.Logger.Error(event, zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
