package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/health"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

const dbPingTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	GeneratedAt time.Time        `json:"generated_at"`
	OK          bool             `json:"ok"`
	DB          bool             `json:"db"`
	Thresholds  HealthThresholds `json:"thresholds"`
	Stats       HealthStats      `json:"stats"`
}

type HealthThresholds struct {
	StaleAfterSeconds int `json:"stale_after_seconds"`
}

type HealthStats struct {
	EnabledTargets         int        `json:"enabled_targets"`
	LastResultTS           *time.Time `json:"last_result_ts"`
	SecondsSinceLastResult *int       `json:"seconds_since_last_result"`
}

type TargetListResponse struct {
	Items []domain.Target `json:"items"`
}

type TargetResultsResponse struct {
	TargetID    domain.TargetID      `json:"target_id"`
	TargetName  string               `json:"target_name"`
	GeneratedAt time.Time            `json:"generated_at"`
	Items       []domain.ProbeResult `json:"items"`
}

type LatestResultsResponse struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Items       []domain.TargetResult `json:"items"`
}

type LatestByTargetResponse struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Items       []domain.LatestForTarget `json:"items"`
}

// handleHealth always answers 200; callers read ok and db from the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	resp := HealthResponse{GeneratedAt: now}

	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()

	if err := s.Query.Ping(ctx); err != nil {
		s.Logger.Warn("health_db_down", zap.Error(err))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	st, err := s.Query.HealthStats(ctx)
	if err != nil {
		s.Logger.Warn("health_stats_error", zap.Error(err))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	v := health.Evaluate(st, now)
	resp.OK = v.OK
	resp.DB = true
	resp.Thresholds.StaleAfterSeconds = v.StaleAfterSeconds
	resp.Stats = HealthStats{
		EnabledTargets:         v.EnabledTargets,
		LastResultTS:           v.LastResultAt,
		SecondsSinceLastResult: v.SecondsSinceLastResult,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	status, ok := repo.ParseTargetStatus(r.URL.Query().Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "status must be one of enabled, disabled, all")
		return
	}
	ts, err := s.Query.ListTargets(r.Context(), status)
	if err != nil {
		s.internalError(w, r, "list_targets_error", err)
		return
	}
	if ts == nil {
		ts = []domain.Target{}
	}
	writeJSON(w, http.StatusOK, TargetListResponse{Items: ts})
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookupTarget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTargetResults(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := s.lookupTarget(w, r)
	if !ok {
		return
	}
	items, err := s.Query.ResultsForTarget(r.Context(), t.ID, f)
	if err != nil {
		s.internalError(w, r, "target_results_error", err)
		return
	}
	if items == nil {
		items = []domain.ProbeResult{}
	}
	writeJSON(w, http.StatusOK, TargetResultsResponse{
		TargetID:    t.ID,
		TargetName:  t.Name,
		GeneratedAt: s.now(),
		Items:       items,
	})
}

func (s *Server) handleLatestResults(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := s.Query.LatestResults(r.Context(), f)
	if err != nil {
		s.internalError(w, r, "latest_results_error", err)
		return
	}
	if items == nil {
		items = []domain.TargetResult{}
	}
	writeJSON(w, http.StatusOK, LatestResultsResponse{GeneratedAt: s.now(), Items: items})
}

func (s *Server) handleLatestByTarget(w http.ResponseWriter, r *http.Request) {
	items, err := s.Query.LatestByTarget(r.Context())
	if err != nil {
		s.internalError(w, r, "latest_by_target_error", err)
		return
	}
	if items == nil {
		items = []domain.LatestForTarget{}
	}
	writeJSON(w, http.StatusOK, LatestByTargetResponse{GeneratedAt: s.now(), Items: items})
}

// lookupTarget resolves {id} and writes a 404 or 500 itself when it can't.
func (s *Server) lookupTarget(w http.ResponseWriter, r *http.Request) (*domain.Target, bool) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	t, err := s.Query.GetTarget(r.Context(), id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "target not found")
		return nil, false
	case err != nil:
		s.internalError(w, r, "get_target_error", err)
		return nil, false
	}
	return t, true
}

// parseFilter reads since/until (RFC3339) and limit (1..MaxLimit) from the query string.
func parseFilter(r *http.Request) (repo.ResultFilter, error) {
	q := r.URL.Query()
	var f repo.ResultFilter

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &f.Since}, {"until", &f.Until}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, fmt.Errorf("%s must be an RFC3339 timestamp", p.name)
		}
		ts = ts.UTC()
		*p.dst = &ts
	}
	if f.Since != nil && f.Until != nil && f.Since.After(*f.Until) {
		return f, errors.New("since must not be after until")
	}

	f.Limit = repo.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > repo.MaxLimit {
			return f, fmt.Errorf("limit must be an integer between 1 and %d", repo.MaxLimit)
		}
		f.Limit = n
	}
	return f, nil
}
