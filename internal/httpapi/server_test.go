package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
)

type brokenStore struct{ *memory.Store }

func (brokenStore) ListTargets(context.Context, repo.TargetStatus) ([]domain.Target, error) {
	return nil, errors.New("relation \"targets\" does not exist")
}

func TestHealthz(t *testing.T) {
	h := NewServer(zap.NewNop(), memory.New()).Router(0, 0)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != 200 || rr.Body.String() != "ok" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestRouter_CORS(t *testing.T) {
	h := NewServer(zap.NewNop(), memory.New()).Router(0, 0)
	req := httptest.NewRequest("GET", "/targets", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("want wildcard origin, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRouter_RateLimitsQueries(t *testing.T) {
	h := NewServer(zap.NewNop(), memory.New()).Router(60, 1)

	do := func(path string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "198.51.100.4:4000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := do("/targets"); code != 200 {
		t.Fatalf("first: want 200, got %d", code)
	}
	if code := do("/targets"); code != 429 {
		t.Fatalf("second: want 429, got %d", code)
	}
	// liveness stays outside the limiter
	if code := do("/healthz"); code != 200 {
		t.Fatalf("healthz: want 200, got %d", code)
	}
}

func TestRouter_StoreErrorIs500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewServer(zap.New(core), brokenStore{memory.New()}).Router(0, 0)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/targets?status=all", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rr.Code)
	}
	if got := logs.FilterMessage("list_targets_error").Len(); got != 1 {
		t.Fatalf("want the error logged once, got %d", got)
	}
}

func TestParseFilter_Defaults(t *testing.T) {
	f, err := parseFilter(httptest.NewRequest("GET", "/results/latest", nil))
	if err != nil {
		t.Fatal(err)
	}
	if f.Limit != repo.DefaultLimit || f.Since != nil || f.Until != nil {
		t.Fatalf("unexpected defaults: %+v", f)
	}

	f, err = parseFilter(httptest.NewRequest("GET", "/results/latest?since=2025-03-01T13:00:00%2B01:00", nil))
	if err != nil {
		t.Fatal(err)
	}
	if f.Since == nil || f.Since.Hour() != 12 || f.Since.Location().String() != "UTC" {
		t.Fatalf("want since normalized to UTC, got %v", f.Since)
	}
}
