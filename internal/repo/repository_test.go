package repo_test

import (
	"testing"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
	pg "github.com/hamed0406/uptimemonitor/internal/repo/postgres"
	"github.com/hamed0406/uptimemonitor/internal/repo/sqlite"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.Store = memory.New()
	var _ repo.Store = (*pg.Store)(nil)
	var _ repo.Store = (*sqlite.Store)(nil)
}

func TestParseTargetStatus(t *testing.T) {
	cases := map[string]repo.TargetStatus{
		"":         repo.StatusEnabled,
		"enabled":  repo.StatusEnabled,
		"disabled": repo.StatusDisabled,
		"all":      repo.StatusAll,
	}
	for in, want := range cases {
		got, ok := repo.ParseTargetStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseTargetStatus(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := repo.ParseTargetStatus("paused"); ok {
		t.Fatalf("unknown status should be rejected")
	}
	if !repo.StatusAll.Matches(false) || repo.StatusEnabled.Matches(false) || !repo.StatusDisabled.Matches(false) {
		t.Fatalf("Matches mismatch")
	}
}

func TestResultFilter(t *testing.T) {
	if got := (repo.ResultFilter{}).EffectiveLimit(); got != repo.DefaultLimit {
		t.Fatalf("default limit = %d", got)
	}
	if got := (repo.ResultFilter{Limit: 5000}).EffectiveLimit(); got != repo.MaxLimit {
		t.Fatalf("max limit = %d", got)
	}
	now := time.Now()
	since, until := now.Add(-time.Minute), now
	f := repo.ResultFilter{Since: &since, Until: &until}
	if !f.Contains(now) || !f.Contains(since) {
		t.Fatalf("bounds are inclusive")
	}
	if f.Contains(now.Add(time.Second)) || f.Contains(since.Add(-time.Second)) {
		t.Fatalf("outside window should be excluded")
	}
}
