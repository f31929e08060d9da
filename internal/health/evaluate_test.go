package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

func ago(now time.Time, secs int) *time.Time {
	t := now.Add(-time.Duration(secs) * time.Second)
	return &t
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		stats     domain.HealthStats
		wantOK    bool
		wantStale int
	}{
		{"no targets", domain.HealthStats{}, true, 0},
		{"no targets but old results", domain.HealthStats{LastResultAt: ago(now, 10000)}, true, 0},
		{"no results yet", domain.HealthStats{EnabledTargets: 3, MaxIntervalSeconds: 10}, true, 30},
		{"short interval clamps to 30 and is stale", domain.HealthStats{EnabledTargets: 1, MaxIntervalSeconds: 10, LastResultAt: ago(now, 100)}, false, 30},
		{"long interval is fresh", domain.HealthStats{EnabledTargets: 1, MaxIntervalSeconds: 40, LastResultAt: ago(now, 10)}, true, 60},
		{"exactly at threshold is fresh", domain.HealthStats{EnabledTargets: 1, MaxIntervalSeconds: 40, LastResultAt: ago(now, 60)}, true, 60},
		{"odd interval rounds up", domain.HealthStats{EnabledTargets: 2, MaxIntervalSeconds: 21, LastResultAt: ago(now, 32)}, true, 32},
		{"one past threshold", domain.HealthStats{EnabledTargets: 2, MaxIntervalSeconds: 21, LastResultAt: ago(now, 33)}, false, 32},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := Evaluate(c.stats, now)
			assert.Equal(t, c.wantOK, v.OK)
			assert.Equal(t, c.wantStale, v.StaleAfterSeconds)
		})
	}
}

func TestEvaluate_ReportsAge(t *testing.T) {
	now := time.Now()
	v := Evaluate(domain.HealthStats{EnabledTargets: 1, MaxIntervalSeconds: 10, LastResultAt: ago(now, 7)}, now)
	require.NotNil(t, v.SecondsSinceLastResult)
	assert.Equal(t, 7, *v.SecondsSinceLastResult)

	v = Evaluate(domain.HealthStats{EnabledTargets: 1, MaxIntervalSeconds: 10}, now)
	assert.Nil(t, v.SecondsSinceLastResult)
}
