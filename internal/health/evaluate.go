// Package health derives the overall freshness verdict from persisted statistics.
package health

import (
	"math"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// MinStaleAfterSeconds is the floor for the staleness threshold.
const MinStaleAfterSeconds = 30

// Verdict is the outcome of Evaluate.
type Verdict struct {
	OK                     bool       `json:"ok"`
	StaleAfterSeconds      int        `json:"stale_after_seconds"`
	EnabledTargets         int        `json:"enabled_targets"`
	LastResultAt           *time.Time `json:"last_result_ts"`
	SecondsSinceLastResult *int       `json:"seconds_since_last_result"`
}

// StaleAfter returns max(30, ceil(maxInterval*1.5)), or 0 when nothing is enabled.
func StaleAfter(enabledTargets, maxIntervalSeconds int) int {
	if enabledTargets <= 0 || maxIntervalSeconds <= 0 {
		return 0
	}
	v := int(math.Ceil(float64(maxIntervalSeconds) * 1.5))
	if v < MinStaleAfterSeconds {
		v = MinStaleAfterSeconds
	}
	return v
}

// Evaluate is not ok only when targets are enabled, a result exists and it is
// older than the threshold. One global threshold covers every target.
func Evaluate(st domain.HealthStats, now time.Time) Verdict {
	v := Verdict{
		OK:                true,
		StaleAfterSeconds: StaleAfter(st.EnabledTargets, st.MaxIntervalSeconds),
		EnabledTargets:    st.EnabledTargets,
		LastResultAt:      st.LastResultAt,
	}
	if st.LastResultAt == nil {
		return v
	}
	age := int(now.Sub(*st.LastResultAt) / time.Second)
	if age < 0 {
		age = 0
	}
	v.SecondsSinceLastResult = &age
	if st.EnabledTargets > 0 && age > v.StaleAfterSeconds {
		v.OK = false
	}
	return v
}
