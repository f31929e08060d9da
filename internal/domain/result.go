package domain

import "time"

// MaxErrorLen bounds the stored error text.
const MaxErrorLen = 500

// ProbeResult is one row of the append-only result log.
type ProbeResult struct {
	ID         int64     `json:"id"`
	TargetID   TargetID  `json:"target_id"`
	TS         time.Time `json:"ts"`
	Success    bool      `json:"success"`
	LatencyMS  *int      `json:"latency_ms"`  // nil on transport failure
	StatusCode *int      `json:"status_code"` // http only
	Error      *string   `json:"error"`       // failures only
}

// Normalize enforces the row invariant: failures carry no latency, successes carry no error.
func (r *ProbeResult) Normalize() {
	if r.Success {
		r.Error = nil
		return
	}
	r.LatencyMS = nil
	if r.Error != nil {
		s := Truncate(*r.Error, MaxErrorLen)
		r.Error = &s
	}
}

// TargetResult is a probe result joined with its target's name.
type TargetResult struct {
	ProbeResult
	TargetName string `json:"target_name"`
}

// LatestForTarget is the most recent result for a target; result fields are nil when none exists.
type LatestForTarget struct {
	TargetID   TargetID   `json:"target_id"`
	TargetName string     `json:"target_name"`
	TS         *time.Time `json:"ts"`
	Success    *bool      `json:"success"`
	LatencyMS  *int       `json:"latency_ms"`
	StatusCode *int       `json:"status_code"`
	Error      *string    `json:"error"`
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
