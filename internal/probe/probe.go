package probe

import (
	"context"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// CheckResult is the unified outcome of a single probe attempt.
//
// Fields:
//   - LatencyMS: set only when a network round trip completed.
//   - StatusCode: HTTP status when a response arrived; nil for ICMP and transport errors.
//   - Message: failure detail, empty on success.
type CheckResult struct {
	Success    bool
	LatencyMS  *int
	StatusCode *int
	Message    string
}

// Checker performs exactly one attempt against address and never panics or blocks
// much longer than timeout.
type Checker interface {
	Check(ctx context.Context, address string, timeout time.Duration) CheckResult
}

// TimeoutFromMS converts a configured timeout, treating anything below 1ms as 1ms.
func TimeoutFromMS(ms int) time.Duration {
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// DeadlineSeconds rounds timeout up to whole seconds, minimum 1.
func DeadlineSeconds(timeout time.Duration) int {
	secs := int((timeout + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func succeeded(latencyMS int, status *int) CheckResult {
	return CheckResult{Success: true, LatencyMS: &latencyMS, StatusCode: status}
}

func failed(msg string) CheckResult {
	return CheckResult{Success: false, Message: domain.Truncate(msg, domain.MaxErrorLen)}
}
