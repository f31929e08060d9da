package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/backoff"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

// slowRatio marks a successful probe as slow once latency passes this share of the timeout.
const slowRatio = 0.8

// Poller runs one independent probe loop per target.
type Poller struct {
	Logger   *zap.Logger
	Results  repo.ResultLog
	Checkers map[domain.Kind]probe.Checker
	Backoff  backoff.Policy
	Now      func() time.Time
	// Wait sleeps for d or until ctx is done; it reports false when ctx ended first.
	Wait func(ctx context.Context, d time.Duration) bool
}

func NewPoller(
	logger *zap.Logger,
	results repo.ResultLog,
	checkers map[domain.Kind]probe.Checker,
	policy backoff.Policy,
) *Poller {
	return &Poller{
		Logger:   logger,
		Results:  results,
		Checkers: checkers,
		Backoff:  policy,
		Now:      time.Now,
		Wait:     waitTimer,
	}
}

// Start launches a loop per target and returns a channel closed once every loop
// has returned. Loops stop when ctx is cancelled.
func (p *Poller) Start(ctx context.Context, targets []domain.Target) <-chan struct{} {
	done := make(chan struct{})
	if len(targets) == 0 {
		p.Logger.Warn("no_enabled_targets", zap.String("hint", "parking until shutdown"))
		go func() {
			<-ctx.Done()
			close(done)
		}()
		return done
	}

	var wg sync.WaitGroup
	for _, t := range targets {
		chk, ok := p.Checkers[t.Kind]
		if !ok {
			p.Logger.Error("poll_loop_skipped",
				zap.String("target", t.Name),
				zap.String("type", string(t.Kind)),
				zap.String("reason", "no executor for type"),
			)
			continue
		}
		wg.Add(1)
		go func(t domain.Target, chk probe.Checker) {
			defer wg.Done()
			p.loop(ctx, t, chk)
		}(t, chk)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// Run is Start followed by waiting for every loop to finish.
func (p *Poller) Run(ctx context.Context, targets []domain.Target) {
	<-p.Start(ctx, targets)
}

func (p *Poller) loop(ctx context.Context, t domain.Target, chk probe.Checker) {
	log := p.Logger.With(
		zap.String("target", t.Name),
		zap.String("target_id", string(t.ID)),
		zap.String("type", string(t.Kind)),
	)
	log.Info("poll_loop_started", zap.Int("interval_seconds", t.IntervalSeconds), zap.Int("timeout_ms", t.TimeoutMS))
	defer log.Info("poll_loop_stopped")

	timeout := probe.TimeoutFromMS(t.TimeoutMS)
	multiplier := 1
	for {
		success := p.attempt(ctx, log, t, chk, timeout)
		if ctx.Err() != nil {
			return
		}
		multiplier = p.Backoff.Next(multiplier, success)
		if !p.Wait(ctx, p.Backoff.Sleep(t.Interval(), multiplier)) {
			return
		}
	}
}

// attempt runs one probe and records it. A panic from the executor or from
// result handling is logged and counts as a failed attempt.
func (p *Poller) attempt(ctx context.Context, log *zap.Logger, t domain.Target, chk probe.Checker, timeout time.Duration) (success bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("probe_panic", zap.Any("panic", rec), zap.Stack("stack"))
			success = false
		}
	}()

	ts := p.Now().UTC()
	out := chk.Check(ctx, t.Address(), timeout)
	if ctx.Err() != nil {
		// Shutdown mid-probe: the outcome is not trustworthy, drop it.
		log.Debug("probe_abandoned")
		return out.Success
	}

	res := toResult(t.ID, ts, out)
	switch {
	case !out.Success:
		log.Info("probe_failed", zap.String("error", out.Message))
	case out.LatencyMS != nil && float64(*out.LatencyMS) > slowRatio*float64(t.TimeoutMS):
		log.Warn("probe_slow", zap.Int("latency_ms", *out.LatencyMS), zap.Int("timeout_ms", t.TimeoutMS))
	default:
		fields := []zap.Field{zap.Intp("latency_ms", out.LatencyMS)}
		if out.StatusCode != nil {
			fields = append(fields, zap.Int("status", *out.StatusCode))
		}
		log.Debug("probe_ok", fields...)
	}

	if err := p.Results.AppendResult(ctx, &res); err != nil {
		log.Warn("result_append_error", zap.Time("ts", ts), zap.Bool("success", out.Success), zap.Error(err))
	}
	return out.Success
}

func toResult(id domain.TargetID, ts time.Time, out probe.CheckResult) domain.ProbeResult {
	r := domain.ProbeResult{
		TargetID:   id,
		TS:         ts,
		Success:    out.Success,
		LatencyMS:  out.LatencyMS,
		StatusCode: out.StatusCode,
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "probe failed"
		}
		r.Error = &msg
	}
	r.Normalize()
	return r
}

func waitTimer(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
