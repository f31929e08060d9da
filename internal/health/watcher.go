package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/notify"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

// AlertKey is the alert_state row the watcher owns.
const AlertKey = "freshness"

type StatsSource interface {
	HealthStats(ctx context.Context) (domain.HealthStats, error)
}

type WatcherConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Watcher polls the freshness verdict and notifies when it flips.
type Watcher struct {
	stats    StatsSource
	alerts   repo.AlertStore
	notifier notify.Notifier
	cfg      WatcherConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewWatcher(
	stats StatsSource,
	alerts repo.AlertStore,
	notifier notify.Notifier,
	cfg WatcherConfig,
	log *zap.Logger,
) *Watcher {
	return &Watcher{
		stats:    stats,
		alerts:   alerts,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.PollInterval <= 0 {
		w.log.Info("health_watcher_disabled")
		return nil
	}
	t := time.NewTicker(w.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	if err := w.scanOnce(ctx); err != nil {
		w.log.Warn("health_watcher_scan_error", zap.Error(err))
	}
}

func (w *Watcher) scanOnce(ctx context.Context) error {
	now := w.now().UTC()

	var (
		v      Verdict
		reason string
	)
	st, err := w.stats.HealthStats(ctx)
	if err != nil {
		v = Verdict{OK: false}
		reason = "store unavailable: " + err.Error()
	} else {
		v = Evaluate(st, now)
		if !v.OK {
			reason = fmt.Sprintf("no result for %ds (threshold %ds)", *v.SecondsSinceLastResult, v.StaleAfterSeconds)
		}
	}

	rec, err := w.alerts.GetAlert(ctx, AlertKey)
	if err != nil {
		return fmt.Errorf("load alert state: %w", err)
	}

	stateChanged := rec == nil || rec.LastOK != v.OK

	// Cooldown only matters for stale alerts (suppresses flapping).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= w.cfg.Cooldown
	}

	staleAlert := stateChanged && !v.OK && cooled
	// A first observation that is already ok has nothing to recover from.
	recoveryAlert := rec != nil && stateChanged && v.OK && w.cfg.AlertOnRecovery

	if staleAlert || recoveryAlert {
		title := "Probe results stale"
		if v.OK {
			title = "Probe results fresh again"
		}
		if err := w.notifier.Send(ctx, title, describe(v, reason)); err != nil {
			w.log.Warn("health_notify_error", zap.Error(err))
		}
		w.log.Info("health_verdict_changed", zap.Bool("ok", v.OK), zap.String("reason", reason))
		return w.alerts.SetAlert(ctx, AlertKey, v.OK, now)
	}

	// State changed without a send (inside cooldown, recovery alerts off, or first run):
	// still record it so the next flip is detected.
	if stateChanged {
		return w.alerts.SetAlert(ctx, AlertKey, v.OK, time.Time{})
	}
	return nil
}

func describe(v Verdict, reason string) string {
	last := "never"
	if v.LastResultAt != nil {
		last = v.LastResultAt.Format(time.RFC3339)
		if v.SecondsSinceLastResult != nil {
			last += fmt.Sprintf(" (%ds ago)", *v.SecondsSinceLastResult)
		}
	}
	text := fmt.Sprintf("Enabled targets: %d\nLast result: %s\nStale after: %ds",
		v.EnabledTargets, last, v.StaleAfterSeconds)
	if reason != "" {
		text += "\nReason: " + reason
	}
	return text
}
