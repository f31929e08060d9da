// Package engine wires reconciliation and the probe loops into one run.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/backoff"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/registry"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/scheduler"
)

// Store is the slice of persistence the engine writes through.
type Store interface {
	repo.Registry
	repo.ResultLog
}

type Engine struct {
	Registry repo.Registry
	Sync     *registry.Synchronizer
	Poller   *scheduler.Poller
	Grace    time.Duration
	Log      *zap.Logger
}

func New(store Store, checkers map[domain.Kind]probe.Checker, grace time.Duration, log *zap.Logger) *Engine {
	return &Engine{
		Registry: store,
		Sync:     registry.NewSynchronizer(store, log),
		Poller:   scheduler.NewPoller(log, store, checkers, backoff.Default()),
		Grace:    grace,
		Log:      log,
	}
}

// Checkers returns the executor per kind. icmpMode "native" sends echo requests
// in-process; anything else shells out to ping.
func Checkers(icmpMode string, privileged bool) map[domain.Kind]probe.Checker {
	var icmp probe.Checker = probe.NewExecPinger()
	if icmpMode == "native" {
		icmp = probe.NewNativePinger(privileged)
	}
	return map[domain.Kind]probe.Checker{
		domain.KindICMP: icmp,
		domain.KindHTTP: probe.NewHTTPChecker(),
	}
}

// Run reconciles specs, then probes every enabled target until ctx is cancelled.
// A sync or registry read failure is returned before any loop starts.
func (e *Engine) Run(ctx context.Context, specs []domain.TargetSpec) error {
	if _, err := e.Sync.Sync(ctx, specs); err != nil {
		return fmt.Errorf("synchronize targets: %w", err)
	}
	targets, err := e.Registry.EnabledTargets(ctx)
	if err != nil {
		return fmt.Errorf("load enabled targets: %w", err)
	}

	e.Log.Info("engine_started", zap.Int("enabled_targets", len(targets)))
	done := e.Poller.Start(ctx, targets)

	<-ctx.Done()
	e.Log.Info("engine_stopping", zap.Duration("grace", e.Grace))

	timer := time.NewTimer(e.Grace)
	defer timer.Stop()
	select {
	case <-done:
		e.Log.Info("engine_stopped")
	case <-timer.C:
		e.Log.Warn("engine_grace_exceeded", zap.String("hint", "abandoning probes still in flight"))
	}
	return nil
}
