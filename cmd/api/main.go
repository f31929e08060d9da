package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/health"
	"github.com/hamed0406/uptimemonitor/internal/httpapi"
	"github.com/hamed0406/uptimemonitor/internal/logging"
	"github.com/hamed0406/uptimemonitor/internal/notify"
	"github.com/hamed0406/uptimemonitor/internal/repo/stores"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, "api.log", cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("api_failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := stores.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier := notify.Multi{notify.Log{Logger: logger}}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifier = append(notifier, slack)
	}
	watcher := health.NewWatcher(store, store, notifier, health.WatcherConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		Cooldown:        cfg.AlertCooldown,
		PollInterval:    cfg.HealthPoll,
	}, logger)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("health_watcher_stopped", zap.Error(err))
		}
	}()

	api := httpapi.NewServer(logger, store)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.PublicRPM, cfg.PublicBurst),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.String("store", stores.Kind(cfg.DatabaseURL)))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stop()
		<-watchDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("api_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}
	<-watchDone
	return nil
}
