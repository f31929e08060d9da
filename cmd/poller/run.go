package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/engine"
	"github.com/hamed0406/uptimemonitor/internal/repo/stores"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize targets and start probing (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		specs, err := config.LoadTargets(cfg.TargetsPath)
		if err != nil {
			log.Error("targets_invalid", zap.String("path", cfg.TargetsPath), zap.Error(err))
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := stores.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("store_open_error", zap.Error(err))
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("store_close_error", zap.Error(err))
			}
		}()

		log.Info("poller_starting",
			zap.String("targets_path", cfg.TargetsPath),
			zap.Int("targets", len(specs)),
			zap.String("store", stores.Kind(cfg.DatabaseURL)),
			zap.String("icmp_mode", cfg.ICMPMode),
		)
		eng := engine.New(store, engine.Checkers(cfg.ICMPMode, cfg.ICMPPrivilege), cfg.ShutdownGrace, log)
		if err := eng.Run(ctx, specs); err != nil {
			log.Error("poller_failed", zap.Error(err))
			return err
		}
		log.Info("poller_stopped")
		return nil
	},
}
