package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/registry"
	"github.com/hamed0406/uptimemonitor/internal/repo/stores"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the targets file into the registry once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		specs, err := config.LoadTargets(cfg.TargetsPath)
		if err != nil {
			return err
		}
		ctx := context.Background()
		store, err := stores.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer store.Close()

		rep, err := registry.NewSynchronizer(store, log).Sync(ctx, specs)
		if err != nil {
			return fmt.Errorf("synchronize targets: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, line := range []struct {
			label string
			names []string
		}{
			{"inserted", rep.Inserted},
			{"updated", rep.Updated},
			{"unchanged", rep.Unchanged},
			{"disabled", rep.Disabled},
		} {
			fmt.Fprintf(out, "%-9s %d %s\n", line.label, len(line.names), strings.Join(line.names, ","))
		}
		if !rep.Changed() {
			log.Info("registry_already_in_sync", zap.Int("targets", len(specs)))
		}
		return nil
	},
}
