package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/logging"
)

var targetsPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&targetsPath, "targets", "t", "", "targets file (.yaml, .yml or .hcl); defaults to $TARGETS_PATH")
	rootCmd.AddCommand(runCmd, syncCmd, validateCmd)
}

var rootCmd = &cobra.Command{
	Use:           "poller",
	Short:         "Probe configured targets and record every result",
	Long:          "poller reconciles the targets file into the registry and probes each enabled target on its own schedule.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

// setup loads process settings, the logger and the target definitions.
func setup() (config.Config, *zap.Logger, error) {
	cfg := config.FromEnv()
	if targetsPath != "" {
		cfg.TargetsPath = targetsPath
	}
	log, err := logging.NewLogger(cfg.LogDir, "poller.log", cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}
