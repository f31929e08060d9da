package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimemonitor/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the targets file without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		if targetsPath != "" {
			cfg.TargetsPath = targetsPath
		}
		specs, err := config.LoadTargets(cfg.TargetsPath)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTYPE\tADDRESS\tINTERVAL\tTIMEOUT\tENABLED")
		for _, s := range specs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%ds\t%dms\t%t\n", s.Name, s.Kind, s.Address(), s.IntervalSeconds, s.TimeoutMS, s.Enabled)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d targets OK\n", cfg.TargetsPath, len(specs))
		return nil
	},
}
