package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimemonitor/internal/client"
)

var (
	apiBase    string
	jsonOutput bool
	noColor    bool
)

func init() {
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", def, "query API base URL (env API_BASE)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "print the raw API response as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored JSON output")

	rootCmd.AddCommand(healthCmd, targetsCmd, resultsCmd, latestCmd)
}

var rootCmd = &cobra.Command{
	Use:           "uptimectl",
	Short:         "Query the uptime monitor",
	Long:          "uptimectl reads targets, probe results and the freshness verdict from the uptime monitor query API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func apiClient() *client.Client {
	return client.New(apiBase)
}

type printer interface {
	Print(w io.Writer, color bool) error
}

// printJSON is the --json path shared by every command.
func printJSON(cmd *cobra.Command, p printer) error {
	return p.Print(cmd.OutOrStdout(), !noColor)
}
