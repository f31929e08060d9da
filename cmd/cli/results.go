package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimemonitor/internal/client"
	"github.com/hamed0406/uptimemonitor/internal/domain"
)

func init() {
	addResultFlags(resultsCmd)
}

func addResultFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum rows (server default 200, max 1000)")
	cmd.Flags().String("since", "", "only results at or after this RFC3339 time")
	cmd.Flags().String("until", "", "only results at or before this RFC3339 time")
}

func resultsQuery(cmd *cobra.Command) (client.ResultsQuery, error) {
	var q client.ResultsQuery
	q.Limit, _ = cmd.Flags().GetInt("limit")
	for _, f := range []struct {
		name string
		dst  *time.Time
	}{{"since", &q.Since}, {"until", &q.Until}} {
		raw, _ := cmd.Flags().GetString(f.name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = ts
	}
	return q, nil
}

var resultsCmd = &cobra.Command{
	Use:   "results <target-id>",
	Short: "Show probe results for one target, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := resultsQuery(cmd)
		if err != nil {
			return err
		}
		resp, err := apiClient().Results(cmd.Context(), domain.TargetID(args[0]), q)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, resp)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%s: %d results", resp.Body.TargetName, len(resp.Body.Items))))
		for _, r := range resp.Body.Items {
			fmt.Fprintln(out, styleListItem.Render(resultLine("", r.TS, r.Success, r.LatencyMS, r.StatusCode, r.Error)))
		}
		return nil
	},
}
