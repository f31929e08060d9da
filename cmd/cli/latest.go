package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	latestCmd.Flags().Bool("all", false, "list the newest results across targets instead of one row per target")
	addResultFlags(latestCmd)
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent result of every target",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c := apiClient()

		if all, _ := cmd.Flags().GetBool("all"); all {
			q, err := resultsQuery(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Latest(cmd.Context(), q)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, resp)
			}
			for _, r := range resp.Body.Items {
				fmt.Fprintln(out, styleListItem.Render(resultLine(r.TargetName, r.TS, r.Success, r.LatencyMS, r.StatusCode, r.Error)))
			}
			return nil
		}

		resp, err := c.LatestByTarget(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, resp)
		}
		if len(resp.Body.Items) == 0 {
			fmt.Fprintln(out, styleNotSet.Render("no targets registered"))
			return nil
		}
		for _, it := range resp.Body.Items {
			fmt.Fprintln(out, styleListItem.Render(latestLine(it)))
		}
		return nil
	},
}
