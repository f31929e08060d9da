package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	targetsCmd.Flags().String("status", "enabled", "enabled, disabled or all")
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List registered targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		resp, err := apiClient().Targets(cmd.Context(), status)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, resp)
		}

		out := cmd.OutOrStdout()
		if len(resp.Body.Items) == 0 {
			fmt.Fprintln(out, styleNotSet.Render("no "+status+" targets"))
			return nil
		}
		fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%d %s targets", len(resp.Body.Items), status)))
		for _, t := range resp.Body.Items {
			fmt.Fprintln(out, styleListItem.Render(targetLine(t)))
		}
		return nil
	},
}
