package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the freshness verdict",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderHealth(resp.Body))
		return nil
	},
}
