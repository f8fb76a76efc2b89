package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var queryFlags struct {
	id string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the supervisor's configuration",
}

var queryApplicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Print application configurations (all, or one with --id)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.QueryApplications(queryFlags.id)
		})
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryApplicationsCmd)

	queryApplicationsCmd.Flags().StringVar(&queryFlags.id, "id", "", "restrict to one application")
}
