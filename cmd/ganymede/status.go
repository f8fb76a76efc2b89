package main

import (
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll every running worker and report liveness",
	Long: `Poll every running worker with a status probe and print a table joining the
full worker list against the collected answers. The wait is bounded: workers
that do not answer in time are reported as "timeout".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			table, err := c.Status()
			if err != nil {
				return err
			}
			return table.WriteTo(os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
