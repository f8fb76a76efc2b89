package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var stopFlags struct {
	hard bool
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the proxy (drain by default, --hard for immediate)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			if stopFlags.hard {
				return c.HardStop()
			}
			return c.SoftStop()
		})
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().BoolVar(&stopFlags.hard, "hard", false, "stop immediately without draining sessions")
}
