package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var loggingCmd = &cobra.Command{
	Use:   "logging <filter>",
	Short: "Change the supervisor's logging filter at runtime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.LoggingFilter(args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(loggingCmd)
}
