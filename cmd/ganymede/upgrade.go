package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Zero-downtime restart: replace every worker, then promote the master",
	Long: `Perform a zero-downtime upgrade:

  1. launch one replacement worker per running worker,
  2. soft-stop the old workers and wait for both sets to conclude,
  3. promote the master process.

The drain wait is bounded; on expiry the upgrade aborts, reporting which
launch and stop operations never concluded, and the master is not promoted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			if err := c.Upgrade(); err != nil {
				return err
			}
			fmt.Println("✓ Upgrade complete")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}
