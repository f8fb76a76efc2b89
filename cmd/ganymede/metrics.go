package main

import (
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the cross-worker metrics snapshot",
	Long: `Request one metrics snapshot and print it as four tables: master-process
counters, proxy counters (one column per worker), per-application latency
percentiles and per-backend traffic counters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			report, err := c.Metrics()
			if err != nil {
				return err
			}

			if report.Master != nil {
				if err := printTable(os.Stdout, "Master process", report.Master); err != nil {
					return err
				}
			}
			if err := printTable(os.Stdout, "Proxy metrics", report.Proxy); err != nil {
				return err
			}
			if err := printTable(os.Stdout, "Application metrics", report.Applications); err != nil {
				return err
			}
			return printTable(os.Stdout, "Backend metrics", report.Backends)
		})
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
