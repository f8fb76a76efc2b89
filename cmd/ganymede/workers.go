package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/ctl"
)

var workersFlags struct {
	output string
}

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List worker processes and their run states",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			workers, err := c.ListWorkers()
			if err != nil {
				return err
			}

			if cli.OutputFormat(workersFlags.output) == cli.FormatJSON {
				return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, workers)
			}

			table := cli.NewTable("Worker", "pid", "run state")
			for _, w := range workers {
				table.AddRow(
					strconv.FormatUint(uint64(w.ID), 10),
					strconv.Itoa(w.PID),
					string(w.RunState),
				)
			}
			return table.WriteTo(os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(workersCmd)

	workersCmd.Flags().StringVarP(&workersFlags.output, "output", "o", "text", "output format (text, json)")
}
