package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Save, load or dump the supervisor state",
}

var stateSaveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Persist the routing state to a file on the supervisor's host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.SaveState(args[0])
		})
	},
}

var stateLoadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Replace the routing state from a saved file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.LoadState(args[0])
		})
	},
}

var stateDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the current routing state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.DumpState()
		})
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateSaveCmd, stateLoadCmd, stateDumpCmd)
}
