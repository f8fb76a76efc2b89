package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var applicationFlags struct {
	id     string
	sticky bool
}

var applicationCmd = &cobra.Command{
	Use:     "application",
	Aliases: []string{"app"},
	Short:   "Manage applications",
}

var applicationAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.AddApplication(applicationFlags.id, applicationFlags.sticky)
		})
	},
}

var applicationRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an application and everything routed to it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.RemoveApplication(applicationFlags.id)
		})
	},
}

func init() {
	rootCmd.AddCommand(applicationCmd)
	applicationCmd.AddCommand(applicationAddCmd, applicationRemoveCmd)

	applicationCmd.PersistentFlags().StringVar(&applicationFlags.id, "id", "", "application id")
	applicationCmd.MarkPersistentFlagRequired("id")
	applicationAddCmd.Flags().BoolVar(&applicationFlags.sticky, "sticky-session", false, "pin sessions to one backend")
}
