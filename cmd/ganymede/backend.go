package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var backendFlags struct {
	id         string
	instanceID string
	address    string
	port       uint16
}

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Manage backend instances",
}

var backendAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a backend instance for an application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.AddBackend(backendFlags.id, backendFlags.instanceID,
				backendFlags.address, backendFlags.port)
		})
	},
}

var backendRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Drain and remove a backend instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.RemoveBackend(backendFlags.id, backendFlags.instanceID,
				backendFlags.address, backendFlags.port)
		})
	},
}

func init() {
	rootCmd.AddCommand(backendCmd)
	backendCmd.AddCommand(backendAddCmd, backendRemoveCmd)

	backendCmd.PersistentFlags().StringVar(&backendFlags.id, "id", "", "application id")
	backendCmd.PersistentFlags().StringVar(&backendFlags.instanceID, "instance-id", "", "backend instance id")
	backendCmd.PersistentFlags().StringVar(&backendFlags.address, "address", "", "backend IP address")
	backendCmd.PersistentFlags().Uint16Var(&backendFlags.port, "port", 0, "backend port")
	backendCmd.MarkPersistentFlagRequired("id")
	backendCmd.MarkPersistentFlagRequired("instance-id")
	backendCmd.MarkPersistentFlagRequired("address")
	backendCmd.MarkPersistentFlagRequired("port")
}
