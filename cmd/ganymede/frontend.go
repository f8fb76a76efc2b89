package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var frontendFlags struct {
	id          string
	hostname    string
	pathBegin   string
	certificate string
	address     string
	port        uint16
}

var frontendCmd = &cobra.Command{
	Use:   "frontend",
	Short: "Manage HTTP and HTTPS frontends",
}

var frontendAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a frontend (HTTPS when --certificate is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.AddFrontend(frontendFlags.id, frontendFlags.hostname,
				frontendFlags.pathBegin, frontendFlags.certificate)
		})
	},
}

var frontendRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.RemoveFrontend(frontendFlags.id, frontendFlags.hostname,
				frontendFlags.pathBegin, frontendFlags.certificate)
		})
	},
}

var tcpFrontendCmd = &cobra.Command{
	Use:   "tcp-frontend",
	Short: "Manage TCP frontends",
}

var tcpFrontendAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a TCP frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.AddTCPFront(frontendFlags.id, frontendFlags.address, frontendFlags.port)
		})
	},
}

var tcpFrontendRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a TCP frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.RemoveTCPFront(frontendFlags.id, frontendFlags.address, frontendFlags.port)
		})
	},
}

func init() {
	rootCmd.AddCommand(frontendCmd, tcpFrontendCmd)
	frontendCmd.AddCommand(frontendAddCmd, frontendRemoveCmd)
	tcpFrontendCmd.AddCommand(tcpFrontendAddCmd, tcpFrontendRemoveCmd)

	frontendCmd.PersistentFlags().StringVar(&frontendFlags.id, "id", "", "application id")
	frontendCmd.PersistentFlags().StringVar(&frontendFlags.hostname, "hostname", "", "frontend hostname")
	frontendCmd.PersistentFlags().StringVar(&frontendFlags.pathBegin, "path-begin", "", "path prefix to match")
	frontendCmd.PersistentFlags().StringVar(&frontendFlags.certificate, "certificate", "", "certificate file (switches to HTTPS)")
	frontendCmd.MarkPersistentFlagRequired("id")
	frontendCmd.MarkPersistentFlagRequired("hostname")

	tcpFrontendCmd.PersistentFlags().StringVar(&frontendFlags.id, "id", "", "application id")
	tcpFrontendCmd.PersistentFlags().StringVar(&frontendFlags.address, "address", "", "listen IP address")
	tcpFrontendCmd.PersistentFlags().Uint16Var(&frontendFlags.port, "port", 0, "listen port")
	tcpFrontendCmd.MarkPersistentFlagRequired("id")
	tcpFrontendCmd.MarkPersistentFlagRequired("address")
	tcpFrontendCmd.MarkPersistentFlagRequired("port")
}
