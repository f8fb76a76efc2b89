package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/ctl"
)

var certificateFlags struct {
	certificate string
	chain       string
	key         string
}

var certificateCmd = &cobra.Command{
	Use:     "certificate",
	Aliases: []string{"cert"},
	Short:   "Manage TLS certificates",
}

var certificateAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Install a certificate bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.AddCertificate(certificateFlags.certificate,
				certificateFlags.chain, certificateFlags.key)
		})
	},
}

var certificateRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the certificate matching a certificate file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ctl.Client) error {
			return c.RemoveCertificate(certificateFlags.certificate)
		})
	},
}

func init() {
	rootCmd.AddCommand(certificateCmd)
	certificateCmd.AddCommand(certificateAddCmd, certificateRemoveCmd)

	certificateCmd.PersistentFlags().StringVar(&certificateFlags.certificate, "certificate", "", "certificate PEM file")
	certificateCmd.MarkPersistentFlagRequired("certificate")
	certificateAddCmd.Flags().StringVar(&certificateFlags.chain, "certificate-chain", "", "certificate chain PEM file")
	certificateAddCmd.Flags().StringVar(&certificateFlags.key, "key", "", "private key PEM file")
	certificateAddCmd.MarkFlagRequired("certificate-chain")
	certificateAddCmd.MarkFlagRequired("key")
}
