package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/channel"
	"mercator-hq/ganymede/pkg/command"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/ctl"
)

var (
	// Global flags
	cfgFile    string
	socketPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - reverse proxy control plane",
	Long: `Ganymede is a reverse-proxy control plane. It supervises worker processes,
owns the live routing state (applications, frontends, backends, certificates)
and exposes an administrative control channel over a unix socket.

The same binary runs the supervisor (ganymede run) and drives it
(ganymede status, ganymede application add, ...).

For more information, visit: https://github.com/mercator-hq/ganymede`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "control socket path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// loadConfig reads the configuration file, falling back to pure defaults when
// the file does not exist: client commands work against a default-socket
// supervisor without any file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return nil, err
}

// controlSocket resolves the socket path from the --socket flag or the
// configuration.
func controlSocket() (string, error) {
	if socketPath != "" {
		return socketPath, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Supervisor.CommandSocket, nil
}

// withClient connects to the supervisor and runs fn with a ctl client. Every
// administrative subcommand funnels through here.
func withClient(fn func(*ctl.Client) error) error {
	path, err := controlSocket()
	if err != nil {
		return err
	}

	ch, err := channel.Dial[command.Command, command.Answer](path)
	if err != nil {
		return err
	}
	defer ch.Close()

	return fn(ctl.New(ch))
}

func printTable(w io.Writer, title string, table interface{ WriteTo(io.Writer) error }) error {
	if title != "" {
		fmt.Fprintln(w, title)
	}
	if err := table.WriteTo(w); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}
