// Package config loads and validates ganymede's YAML configuration, applies
// environment-variable overrides (GANYMEDE_*), and watches the file for
// changes to the supervisor's mutable settings.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the supervisor and its data plane.
type Config struct {
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// SupervisorConfig configures the supervising process.
type SupervisorConfig struct {
	// CommandSocket is the unix socket path the control channel listens on.
	CommandSocket string `yaml:"command_socket"`

	// StateFile is where state snapshots are saved by default.
	StateFile string `yaml:"state_file"`

	// AutosaveSchedule is a cron expression for periodic state snapshots.
	// Empty disables autosave.
	AutosaveSchedule string `yaml:"autosave_schedule"`

	// AuditDB is the sqlite file recording applied configuration orders.
	// Empty disables the audit log.
	AuditDB string `yaml:"audit_db"`

	// Workers is the number of worker processes to account for.
	Workers int `yaml:"workers"`

	// ConnectTimeout bounds each backend dial attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`
}

// MetricsConfig configures the prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
}

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Supervisor.CommandSocket == "" {
		cfg.Supervisor.CommandSocket = "/run/ganymede/command.sock"
	}
	if cfg.Supervisor.StateFile == "" {
		cfg.Supervisor.StateFile = "/var/lib/ganymede/state.json"
	}
	if cfg.Supervisor.Workers <= 0 {
		cfg.Supervisor.Workers = 1
	}
	if cfg.Supervisor.ConnectTimeout <= 0 {
		cfg.Supervisor.ConnectTimeout = 3 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = "127.0.0.1:9481"
	}
}

// Validate checks the configuration for inconsistencies.
func Validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format: unknown format %q", cfg.Logging.Format)
	}
	if cfg.Supervisor.Workers < 1 {
		return fmt.Errorf("supervisor.workers: must be at least 1, got %d", cfg.Supervisor.Workers)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics.listen_address: required when metrics are enabled")
	}
	return nil
}
