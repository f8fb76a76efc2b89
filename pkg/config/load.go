package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// GANYMEDE_* environment variable overrides. Environment variables always
// take precedence over file-based configuration.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GANYMEDE_COMMAND_SOCKET"); val != "" {
		cfg.Supervisor.CommandSocket = val
	}
	if val := os.Getenv("GANYMEDE_STATE_FILE"); val != "" {
		cfg.Supervisor.StateFile = val
	}
	if val := os.Getenv("GANYMEDE_AUTOSAVE_SCHEDULE"); val != "" {
		cfg.Supervisor.AutosaveSchedule = val
	}
	if val := os.Getenv("GANYMEDE_AUDIT_DB"); val != "" {
		cfg.Supervisor.AuditDB = val
	}
	if val := os.Getenv("GANYMEDE_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Supervisor.Workers = n
		}
	}
	if val := os.Getenv("GANYMEDE_CONNECT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Supervisor.ConnectTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_METRICS_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
}
