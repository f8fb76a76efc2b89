package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/supervisor"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	workers  int
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Ganymede supervisor",
	Long: `Start the supervising process: spawn the configured workers, restore the
saved routing state if present, and serve the administrative control channel
on the configured unix socket.

Examples:
  # Start with default config
  ganymede run

  # Start with custom config
  ganymede run --config /etc/ganymede/config.yaml

  # Override worker count
  ganymede run --workers 4

  # Validate config without starting
  ganymede run --dry-run`,
	RunE: runSupervisor,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().IntVar(&runFlags.workers, "workers", 0, "override worker count")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if runFlags.workers > 0 {
		cfg.Supervisor.Workers = runFlags.workers
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewCommandError("run", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	logger, err := logging.New(cfg.Logging, nil)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Printf("Ganymede v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	state := supervisor.NewState(cfg.Supervisor.ConnectTimeout)
	if _, err := os.Stat(cfg.Supervisor.StateFile); err == nil {
		if err := state.Load(cfg.Supervisor.StateFile); err != nil {
			logger.Warn("could not restore saved state, starting empty",
				"path", cfg.Supervisor.StateFile, "error", err)
		} else {
			logger.Info("state restored", "path", cfg.Supervisor.StateFile)
		}
	}

	registry := supervisor.NewRegistry(workerLauncher(logger))
	if err := registry.Spawn(cfg.Supervisor.Workers); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Printf("✓ Workers launched (%d)\n", cfg.Supervisor.Workers)

	var audit *supervisor.AuditLog
	if cfg.Supervisor.AuditDB != "" {
		audit, err = supervisor.OpenAuditLog(cfg.Supervisor.AuditDB)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer audit.Close()
		fmt.Println("✓ Audit log opened")
	}

	ctx := cli.SetupSignalHandler()

	var saver *supervisor.Autosaver
	schedule := cfg.Supervisor.AutosaveSchedule
	defer func() {
		if saver != nil {
			saver.Stop()
		}
	}()
	if schedule != "" {
		saver = supervisor.NewAutosaver(state, cfg.Supervisor.StateFile, schedule, logger.Logger)
		if err := saver.Start(); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddress, logger.Logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Metrics.ListenAddress)
	}

	if _, err := os.Stat(cfgFile); err == nil {
		watcher, err := config.NewWatcher(cfgFile, logger.Logger)
		if err != nil {
			logger.Warn("could not watch configuration", "error", err)
		} else {
			go watcher.Watch(ctx, func(fresh *config.Config) {
				// Log level and autosave schedule are mutable at runtime;
				// socket, state file and worker count need a restart.
				if err := logger.SetFilter(fresh.Logging.Level); err != nil {
					logger.Warn("could not apply reloaded log level", "error", err)
				}
				if fresh.Supervisor.AutosaveSchedule != schedule {
					if saver != nil {
						saver.Stop()
						saver = nil
					}
					schedule = fresh.Supervisor.AutosaveSchedule
					if schedule != "" {
						saver = supervisor.NewAutosaver(state, cfg.Supervisor.StateFile, schedule, logger.Logger)
						if err := saver.Start(); err != nil {
							logger.Warn("could not apply reloaded autosave schedule", "error", err)
							saver = nil
						}
					}
				}
			})
		}
	}

	srv := supervisor.NewServer(cfg.Supervisor, state, registry, audit, logger)
	fmt.Printf("✓ Control socket: %s\n", cfg.Supervisor.CommandSocket)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Serve(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	if err := state.Save(cfg.Supervisor.StateFile); err != nil {
		logger.Error("could not save state on shutdown", "error", err)
	} else {
		logger.Info("state saved", "path", cfg.Supervisor.StateFile)
	}
	fmt.Println("✓ Supervisor stopped")
	return nil
}

// workerLauncher re-executes this binary as a worker process.
func workerLauncher(logger *logging.Logger) supervisor.Launcher {
	return supervisor.LauncherFunc(func(id uint32, tag string) (int, error) {
		self, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("could not locate own binary: %w", err)
		}

		args := []string{"worker", "--worker-id", fmt.Sprint(id)}
		if tag != "" {
			args = append(args, "--tag", tag)
		}
		proc := exec.Command(self, args...)
		proc.Stdout = os.Stdout
		proc.Stderr = os.Stderr
		if err := proc.Start(); err != nil {
			return 0, fmt.Errorf("could not start worker: %w", err)
		}

		pid := proc.Process.Pid
		logger.Info("worker launched", "id", id, "pid", pid, "tag", tag)

		// Reap the worker when it exits so it never lingers as a zombie.
		go func() {
			err := proc.Wait()
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				logger.Warn("worker wait failed", "id", id, "error", err)
				return
			}
			logger.Info("worker exited", "id", id, "pid", pid)
		}()
		return pid, nil
	})
}
