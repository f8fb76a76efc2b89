package supervisor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Autosaver snapshots the routing state to the configured state file on a
// cron schedule.
type Autosaver struct {
	state    *State
	path     string
	schedule string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewAutosaver creates an autosaver writing state snapshots to path on
// schedule (standard five-field cron syntax).
func NewAutosaver(state *State, path, schedule string, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		state:    state,
		path:     path,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "autosave"),
	}
}

// Start validates the schedule and begins periodic snapshots.
func (a *Autosaver) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	if _, err := cron.ParseStandard(a.schedule); err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", a.schedule, err)
	}

	_, err := a.cron.AddFunc(a.schedule, a.save)
	if err != nil {
		return fmt.Errorf("could not schedule autosave: %w", err)
	}

	a.cron.Start()
	a.running = true
	a.logger.Info("state autosave scheduled", "schedule", a.schedule, "path", a.path)
	return nil
}

func (a *Autosaver) save() {
	if err := a.state.Save(a.path); err != nil {
		a.logger.Error("state autosave failed", "path", a.path, "error", err)
		return
	}
	a.logger.Debug("state autosaved", "path", a.path)
}

// Stop halts the schedule, waiting for an in-flight save to finish.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	<-a.cron.Stop().Done()
	a.running = false
	a.logger.Info("state autosave stopped")
}
