package supervisor

import (
	"fmt"
	"sync"

	"mercator-hq/ganymede/pkg/command"
)

// Launcher starts worker processes. The registry delegates spawning so the
// process mechanics (fork, re-exec, fd passing) stay outside the bookkeeping.
type Launcher interface {
	// Launch starts one worker, identified on the control channel by tag,
	// and returns its pid.
	Launch(id uint32, tag string) (pid int, err error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(id uint32, tag string) (int, error)

func (f LauncherFunc) Launch(id uint32, tag string) (int, error) { return f(id, tag) }

// Registry tracks worker processes and their run states. It never removes
// entries: stopped workers stay listed so upgrades and status reports can
// account for them.
type Registry struct {
	mu       sync.Mutex
	workers  []*command.WorkerInfo
	nextID   uint32
	launcher Launcher
}

// NewRegistry creates an empty registry delegating process creation to
// launcher.
func NewRegistry(launcher Launcher) *Registry {
	return &Registry{launcher: launcher}
}

// Spawn launches count workers, e.g. at supervisor startup.
func (r *Registry) Spawn(count int) error {
	for i := 0; i < count; i++ {
		if _, err := r.Launch(""); err != nil {
			return err
		}
	}
	return nil
}

// Launch starts one worker and registers it as Running.
func (r *Registry) Launch(tag string) (command.WorkerInfo, error) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()

	pid, err := r.launcher.Launch(id, tag)
	if err != nil {
		return command.WorkerInfo{}, fmt.Errorf("could not launch worker %d: %w", id, err)
	}

	info := &command.WorkerInfo{ID: id, PID: pid, RunState: command.RunStateRunning}
	r.mu.Lock()
	r.workers = append(r.workers, info)
	r.mu.Unlock()
	return *info, nil
}

// List returns a snapshot of every known worker, launch order preserved.
func (r *Registry) List() []command.WorkerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]command.WorkerInfo, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, *w)
	}
	return out
}

// Get returns the worker with the given id.
func (r *Registry) Get(id uint32) (command.WorkerInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.workers {
		if w.ID == id {
			return *w, true
		}
	}
	return command.WorkerInfo{}, false
}

// SoftStop marks the worker Stopping; it finishes in-flight sessions and
// reports Stopped when drained.
func (r *Registry) SoftStop(id uint32) error {
	return r.transition(id, command.RunStateStopping)
}

// MarkStopped records that a worker has exited.
func (r *Registry) MarkStopped(id uint32) error {
	return r.transition(id, command.RunStateStopped)
}

func (r *Registry) transition(id uint32, state command.RunState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.workers {
		if w.ID != id {
			continue
		}
		if w.RunState == command.RunStateStopped && state != command.RunStateStopped {
			return fmt.Errorf("worker %d already stopped", id)
		}
		w.RunState = state
		return nil
	}
	return fmt.Errorf("unknown worker %d", id)
}

// SoftStopAll marks every running worker Stopping.
func (r *Registry) SoftStopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.workers {
		if w.RunState == command.RunStateRunning {
			w.RunState = command.RunStateStopping
		}
	}
}

// HardStopAll marks every worker Stopped.
func (r *Registry) HardStopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.workers {
		w.RunState = command.RunStateStopped
	}
}
