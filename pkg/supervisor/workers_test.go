package supervisor

import (
	"testing"

	"mercator-hq/ganymede/pkg/command"
)

func testLauncher() Launcher {
	return LauncherFunc(func(id uint32, tag string) (int, error) {
		return 1000 + int(id), nil
	})
}

func TestRegistryLaunchAndList(t *testing.T) {
	r := NewRegistry(testLauncher())

	if err := r.Spawn(3); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	workers := r.List()
	if len(workers) != 3 {
		t.Fatalf("listed %d workers, want 3", len(workers))
	}
	for i, w := range workers {
		if w.ID != uint32(i) {
			t.Errorf("worker %d has id %d", i, w.ID)
		}
		if w.PID != 1000+i {
			t.Errorf("worker %d has pid %d, want %d", i, w.PID, 1000+i)
		}
		if w.RunState != command.RunStateRunning {
			t.Errorf("worker %d state = %s, want RUNNING", i, w.RunState)
		}
	}
}

func TestRegistryTransitions(t *testing.T) {
	r := NewRegistry(testLauncher())
	info, err := r.Launch("")
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if err := r.SoftStop(info.ID); err != nil {
		t.Fatalf("SoftStop failed: %v", err)
	}
	w, ok := r.Get(info.ID)
	if !ok || w.RunState != command.RunStateStopping {
		t.Fatalf("state after SoftStop = %v, want STOPPING", w.RunState)
	}

	if err := r.MarkStopped(info.ID); err != nil {
		t.Fatalf("MarkStopped failed: %v", err)
	}
	w, _ = r.Get(info.ID)
	if w.RunState != command.RunStateStopped {
		t.Fatalf("state after MarkStopped = %v, want STOPPED", w.RunState)
	}

	// Stopped is terminal.
	if err := r.SoftStop(info.ID); err == nil {
		t.Error("SoftStop on a stopped worker should fail")
	}
}

func TestRegistryUnknownWorker(t *testing.T) {
	r := NewRegistry(testLauncher())
	if err := r.SoftStop(42); err == nil {
		t.Error("expected error for unknown worker")
	}
	if _, ok := r.Get(42); ok {
		t.Error("Get(42) should report missing")
	}
}

func TestRegistrySoftStopAllSparesStopped(t *testing.T) {
	r := NewRegistry(testLauncher())
	r.Spawn(2)
	r.MarkStopped(0)

	r.SoftStopAll()

	workers := r.List()
	if workers[0].RunState != command.RunStateStopped {
		t.Errorf("stopped worker changed state to %s", workers[0].RunState)
	}
	if workers[1].RunState != command.RunStateStopping {
		t.Errorf("running worker state = %s, want STOPPING", workers[1].RunState)
	}
}
