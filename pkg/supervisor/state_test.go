package supervisor

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/backend"
	"mercator-hq/ganymede/pkg/command"
)

func testApp(t *testing.T, s *State, appID string) {
	t.Helper()
	order := command.AddApplication(command.Application{AppID: appID})
	if err := s.ApplyOrder(&order); err != nil {
		t.Fatalf("AddApplication(%s) failed: %v", appID, err)
	}
}

func testInstance(t *testing.T, s *State, appID, instanceID string, port uint16) {
	t.Helper()
	order := command.AddInstance(command.Instance{
		AppID: appID, InstanceID: instanceID, IPAddress: "127.0.0.1", Port: port,
	})
	if err := s.ApplyOrder(&order); err != nil {
		t.Fatalf("AddInstance(%s/%s) failed: %v", appID, instanceID, err)
	}
}

func TestApplyOrderRequiresApplication(t *testing.T) {
	s := NewState(time.Second)

	order := command.AddInstance(command.Instance{
		AppID: "ghost", InstanceID: "i-0", IPAddress: "127.0.0.1", Port: 8080,
	})
	if err := s.ApplyOrder(&order); err == nil {
		t.Fatal("expected error adding instance to unknown application")
	}

	front := command.AddHTTPFront(command.HTTPFront{AppID: "ghost", Hostname: "example.com"})
	if err := s.ApplyOrder(&front); err == nil {
		t.Fatal("expected error adding front to unknown application")
	}
}

func TestApplyOrderRejectsNonStateOrders(t *testing.T) {
	s := NewState(time.Second)

	for _, order := range []command.Order{command.SoftStop(), command.HardStop(), command.Status()} {
		if err := s.ApplyOrder(&order); err == nil {
			t.Errorf("ApplyOrder(%s) should have been rejected", order.Kind)
		}
	}
}

func TestPickBackend(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")

	if _, err := s.PickBackend("app-1"); err != backend.ErrNoBackendAvailable {
		t.Fatalf("PickBackend on empty app = %v, want ErrNoBackendAvailable", err)
	}

	testInstance(t, s, "app-1", "i-0", 8080)
	record, err := s.PickBackend("app-1")
	if err != nil {
		t.Fatalf("PickBackend failed: %v", err)
	}
	if record.InstanceID != "i-0" {
		t.Errorf("picked instance %q, want i-0", record.InstanceID)
	}
}

func TestRemoveInstanceDrains(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")
	testInstance(t, s, "app-1", "i-0", 8080)

	record, err := s.PickBackend("app-1")
	if err != nil {
		t.Fatalf("PickBackend failed: %v", err)
	}
	record.IncConnections()

	remove := command.RemoveInstance(command.Instance{AppID: "app-1", InstanceID: "i-0"})
	if err := s.ApplyOrder(&remove); err != nil {
		t.Fatalf("RemoveInstance failed: %v", err)
	}

	// Still draining: the record stays in the table but refuses new work.
	if _, err := s.PickBackend("app-1"); err != backend.ErrNoBackendAvailable {
		t.Fatalf("draining backend should not be pickable, got %v", err)
	}
	if record.Status() != backend.StatusClosing {
		t.Errorf("status = %v, want Closing", record.Status())
	}

	s.ConnectionClosed("app-1", "i-0")
	if record.Status() != backend.StatusClosed {
		t.Errorf("status after drain = %v, want Closed", record.Status())
	}
	s.mu.RLock()
	remaining := len(s.backends["app-1"])
	s.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("%d entries remain after drain, want 0", remaining)
	}
}

func TestRemoveIdleInstanceImmediately(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")
	testInstance(t, s, "app-1", "i-0", 8080)

	remove := command.RemoveInstance(command.Instance{AppID: "app-1", InstanceID: "i-0"})
	if err := s.ApplyOrder(&remove); err != nil {
		t.Fatalf("RemoveInstance failed: %v", err)
	}

	s.mu.RLock()
	remaining := len(s.backends["app-1"])
	s.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("idle instance should leave the table immediately, %d remain", remaining)
	}
}

func TestDuplicateInstanceRejected(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")
	testInstance(t, s, "app-1", "i-0", 8080)

	dup := command.AddInstance(command.Instance{
		AppID: "app-1", InstanceID: "i-0", IPAddress: "127.0.0.1", Port: 8081,
	})
	if err := s.ApplyOrder(&dup); err == nil {
		t.Fatal("expected error re-adding a live instance id")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")
	testApp(t, s, "app-2")
	testInstance(t, s, "app-1", "i-0", 8080)
	testInstance(t, s, "app-2", "i-1", 8081)
	front := command.AddHTTPFront(command.HTTPFront{
		AppID: "app-1", Hostname: "example.com", PathBegin: "/",
	})
	if err := s.ApplyOrder(&front); err != nil {
		t.Fatalf("AddHTTPFront failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "state.json")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewState(time.Second)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	before, err := s.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	after, err := loaded.Dump()
	if err != nil {
		t.Fatalf("Dump of loaded state failed: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("round trip changed state:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestSnapshotExcludesDrainingInstances(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")
	testInstance(t, s, "app-1", "i-0", 8080)
	testInstance(t, s, "app-1", "i-1", 8081)

	record, _ := s.PickBackend("app-1")
	record.IncConnections()
	remove := command.RemoveInstance(command.Instance{AppID: "app-1", InstanceID: record.InstanceID})
	if err := s.ApplyOrder(&remove); err != nil {
		t.Fatalf("RemoveInstance failed: %v", err)
	}

	dump, err := s.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	var snap stateSnapshot
	if err := json.Unmarshal(dump, &snap); err != nil {
		t.Fatalf("could not parse dump: %v", err)
	}
	if len(snap.Instances) != 1 {
		t.Fatalf("dump has %d instances, want 1 (draining excluded)", len(snap.Instances))
	}
	if snap.Instances[0].InstanceID == record.InstanceID {
		t.Error("draining instance appeared in the dump")
	}
}

func TestQueryApplication(t *testing.T) {
	s := NewState(time.Second)
	testApp(t, s, "app-1")
	testInstance(t, s, "app-1", "i-0", 8080)

	raw, err := s.Query(&command.Query{Kind: command.QueryApplication, AppID: "app-1"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	var view ApplicationView
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("could not parse query answer: %v", err)
	}
	if view.Application.AppID != "app-1" || len(view.Instances) != 1 {
		t.Errorf("unexpected view: %+v", view)
	}

	if _, err := s.Query(&command.Query{Kind: command.QueryApplication, AppID: "nope"}); err == nil {
		t.Error("expected error querying unknown application")
	}
}
