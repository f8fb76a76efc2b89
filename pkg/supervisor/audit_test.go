package supervisor

import (
	"context"
	"path/filepath"
	"testing"

	"mercator-hq/ganymede/pkg/command"
)

func TestAuditLogRecordAndRecent(t *testing.T) {
	log, err := OpenAuditLog(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditLog failed: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	first := command.AddApplication(command.Application{AppID: "app-1"})
	second := command.AddInstance(command.Instance{
		AppID: "app-1", InstanceID: "i-0", IPAddress: "127.0.0.1", Port: 8080,
	})

	if err := log.Record(ctx, "cmd-1", &first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := log.Record(ctx, "cmd-2", &second); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := log.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].CommandID != "cmd-2" || entries[0].Order.Kind != command.OrderAddInstance {
		t.Errorf("entry 0 = %s/%s, want cmd-2/%s",
			entries[0].CommandID, entries[0].Order.Kind, command.OrderAddInstance)
	}
	if entries[1].CommandID != "cmd-1" || entries[1].Order.Kind != command.OrderAddApplication {
		t.Errorf("entry 1 = %s/%s, want cmd-1/%s",
			entries[1].CommandID, entries[1].Order.Kind, command.OrderAddApplication)
	}
	if entries[0].Order.Instance == nil || entries[0].Order.Instance.InstanceID != "i-0" {
		t.Errorf("payload lost the instance: %+v", entries[0].Order)
	}
	if entries[0].RecordedAt.IsZero() {
		t.Error("recorded_at not set")
	}
}

func TestAuditLogRecentLimit(t *testing.T) {
	log, err := OpenAuditLog(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditLog failed: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		order := command.AddApplication(command.Application{AppID: "app"})
		if err := log.Record(ctx, "cmd", &order); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := log.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}
