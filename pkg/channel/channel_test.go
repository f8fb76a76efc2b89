package channel

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/command"
)

func TestWriteRead(t *testing.T) {
	client, server := Pipe[command.Command, command.Answer]()
	defer client.Close()
	defer server.Close()

	go func() {
		cmd, err := server.ReadMessage()
		if err != nil {
			t.Errorf("server read failed: %v", err)
			return
		}
		server.WriteMessage(command.NewAnswer(cmd.ID, command.StatusOk, "saved"))
	}()

	if err := client.WriteMessage(command.SaveState("ID-test01", "/tmp/state.json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ans, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if ans.ID != "ID-test01" {
		t.Errorf("answer id = %q, want %q", ans.ID, "ID-test01")
	}
	if ans.Status != command.StatusOk {
		t.Errorf("answer status = %q, want %q", ans.Status, command.StatusOk)
	}
}

func TestReadTimeoutReportsNoMessage(t *testing.T) {
	client, server := Pipe[command.Command, command.Answer]()
	defer client.Close()
	defer server.Close()

	start := time.Now()
	_, err := client.ReadMessageTimeout(50 * time.Millisecond)
	if !errors.Is(err, ErrNoMessage) {
		t.Fatalf("err = %v, want ErrNoMessage", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout read took %v", elapsed)
	}
}

func TestMessageSurvivesTimeout(t *testing.T) {
	client, server := Pipe[command.Command, command.Answer]()
	defer client.Close()
	defer server.Close()

	// No message yet: the deadline read must report absence without
	// corrupting the stream.
	if _, err := client.ReadMessageTimeout(30 * time.Millisecond); !errors.Is(err, ErrNoMessage) {
		t.Fatalf("err = %v, want ErrNoMessage", err)
	}

	go server.WriteMessage(command.NewAnswer("ID-late01", command.StatusOk, "late"))

	ans, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read after timeout failed: %v", err)
	}
	if ans.ID != "ID-late01" {
		t.Errorf("answer id = %q, want %q", ans.ID, "ID-late01")
	}
}

func TestClosedChannel(t *testing.T) {
	client, server := Pipe[command.Command, command.Answer]()
	server.Close()

	if _, err := client.ReadMessage(); !errors.Is(err, ErrClosed) {
		t.Errorf("read err = %v, want ErrClosed", err)
	}
}

func TestOrderPayloadRoundTrip(t *testing.T) {
	client, server := Pipe[command.Command, command.Answer]()
	defer client.Close()
	defer server.Close()

	order := command.AddInstance(command.Instance{
		AppID:      "shop",
		InstanceID: "shop-0",
		IPAddress:  "127.0.0.1",
		Port:       8080,
	})
	go client.WriteMessage(command.ProxyConfiguration("ID-order1", order, nil))

	got, err := server.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Kind != command.KindProxyConfiguration {
		t.Fatalf("kind = %q, want %q", got.Kind, command.KindProxyConfiguration)
	}
	if got.Order == nil || got.Order.Kind != command.OrderAddInstance {
		t.Fatal("order payload missing or wrong kind")
	}
	if got.Order.Instance.InstanceID != "shop-0" {
		t.Errorf("instance id = %q, want %q", got.Order.Instance.InstanceID, "shop-0")
	}
}
