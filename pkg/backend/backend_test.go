package backend

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestConnectionAccounting(t *testing.T) {
	b := New("app-0", "127.0.0.1:9999", 1)

	if n, ok := b.IncConnections(); !ok || n != 1 {
		t.Fatalf("IncConnections = (%d, %v), want (1, true)", n, ok)
	}
	if n, ok := b.IncConnections(); !ok || n != 2 {
		t.Fatalf("IncConnections = (%d, %v), want (2, true)", n, ok)
	}
	if n, ok := b.DecConnections(); !ok || n != 1 {
		t.Fatalf("DecConnections = (%d, %v), want (1, true)", n, ok)
	}
}

func TestDecAtZeroForcesClosed(t *testing.T) {
	b := New("app-0", "127.0.0.1:9999", 1)

	if _, ok := b.DecConnections(); ok {
		t.Error("DecConnections at zero must not report a count")
	}
	if b.Status() != StatusClosed {
		t.Errorf("status = %v, want Closed after Dec at zero", b.Status())
	}
	if b.ActiveConnections() != 0 {
		t.Errorf("active connections = %d, want 0", b.ActiveConnections())
	}

	// Repeated calls stay at Closed and never go negative.
	for i := 0; i < 3; i++ {
		if _, ok := b.DecConnections(); ok {
			t.Error("DecConnections on Closed record must be a no-op")
		}
	}
	if b.ActiveConnections() != 0 {
		t.Errorf("active connections = %d after repeated Dec, want 0", b.ActiveConnections())
	}
}

func TestClosingDrainsToClosedOnce(t *testing.T) {
	b := New("app-0", "127.0.0.1:9999", 1)
	b.IncConnections()
	b.IncConnections()
	b.SetClosing()

	if _, ok := b.IncConnections(); ok {
		t.Error("Closing record must refuse new connections")
	}

	if n, ok := b.DecConnections(); !ok || n != 1 {
		t.Fatalf("DecConnections = (%d, %v), want (1, true) while draining", n, ok)
	}
	if b.Status() != StatusClosing {
		t.Errorf("status = %v, want Closing with one connection left", b.Status())
	}

	if _, ok := b.DecConnections(); ok {
		t.Error("last drain must report no remaining count")
	}
	if b.Status() != StatusClosed {
		t.Errorf("status = %v, want Closed after last connection drained", b.Status())
	}

	// Idempotent thereafter.
	if _, ok := b.DecConnections(); ok || b.Status() != StatusClosed {
		t.Error("Closed record must stay Closed")
	}
}

func TestClosedRefusesIncrements(t *testing.T) {
	b := New("app-0", "127.0.0.1:9999", 1)
	b.DecConnections() // forces Closed

	if _, ok := b.IncConnections(); ok {
		t.Error("Closed record accepted an increment")
	}
}

func TestCanOpen(t *testing.T) {
	b := New("app-0", "127.0.0.1:9999", 1)
	if !b.CanOpen() {
		t.Error("fresh Normal record must be openable")
	}

	b.RetryPolicy().Fail()
	if b.CanOpen() {
		t.Error("record in backoff must not be openable")
	}

	b.RetryPolicy().Succeed()
	b.SetClosing()
	if b.CanOpen() {
		t.Error("Closing record must not be openable")
	}
}

func TestTryConnectSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	b := New("app-0", ln.Addr().String(), 1, WithConnectTimeout(time.Second))
	conn, err := b.TryConnect(TCP)
	if err != nil {
		t.Fatalf("TryConnect failed: %v", err)
	}
	defer conn.Close()

	if b.ActiveConnections() != 1 {
		t.Errorf("active connections = %d, want 1", b.ActiveConnections())
	}
	if b.Failures() != 0 {
		t.Errorf("failures = %d, want 0", b.Failures())
	}
}

func TestTryConnectFailure(t *testing.T) {
	// Grab a port and close the listener so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	b := New("app-0", addr, 1, WithConnectTimeout(500*time.Millisecond))
	_, err = b.TryConnect(TCP)
	if !errors.Is(err, ErrNoBackendAvailable) {
		t.Fatalf("err = %v, want ErrNoBackendAvailable", err)
	}

	if b.Failures() != 1 {
		t.Errorf("failures = %d, want 1", b.Failures())
	}
	if b.ActiveConnections() != 0 {
		t.Errorf("active connections = %d, want 0", b.ActiveConnections())
	}
	if action, ok := b.RetryPolicy().CanTry(); !ok || action != ActionWait {
		t.Errorf("policy after failure = (%v, %v), want (ActionWait, true)", action, ok)
	}
}

func TestTryConnectRefusedWhenNotNormal(t *testing.T) {
	b := New("app-0", "127.0.0.1:9999", 1)
	b.SetClosing()

	if _, err := b.TryConnect(TCP); !errors.Is(err, ErrNoBackendAvailable) {
		t.Fatalf("err = %v, want ErrNoBackendAvailable for Closing record", err)
	}
	if b.Failures() != 0 {
		t.Error("fail-fast refusal must not count as a connect failure")
	}
}

func TestTryConnectSuccessRehabilitates(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	policy := NewExponentialBackoff(10)
	policy.Fail()
	policy.Fail()

	b := New("app-0", ln.Addr().String(), 1,
		WithRetryPolicy(policy), WithConnectTimeout(time.Second))

	conn, err := b.TryConnect(TCP)
	if err != nil {
		t.Fatalf("TryConnect failed: %v", err)
	}
	defer conn.Close()

	if policy.Failures() != 0 {
		t.Errorf("policy failures = %d after success, want 0", policy.Failures())
	}
}
