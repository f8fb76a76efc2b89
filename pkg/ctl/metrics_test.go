package ctl

import (
	"io"
	"testing"

	"mercator-hq/ganymede/pkg/command"
)

func metricsSnapshot() map[string]command.WorkerMetrics {
	percentiles := command.Percentiles{
		Samples: 10, P50: 5, P90: 9, P99: 12,
		P999: 15, P9999: 20, P99999: 25, P100: 30,
	}
	worker := command.WorkerMetrics{
		Proxy:        map[string]int64{"sessions": 42, "accept_queue": 3},
		Applications: map[string]command.Percentiles{"shop": percentiles},
		Backends: map[string]command.BackendMetrics{
			"shop-0": {BytesOut: 1000, BytesIn: 2000, Percentiles: percentiles},
		},
	}
	return map[string]command.WorkerMetrics{
		command.MasterTag: {Proxy: map[string]int64{"uptime_seconds": 99}},
		"worker-0":        worker,
		"worker-1":        worker,
	}
}

func TestMetricsReshaping(t *testing.T) {
	ch := newFakeChannel(func(cmd *command.Command, send func(*command.Answer)) {
		send(&command.Answer{
			ID:     cmd.ID,
			Status: command.StatusOk,
			Data:   &command.AnswerData{Metrics: metricsSnapshot()},
		})
	})

	c := New(ch, WithOutput(io.Discard), WithLogger(quietLogger()))
	report, err := c.Metrics()
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}

	if report.Master == nil {
		t.Fatal("master table missing")
	}
	if len(report.Master.Rows) != 1 || report.Master.Rows[0][0] != "uptime_seconds" {
		t.Errorf("master rows = %v", report.Master.Rows)
	}

	// Proxy table: one row per counter key, one column per worker.
	if got := len(report.Proxy.Header); got != 3 {
		t.Errorf("proxy header has %d columns, want 3 (key + 2 workers)", got)
	}
	if got := len(report.Proxy.Rows); got != 2 {
		t.Errorf("proxy table has %d rows, want 2", got)
	}

	// Application table: 8 percentile columns per worker.
	wantAppCols := 1 + 2*8
	if got := len(report.Applications.Header); got != wantAppCols {
		t.Fatalf("application header has %d columns, want %d", got, wantAppCols)
	}
	if len(report.Applications.Rows) != 1 {
		t.Fatalf("application table has %d rows, want 1", len(report.Applications.Rows))
	}
	appRow := report.Applications.Rows[0]
	if appRow[0] != "shop" {
		t.Errorf("application key = %q", appRow[0])
	}
	// Values are passed through unchanged, never recomputed.
	wantBlock := []string{"10", "5", "9", "12", "15", "20", "25", "30"}
	for w := 0; w < 2; w++ {
		for i, want := range wantBlock {
			if got := appRow[1+w*8+i]; got != want {
				t.Errorf("worker %d field %d = %q, want %q", w, i, got, want)
			}
		}
	}

	// Backend table: bytes out, bytes in, then the 8 percentiles per worker.
	wantBackendCols := 1 + 2*10
	if got := len(report.Backends.Header); got != wantBackendCols {
		t.Fatalf("backend header has %d columns, want %d", got, wantBackendCols)
	}
	backendRow := report.Backends.Rows[0]
	if backendRow[0] != "shop-0" {
		t.Errorf("backend key = %q", backendRow[0])
	}
	if backendRow[1] != "1000" || backendRow[2] != "2000" {
		t.Errorf("bytes out/in = %q/%q, want 1000/2000", backendRow[1], backendRow[2])
	}
}

func TestMetricsEmptyAnswer(t *testing.T) {
	ch := newFakeChannel(func(cmd *command.Command, send func(*command.Answer)) {
		send(command.NewAnswer(cmd.ID, command.StatusOk, "no data"))
	})

	c := New(ch, WithOutput(io.Discard), WithLogger(quietLogger()))
	if _, err := c.Metrics(); err == nil {
		t.Error("expected error for metrics answer without payload")
	}
}
