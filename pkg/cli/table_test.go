package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableRendering(t *testing.T) {
	table := NewTable("Worker", "pid", "run state", "answer")
	table.AddRow("0", "1234", "RUNNING", "ok")
	table.AddRow("1", "1235", "STOPPED", "")

	var buf bytes.Buffer
	if err := table.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Worker") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "RUNNING") || !strings.Contains(lines[1], "ok") {
		t.Errorf("row line = %q", lines[1])
	}
}

func TestJSONFormatter(t *testing.T) {
	f := NewFormatter(FormatJSON)
	out, err := f.Format(map[string]int{"workers": 2})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(string(out), `"workers": 2`) {
		t.Errorf("output = %s", out)
	}
}
