package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDiscards(t *testing.T) {
	if L() == nil {
		t.Fatal("L() must never be nil")
	}
	if Path() != "" {
		t.Errorf("no file expected before Setup, got %q", Path())
	}
}

func TestSetup_FileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "peptrack.log")

	cleanup, err := Setup(Config{File: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	L().Info("check.done", "run_id", "r1", "changes", 2)
	if Path() != path {
		t.Errorf("Path() = %q", Path())
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if rec["msg"] != "check.done" || rec["run_id"] != "r1" {
		t.Errorf("unexpected record %v", rec)
	}
	if ts, _ := rec["time"].(string); !strings.HasSuffix(ts, "Z") {
		t.Errorf("time should be UTC, got %q", ts)
	}
	if Path() != "" {
		t.Error("cleanup should reset the path")
	}
}

func TestSetup_DebugWritesStderr(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Setup(Config{Debug: true, Stderr: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer cleanup()

	L().Debug("fetch.start", "url", "http://example")

	out := buf.String()
	if !strings.Contains(out, "fetch.start") || !strings.Contains(out, "url=http://example") {
		t.Errorf("unexpected stderr output %q", out)
	}
}

func TestSetup_FileAndDebugFanOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peptrack.log")
	var buf bytes.Buffer

	cleanup, err := Setup(Config{File: path, Debug: true, Stderr: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	L().With("run_id", "r2").Info("save")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"run_id":"r2"`) {
		t.Errorf("file missing record: %s", data)
	}
	if !strings.Contains(buf.String(), "run_id=r2") {
		t.Errorf("stderr missing record: %q", buf.String())
	}
}
