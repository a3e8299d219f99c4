package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"peptrack/internal/status"
)

func TestRun_WriteFile(t *testing.T) {
	r := NewRun()
	ranAt := time.Unix(1_700_000_000, 0)
	r.Observe(map[status.Status]int{status.Draft: 3, status.Final: 2}, 1, ranAt, ranAt.Add(-time.Hour))

	path := filepath.Join(t.TempDir(), "peptrack.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"peptrack_tracked_documents 5",
		`peptrack_documents_by_status{status="Draft"} 3`,
		`peptrack_documents_by_status{status="Final"} 2`,
		`peptrack_documents_by_status{status="Superseded"} 0`,
		"peptrack_status_changes 1",
		"peptrack_last_run_timestamp_seconds ",
		"peptrack_baseline_timestamp_seconds ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_Gather(t *testing.T) {
	r := NewRun()
	r.Observe(nil, 0, time.Now(), time.Now())

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 5 {
		t.Errorf("expected 5 metric families, got %d", len(families))
	}
}
