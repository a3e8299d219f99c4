package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"peptrack/internal/migration"
	"peptrack/internal/status"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
)

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "latest.json"))

	if _, err := store.Load(); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestStore_DefaultPath(t *testing.T) {
	if NewStore("").Path != DefaultPath {
		t.Errorf("expected default path %s", DefaultPath)
	}
}

func TestStore_SaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "latest.json")
	store := NewStore(path)

	if err := store.Save(mustPayload(t, Payload{"1": {Status: "Draft"}}, t0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file was not written: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestStore_SaveWritesCurrentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	store := NewStore(path)

	if err := store.Save(mustPayload(t, Payload{"8": {Status: "Final"}}, t0)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("state file is not JSON: %v", err)
	}

	if raw["schemaVersion"] != migration.CurrentSchemaVersion {
		t.Errorf("unexpected schemaVersion %v", raw["schemaVersion"])
	}
	if raw["capturedAt"] != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected capturedAt %v", raw["capturedAt"])
	}
	entries, ok := raw["entries"].(map[string]any)
	if !ok || entries["8"] != "Final" {
		t.Errorf("unexpected entries %v", raw["entries"])
	}
}

func TestStore_LoadLegacyFileUsesModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	if err := os.WriteFile(path, []byte(`{"123": "Draft", "8": "Final"}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	modTime := time.Date(2021, 7, 4, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	s, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !s.CapturedAt().Equal(modTime) {
		t.Errorf("expected capture time %v, got %v", modTime, s.CapturedAt())
	}
	if st, _ := s.Lookup("123"); st != status.Draft {
		t.Errorf("expected Draft, got %v", st)
	}
}

func TestStore_LoadTimeFieldGeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	content := `{"schemaVersion": "0.1.0", "data": {"8": "Final"}, "time": "2023-01-01T00:00:00+00:00"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.CapturedAt().Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected capture time %v", s.CapturedAt())
	}
}

func TestStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"invalid json", `{"1": `, ErrCorruptState},
		{"bad status", `{"1": "Banana"}`, ErrUnrecognizedStatus},
		{"bad timestamp", `{"schemaVersion": "0.2.0", "entries": {}, "capturedAt": "soon"}`, ErrMalformedTimestamp},
		{"null", `null`, ErrCorruptState},
		{"array", `[]`, ErrCorruptState},
		{"string", `"Draft"`, ErrCorruptState},
		{"current without entries", `{"schemaVersion": "0.2.0", "capturedAt": "2024-01-01T00:00:00Z"}`, ErrCorruptState},
		{"future version with other key", `{"schemaVersion": "9.0.0", "items": {"8": "Draft"}, "capturedAt": "2024-01-01T00:00:00Z"}`, ErrCorruptState},
		{"versioned data without time", `{"schemaVersion": "0.1.0", "data": {"8": "Final"}}`, ErrCorruptState},
		{"entries not an object", `{"schemaVersion": "0.2.0", "entries": ["8"], "capturedAt": "2024-01-01T00:00:00Z"}`, ErrCorruptState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "latest.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := NewStore(path).Load(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestStore_SaveLoad_Property: load returns the saved snapshot unchanged.
func TestStore_SaveLoad_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("load returns saved snapshot unchanged", prop.ForAll(
		func(p Payload) bool {
			store := NewStore(filepath.Join(t.TempDir(), "latest.json"))

			original, err := FromPayloadAt(p, time.Now())
			if err != nil {
				return false
			}
			if err := store.Save(original); err != nil {
				return false
			}

			loaded, err := store.Load()
			if err != nil {
				return false
			}
			return loaded.Equal(original)
		},
		genPayload(),
	))

	properties.TestingRun(t)
}
