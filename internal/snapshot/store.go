package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultPath is the state file used when none is configured.
const DefaultPath = "latest.json"

var (
	// ErrSnapshotNotFound is returned when no state file exists yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCorruptState is returned when the state file is not valid JSON or
	// does not hold a snapshot object.
	ErrCorruptState = errors.New("corrupt state file")
)

// Store persists a single snapshot as a JSON file. It assumes exclusive
// access to the file.
type Store struct {
	Path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path}
}

// Load reads the state file and upgrades it to the current schema.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.Path, err)
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: %s: top-level value is not an object", ErrCorruptState, s.Path)
	}

	var modTime *time.Time
	if info, err := os.Stat(s.Path); err == nil {
		mt := info.ModTime().UTC()
		modTime = &mt
	}

	snap, err := FromBlob(raw, modTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return snap, nil
}

// Save overwrites the state file with snap in the current schema.
func (s *Store) Save(snap *Snapshot) error {
	dir := filepath.Dir(s.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(snap.ToBlob(), "", "  ")
	if err != nil {
		return err
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

