// Package snapshot models a point-in-time view of the catalog: every
// tracked document mapped to its status, tagged with a schema version and
// the time it was captured.
package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"peptrack/internal/drift"
	"peptrack/internal/migration"
	"peptrack/internal/status"
)

var (
	// ErrUnrecognizedStatus is returned when a payload or blob carries a
	// status outside the known set.
	ErrUnrecognizedStatus = status.ErrUnrecognized

	// ErrMalformedTimestamp is returned when a blob's capture time cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrUnknownIdentifier is returned by Lookup for an id the snapshot does not hold.
	ErrUnknownIdentifier = errors.New("unknown identifier")
)

// timestampLayouts are tried in order when parsing a persisted capture time.
// Fractional seconds are accepted by all of them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// PayloadItem is one document in the catalog API response. Only the status
// field is read.
type PayloadItem struct {
	Status string `json:"status"`
}

// Payload is the catalog API response: document id to document.
type Payload map[string]PayloadItem

// Snapshot is immutable once built.
type Snapshot struct {
	schemaVersion string
	capturedAt    time.Time
	entries       drift.Entries
}

// FromPayload builds a snapshot from a catalog response captured now.
func FromPayload(raw Payload) (*Snapshot, error) {
	return FromPayloadAt(raw, time.Now())
}

// FromPayloadAt builds a snapshot from a catalog response captured at at.
func FromPayloadAt(raw Payload, at time.Time) (*Snapshot, error) {
	statuses := make(map[string]string, len(raw))
	for id, item := range raw {
		statuses[id] = item.Status
	}
	entries, err := parseEntries(statuses)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		schemaVersion: migration.CurrentSchemaVersion,
		capturedAt:    at.UTC(),
		entries:       entries,
	}, nil
}

// FromBlob builds a snapshot from a persisted blob of any generation.
// modTime is the state file's modification time; it stands in for the
// capture time when the blob predates timestamp tracking.
func FromBlob(raw any, modTime *time.Time) (*Snapshot, error) {
	return fromBlob(migration.Normalizer{}, raw, modTime)
}

func fromBlob(n migration.Normalizer, raw any, modTime *time.Time) (*Snapshot, error) {
	blob := n.Normalize(raw)
	if !blob.HasEntries() {
		return nil, fmt.Errorf("%w: no entries object (schema %q)", ErrCorruptState, blob.SchemaVersion)
	}

	entries, err := parseEntries(blob.Entries)
	if err != nil {
		return nil, err
	}

	var capturedAt time.Time
	if blob.Synthetic && modTime != nil {
		capturedAt = *modTime
	} else {
		capturedAt, err = parseTimestamp(blob.CapturedAt)
		if err != nil {
			return nil, err
		}
	}

	return &Snapshot{
		schemaVersion: blob.SchemaVersion,
		capturedAt:    capturedAt.UTC(),
		entries:       entries,
	}, nil
}

// ToBlob returns the persisted form of s in the current schema.
func (s *Snapshot) ToBlob() migration.Blob {
	entries := make(map[string]string, len(s.entries))
	for id, st := range s.entries {
		entries[id] = st.String()
	}
	return migration.Blob{
		SchemaVersion: migration.CurrentSchemaVersion,
		Entries:       entries,
		CapturedAt:    s.capturedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Lookup returns the status recorded for id.
func (s *Snapshot) Lookup(id string) (status.Status, error) {
	st, ok := s.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownIdentifier, id)
	}
	return st, nil
}

// DiffAgainst returns the documents whose status changed between s and
// other. s is the older snapshot.
func (s *Snapshot) DiffAgainst(other *Snapshot) drift.ChangeSet {
	return drift.Diff(s.entries, other.entries)
}

// Elapsed returns the time between s and a newer snapshot.
func (s *Snapshot) Elapsed(newer *Snapshot) time.Duration {
	return drift.Elapsed(s.capturedAt, newer.capturedAt)
}

// SchemaVersion is the version the snapshot was read with.
func (s *Snapshot) SchemaVersion() string { return s.schemaVersion }

// CapturedAt is the capture time in UTC.
func (s *Snapshot) CapturedAt() time.Time { return s.capturedAt }

// Len is the number of tracked documents.
func (s *Snapshot) Len() int { return len(s.entries) }

// IDs returns the document ids in display order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	drift.SortIDs(ids)
	return ids
}

// Entries returns a copy of the id to status mapping.
func (s *Snapshot) Entries() drift.Entries {
	out := make(drift.Entries, len(s.entries))
	for id, st := range s.entries {
		out[id] = st
	}
	return out
}

// Counts returns the number of documents per status.
func (s *Snapshot) Counts() map[status.Status]int {
	counts := make(map[status.Status]int)
	for _, st := range s.entries {
		counts[st]++
	}
	return counts
}

// Equal reports whether s and other hold the same version, capture instant
// and entries.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.schemaVersion != other.schemaVersion || !s.capturedAt.Equal(other.capturedAt) {
		return false
	}
	if len(s.entries) != len(other.entries) {
		return false
	}
	for id, st := range s.entries {
		if o, ok := other.entries[id]; !ok || o != st {
			return false
		}
	}
	return true
}

func parseEntries(raw map[string]string) (drift.Entries, error) {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make(drift.Entries, len(raw))
	for _, id := range ids {
		st, err := status.Parse(raw[id])
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		entries[id] = st
	}
	return entries, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}
