// Package migration upgrades persisted snapshot blobs written by older
// releases to the current on-disk shape.
//
// Each Step recognizes one legacy generation and lifts it toward the current
// generation. Normalize runs the chain until the value has the current shape,
// then decodes it into a Blob. Normalize never fails: a malformed shape turns
// into a Blob whose entries or timestamp fail to parse further downstream.
// Entries is nil, never empty, when the input carried no entries object.
package migration

import (
	"fmt"
	"time"
)

// CurrentSchemaVersion is written into every blob produced by this release.
const CurrentSchemaVersion = "0.2.0"

// Top-level keys of the current generation.
const (
	KeySchemaVersion = "schemaVersion"
	KeyEntries       = "entries"
	KeyCapturedAt    = "capturedAt"
)

// Keys used by earlier generations.
const (
	keyLegacyTime     = "time"     // 0.1.x timestamp
	keyLegacyData     = "data"     // 0.1.x and pre-versioning entries
	keyLegacyVersion  = "version"  // first release, before schemaVersion
	keyLegacyDatetime = "datetime" // first release timestamp
)

// Blob is the persisted representation of a snapshot. Entries is nil when
// the source had no entries object at all.
type Blob struct {
	SchemaVersion string            `json:"schemaVersion"`
	Entries       map[string]string `json:"entries"`
	CapturedAt    string            `json:"capturedAt"`

	// Synthetic is set when CapturedAt was stamped during normalization
	// because the stored blob carried no timestamp.
	Synthetic bool `json:"-"`
}

// Clone returns a deep copy of b.
func (b Blob) Clone() Blob {
	out := b
	if b.Entries == nil {
		return out
	}
	out.Entries = make(map[string]string, len(b.Entries))
	for k, v := range b.Entries {
		out.Entries[k] = v
	}
	return out
}

// HasEntries reports whether the source carried an entries object.
func (b Blob) HasEntries() bool {
	return b.Entries != nil
}

// Map returns the JSON-like form of b. A synthetic timestamp is left out so
// that normalizing the result stamps it again, and missing entries stay
// missing.
func (b Blob) Map() map[string]any {
	m := map[string]any{
		KeySchemaVersion: b.SchemaVersion,
	}
	if b.Entries != nil {
		entries := make(map[string]any, len(b.Entries))
		for k, v := range b.Entries {
			entries[k] = v
		}
		m[KeyEntries] = entries
	}
	if !b.Synthetic && b.CapturedAt != "" {
		m[KeyCapturedAt] = b.CapturedAt
	}
	return m
}

// Step lifts one legacy generation of blob toward the current generation.
// Apply must not modify its argument.
type Step struct {
	Name    string
	Matches func(raw map[string]any) bool
	Apply   func(raw map[string]any) map[string]any
}

// Steps returns the upgrade chain in the order it is consulted.
func Steps() []Step {
	return []Step{
		{Name: "first-release", Matches: isFirstRelease, Apply: liftFirstRelease},
		{Name: "unversioned", Matches: isUnversioned, Apply: liftUnversioned},
		{Name: "time-field", Matches: isTimeField, Apply: liftTimeField},
	}
}

// IsCurrent reports whether raw already has the current shape. Blobs tagged
// with an unknown schema version are treated as current.
func IsCurrent(raw map[string]any) bool {
	_, versioned := raw[KeySchemaVersion]
	_, hasTime := raw[keyLegacyTime]
	_, hasCapturedAt := raw[KeyCapturedAt]
	return versioned && (hasCapturedAt || !hasTime)
}

// Normalizer normalizes blobs against a clock.
type Normalizer struct {
	Now func() time.Time
}

// Normalize normalizes raw using the wall clock.
func Normalize(raw any) Blob {
	return Normalizer{}.Normalize(raw)
}

// Normalize converts raw (a decoded JSON value, a Blob, or a map) into a
// current-generation Blob. raw is never modified.
func (n Normalizer) Normalize(raw any) Blob {
	var m map[string]any
	switch v := raw.(type) {
	case Blob:
		return v.Clone()
	case *Blob:
		if v != nil {
			return v.Clone()
		}
	case map[string]any:
		m = v
	case map[string]string:
		m = make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
	}
	if m == nil {
		return n.stamp(Blob{SchemaVersion: CurrentSchemaVersion})
	}

	steps := Steps()
	for i := 0; i < len(steps) && !IsCurrent(m); i++ {
		for _, step := range steps {
			if step.Matches(m) {
				m = step.Apply(m)
				break
			}
		}
	}

	return n.stamp(decode(m))
}

// stamp fills in a synthetic capture time when b has none.
func (n Normalizer) stamp(b Blob) Blob {
	if b.CapturedAt == "" {
		b.CapturedAt = n.now().UTC().Format(time.RFC3339Nano)
		b.Synthetic = true
	}
	return b
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func isFirstRelease(raw map[string]any) bool {
	if _, versioned := raw[KeySchemaVersion]; versioned {
		return false
	}
	_, ok := raw[keyLegacyVersion].(string)
	if !ok {
		return false
	}
	_, ok = raw[keyLegacyData].(map[string]any)
	return ok
}

func liftFirstRelease(raw map[string]any) map[string]any {
	out := map[string]any{
		KeySchemaVersion: CurrentSchemaVersion,
		KeyEntries:       copyMap(raw[keyLegacyData].(map[string]any)),
	}
	if ts, ok := raw[keyLegacyDatetime]; ok {
		out[KeyCapturedAt] = ts
	}
	return out
}

func isUnversioned(raw map[string]any) bool {
	_, versioned := raw[KeySchemaVersion]
	return !versioned
}

// liftUnversioned treats the whole object as the entries map. This
// generation never stored a timestamp.
func liftUnversioned(raw map[string]any) map[string]any {
	return map[string]any{
		KeySchemaVersion: CurrentSchemaVersion,
		KeyEntries:       copyMap(raw),
	}
}

func isTimeField(raw map[string]any) bool {
	_, versioned := raw[KeySchemaVersion]
	_, hasTime := raw[keyLegacyTime]
	_, hasCapturedAt := raw[KeyCapturedAt]
	return versioned && hasTime && !hasCapturedAt
}

func liftTimeField(raw map[string]any) map[string]any {
	entries, ok := raw[KeyEntries]
	if !ok {
		entries = raw[keyLegacyData]
	}
	out := map[string]any{
		KeySchemaVersion: CurrentSchemaVersion,
		KeyCapturedAt:    raw[keyLegacyTime],
	}
	if m, ok := entries.(map[string]any); ok {
		out[KeyEntries] = copyMap(m)
	} else {
		out[KeyEntries] = entries
	}
	return out
}

func decode(m map[string]any) Blob {
	return Blob{
		SchemaVersion: stringOf(m[KeySchemaVersion]),
		Entries:       decodeEntries(m[KeyEntries]),
		CapturedAt:    stringOf(m[KeyCapturedAt]),
	}
}

// decodeEntries returns nil unless v is an object.
func decodeEntries(v any) map[string]string {
	switch e := v.(type) {
	case map[string]any:
		out := make(map[string]string, len(e))
		for k, s := range e {
			out[k] = stringOf(s)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(e))
		for k, s := range e {
			out[k] = s
		}
		return out
	}
	return nil
}

// stringOf renders non-string values with fmt so that status and timestamp
// parsing reject them instead of silently seeing an empty string.
func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
