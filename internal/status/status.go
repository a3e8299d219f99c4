// Package status defines the closed set of lifecycle states a tracked
// document can be in.
package status

import (
	"errors"
	"fmt"
)

// ErrUnrecognized is returned when a status string is not one of the known
// lifecycle states.
var ErrUnrecognized = errors.New("unrecognized status")

// Status is a document lifecycle state.
type Status uint8

const (
	Accepted Status = iota + 1
	Active
	Deferred
	Draft
	Final
	Provisional
	Rejected
	Replaced
	Withdrawn
	Superseded
)

var names = [...]string{
	Accepted:    "Accepted",
	Active:      "Active",
	Deferred:    "Deferred",
	Draft:       "Draft",
	Final:       "Final",
	Provisional: "Provisional",
	Rejected:    "Rejected",
	Replaced:    "Replaced",
	Withdrawn:   "Withdrawn",
	Superseded:  "Superseded",
}

var byName = func() map[string]Status {
	m := make(map[string]Status, len(names))
	for _, s := range All() {
		m[names[s]] = s
	}
	return m
}()

// All returns every status in declaration order.
func All() []Status {
	out := make([]Status, 0, len(names)-1)
	for s := Accepted; s <= Superseded; s++ {
		out = append(out, s)
	}
	return out
}

// Parse converts a display string ("Draft", "Final", ...) into a Status.
// Matching is exact.
func Parse(s string) (Status, error) {
	if st, ok := byName[s]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnrecognized, s)
}

// Valid reports whether s is a member of the enumeration.
func (s Status) Valid() bool {
	return s >= Accepted && s <= Superseded
}

// String returns the canonical display string.
func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return names[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnrecognized, uint8(s))
	}
	return []byte(names[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
