package status

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParse_KnownStatuses(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"Accepted", Accepted},
		{"Active", Active},
		{"Deferred", Deferred},
		{"Draft", Draft},
		{"Final", Final},
		{"Provisional", Provisional},
		{"Rejected", Rejected},
		{"Replaced", Replaced},
		{"Withdrawn", Withdrawn},
		{"Superseded", Superseded},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_Unrecognized(t *testing.T) {
	for _, in := range []string{"Banana", "", "draft", "FINAL", " Final", "April Fool!"} {
		_, err := Parse(in)
		if !errors.Is(err, ErrUnrecognized) {
			t.Errorf("Parse(%q) error = %v, want ErrUnrecognized", in, err)
		}
	}
}

func TestAll_ClosedEnumeration(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("expected 10 statuses, got %d", len(all))
	}
	seen := make(map[string]bool)
	for _, s := range all {
		if !s.Valid() {
			t.Errorf("status %d reported invalid", s)
		}
		if seen[s.String()] {
			t.Errorf("duplicate display string %q", s.String())
		}
		seen[s.String()] = true
	}
	if Status(0).Valid() {
		t.Error("zero value must not be a valid status")
	}
}

func TestStatus_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Status{"8": Final})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"8":"Final"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var m map[string]Status
	if err := json.Unmarshal([]byte(`{"1":"Banana"}`), &m); !errors.Is(err, ErrUnrecognized) {
		t.Errorf("expected ErrUnrecognized from unmarshal, got %v", err)
	}

	if _, err := Status(0).MarshalText(); err == nil {
		t.Error("expected error marshaling zero status")
	}
}

// Parsing a status' display string always yields the same status.
func TestParse_StringRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Parse(s.String()) == s", prop.ForAll(
		func(i int) bool {
			s := All()[i]
			got, err := Parse(s.String())
			return err == nil && got == s
		},
		gen.IntRange(0, len(All())-1),
	))

	properties.Property("strings outside the set are rejected", prop.ForAll(
		func(s string) bool {
			_, err := Parse("x" + s)
			return errors.Is(err, ErrUnrecognized)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
