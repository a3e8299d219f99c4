package buildinfo

import "testing"

func TestString(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })

	Version, Commit, Date = "1.2.0", "abc123", "2024-01-01"
	if got := String(); got != "peptrack 1.2.0 (commit=abc123, date=2024-01-01)" {
		t.Errorf("unexpected version line %q", got)
	}
}
