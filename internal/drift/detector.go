// Package drift compares two catalog snapshots and reports status changes.
package drift

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"peptrack/internal/status"
)

// Entries maps a document id to its status.
type Entries map[string]status.Status

// Change is a single document's status transition.
type Change struct {
	Old status.Status `json:"old" yaml:"old"`
	New status.Status `json:"new" yaml:"new"`
}

// ChangeSet maps a document id to its transition.
type ChangeSet map[string]Change

// Empty reports whether no document changed.
func (c ChangeSet) Empty() bool {
	return len(c) == 0
}

// IDs returns the changed document ids in display order.
func (c ChangeSet) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// Diff returns every id in old whose status differs in current.
//
// Ids missing from current and ids that only appear in current are not
// reported.
func Diff(old, current Entries) ChangeSet {
	changes := make(ChangeSet)
	for id, was := range old {
		now, ok := current[id]
		if !ok || now == was {
			continue
		}
		changes[id] = Change{Old: was, New: now}
	}
	return changes
}

// Elapsed returns to - from.
func Elapsed(from, to time.Time) time.Duration {
	return to.Sub(from)
}

// FormatElapsed renders d in its largest non-zero unit: "2 days", "hour",
// "15 minutes". A magnitude of one renders as the bare unit so it reads
// naturally after "in the last". Negative durations render as zero seconds.
func FormatElapsed(d time.Duration) string {
	seconds := int64(d.Round(time.Second) / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	days, seconds := seconds/86400, seconds%86400
	hours, seconds := seconds/3600, seconds%3600
	minutes, seconds := seconds/60, seconds%60

	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// SortIDs orders ids numerically when both are integers and lexically
// otherwise, with numeric ids first.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.Atoi(ids[i])
		b, bErr := strconv.Atoi(ids[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
