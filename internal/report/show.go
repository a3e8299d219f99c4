package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"peptrack/internal/history"
	"peptrack/internal/snapshot"
	"peptrack/internal/status"
)

// SnapshotView summarizes a persisted snapshot.
type SnapshotView struct {
	SchemaVersion string         `json:"schemaVersion" yaml:"schemaVersion"`
	CapturedAt    time.Time      `json:"capturedAt" yaml:"capturedAt"`
	Documents     int            `json:"documents" yaml:"documents"`
	Counts        map[string]int `json:"counts" yaml:"counts"`
}

// Snapshot renders a summary of s. With FormatJSON or FormatYAML and full
// set, the whole persisted blob is emitted instead.
func (r *Renderer) Snapshot(s *snapshot.Snapshot, full bool) error {
	counts := s.Counts()

	switch r.opts.Format {
	case FormatJSON, FormatYAML:
		var v any = SnapshotView{
			SchemaVersion: s.SchemaVersion(),
			CapturedAt:    s.CapturedAt(),
			Documents:     s.Len(),
			Counts:        countsByName(counts),
		}
		if full {
			v = s.ToBlob()
		}
		if r.opts.Format == FormatJSON {
			return r.encodeJSON(v)
		}
		return r.encodeYAML(v)
	}

	var sb strings.Builder
	sb.WriteString(r.style(r.theme.Heading, fmt.Sprintf("%d documents", s.Len())))
	sb.WriteString(r.style(r.theme.Subtle, fmt.Sprintf(" captured %s (schema %s)", s.CapturedAt().Format(time.RFC3339), s.SchemaVersion())))
	sb.WriteString("\n")
	for _, st := range status.All() {
		if counts[st] == 0 {
			continue
		}
		label := r.paint(st, fmt.Sprintf("%-12s", st.String()+":"))
		sb.WriteString(fmt.Sprintf("  %s %5d\n", label, counts[st]))
	}
	if full {
		for _, id := range s.IDs() {
			st, err := s.Lookup(id)
			if err != nil {
				return err
			}
			sb.WriteString(fmt.Sprintf("%s %s\n", r.style(r.theme.Heading, r.opts.Label+" "+id+":"), r.Status(st)))
		}
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

// History renders journaled transitions, newest first.
func (r *Renderer) History(ts []history.Transition) error {
	if ts == nil {
		ts = []history.Transition{}
	}

	switch r.opts.Format {
	case FormatJSON:
		return r.encodeJSON(ts)
	case FormatYAML:
		return r.encodeYAML(ts)
	}

	if len(ts) == 0 {
		_, err := io.WriteString(r.w, "No transitions recorded\n")
		return err
	}

	var sb strings.Builder
	for _, t := range ts {
		old, oldErr := status.Parse(t.Old)
		cur, curErr := status.Parse(t.New)
		oldText, curText := t.Old, t.New
		if oldErr == nil {
			oldText = r.Status(old)
		}
		if curErr == nil {
			curText = r.Status(cur)
		}
		sb.WriteString(fmt.Sprintf("%s  %s %s -> %s\n",
			r.style(r.theme.Subtle, t.DetectedAt.Format(time.RFC3339)),
			r.style(r.theme.Heading, r.opts.Label+" "+t.Document+":"),
			oldText, curText,
		))
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

func countsByName(counts map[status.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for st, n := range counts {
		out[st.String()] = n
	}
	return out
}
