// Package report renders check results, snapshots and history for the
// terminal, CI logs, or machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"peptrack/internal/drift"
	"peptrack/internal/status"
	"peptrack/internal/tracker"
)

// Format selects the output encoding.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatCI     Format = "ci"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// DefaultLabel prefixes document ids in human output.
const DefaultLabel = "PEP"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatCI, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected pretty|ci|json|yaml)", s)
	}
}

// Options configures a Renderer.
type Options struct {
	Format  Format
	NoColor bool
	Label   string
	Palette Palette

	// Stderr receives diagnostics such as the missing-state notice.
	// Defaults to os.Stderr.
	Stderr io.Writer
}

// Renderer writes reports to w. Color is used only when w is a terminal and
// NoColor is unset.
type Renderer struct {
	w       io.Writer
	errW    io.Writer
	opts    Options
	plain   bool
	palette map[status.Status]lipgloss.Style
	theme   theme
	errTone lipgloss.Style
}

// NewRenderer creates a renderer for w.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatPretty
	}
	if opts.Label == "" {
		opts.Label = DefaultLabel
	}
	if opts.Palette == nil {
		opts.Palette = DefaultPalette()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	lr := lipgloss.NewRenderer(w)
	r := &Renderer{
		w:       w,
		errW:    opts.Stderr,
		opts:    opts,
		plain:   opts.NoColor,
		palette: make(map[status.Status]lipgloss.Style, len(opts.Palette)),
		theme:   newTheme(lr),
		errTone: newTheme(lipgloss.NewRenderer(opts.Stderr)).Failure,
	}
	for st, c := range opts.Palette {
		r.palette[st] = lr.NewStyle().Foreground(c)
	}
	return r
}

// ChangeView is the machine-readable form of one transition.
type ChangeView struct {
	ID  string `json:"id" yaml:"id"`
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// CheckView is the machine-readable form of a check result.
type CheckView struct {
	RunID              string       `json:"runId" yaml:"runId"`
	Outcome            string       `json:"outcome" yaml:"outcome"`
	Elapsed            string       `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
	ElapsedSeconds     int64        `json:"elapsedSeconds" yaml:"elapsedSeconds"`
	PreviousCapturedAt *time.Time   `json:"previousCapturedAt,omitempty" yaml:"previousCapturedAt,omitempty"`
	CapturedAt         time.Time    `json:"capturedAt" yaml:"capturedAt"`
	Documents          int          `json:"documents" yaml:"documents"`
	Saved              bool         `json:"saved" yaml:"saved"`
	Changes            []ChangeView `json:"changes" yaml:"changes"`
}

// NewCheckView flattens a result into its machine-readable form.
func NewCheckView(res tracker.Result) CheckView {
	v := CheckView{
		RunID:          res.RunID,
		Outcome:        string(res.Outcome),
		Elapsed:        res.ElapsedText,
		ElapsedSeconds: int64(res.Elapsed.Round(time.Second) / time.Second),
		Saved:          res.Saved,
		Changes:        []ChangeView{},
	}
	if res.Current != nil {
		v.CapturedAt = res.Current.CapturedAt()
		v.Documents = res.Current.Len()
	}
	if res.Previous != nil {
		at := res.Previous.CapturedAt()
		v.PreviousCapturedAt = &at
	}
	for _, id := range res.Changes.IDs() {
		c := res.Changes[id]
		v.Changes = append(v.Changes, ChangeView{ID: id, Old: c.Old.String(), New: c.New.String()})
	}
	return v
}

// Check renders the result of a check. statePath names the state file in
// the message printed after the first run.
func (r *Renderer) Check(res tracker.Result, statePath string) error {
	switch r.opts.Format {
	case FormatJSON:
		return r.encodeJSON(NewCheckView(res))
	case FormatYAML:
		return r.encodeYAML(NewCheckView(res))
	case FormatCI:
		_, err := io.WriteString(r.w, r.checkCI(res, statePath))
		return err
	default:
		if res.Outcome == tracker.OutcomeInitialized {
			msg := r.style(r.errTone, filepath.Base(statePath)+" not found.")
			if _, err := fmt.Fprintln(r.errW, msg); err != nil {
				return err
			}
		}
		_, err := io.WriteString(r.w, r.checkPretty(res, statePath))
		return err
	}
}

func (r *Renderer) checkPretty(res tracker.Result, statePath string) string {
	var sb strings.Builder
	name := filepath.Base(statePath)

	switch res.Outcome {
	case tracker.OutcomeInitialized:
		sb.WriteString(r.style(r.theme.Success, name+" created. Run the program again.") + "\n")
	case tracker.OutcomeUnchanged:
		sb.WriteString(r.style(r.theme.Quiet, fmt.Sprintf("No updates detected in the last %s.", res.ElapsedText)) + "\n")
	default:
		sb.WriteString(fmt.Sprintf("Updates detected in the last %s:\n", res.ElapsedText))
		for _, id := range res.Changes.IDs() {
			sb.WriteString(r.changeLine(id, res.Changes[id]) + "\n")
		}
	}
	return sb.String()
}

func (r *Renderer) checkCI(res tracker.Result, statePath string) string {
	var sb strings.Builder

	switch res.Outcome {
	case tracker.OutcomeInitialized:
		sb.WriteString(fmt.Sprintf("::notice::%s created with %d documents\n", filepath.Base(statePath), res.Current.Len()))
	case tracker.OutcomeUnchanged:
		sb.WriteString(fmt.Sprintf("No updates detected in the last %s.\n", res.ElapsedText))
	default:
		for _, id := range res.Changes.IDs() {
			c := res.Changes[id]
			sb.WriteString(fmt.Sprintf("::notice title=%s %s::%s -> %s\n", r.opts.Label, id, c.Old, c.New))
		}
		sb.WriteString(fmt.Sprintf("\n%d status change(s) detected in the last %s\n", len(res.Changes), res.ElapsedText))
	}
	return sb.String()
}

// changeLine renders "PEP 8: Draft -> Final".
func (r *Renderer) changeLine(id string, c drift.Change) string {
	head := r.style(r.theme.Heading, fmt.Sprintf("%s %s:", r.opts.Label, id))
	return fmt.Sprintf("%s %s -> %s", head, r.Status(c.Old), r.Status(c.New))
}

// Status renders st in its palette color.
func (r *Renderer) Status(st status.Status) string {
	return r.paint(st, st.String())
}

// paint renders text in the palette color of st. Pad text before painting
// it; escape sequences would otherwise count toward the width.
func (r *Renderer) paint(st status.Status, text string) string {
	style, ok := r.palette[st]
	if !ok {
		return text
	}
	return r.style(style, text)
}

// Error renders a fatal message.
func (r *Renderer) Error(msg string) string {
	return r.style(r.theme.Failure, msg)
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) encodeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) encodeYAML(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
