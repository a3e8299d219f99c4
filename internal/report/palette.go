package report

import (
	"github.com/charmbracelet/lipgloss"

	"peptrack/internal/status"
)

// Palette assigns each status its display color (ANSI 16-color indices).
type Palette map[status.Status]lipgloss.Color

// DefaultPalette returns the standard status colors.
func DefaultPalette() Palette {
	return Palette{
		status.Accepted:    lipgloss.Color("2"),  // dark green
		status.Active:      lipgloss.Color("10"), // green
		status.Deferred:    lipgloss.Color("3"),  // gold
		status.Draft:       lipgloss.Color("8"),  // dark gray
		status.Final:       lipgloss.Color("4"),  // dark blue
		status.Provisional: lipgloss.Color("5"),  // dark purple
		status.Rejected:    lipgloss.Color("1"),  // dark red
		status.Replaced:    lipgloss.Color("11"), // yellow
		status.Withdrawn:   lipgloss.Color("13"), // light purple
		status.Superseded:  lipgloss.Color("6"),  // dark aqua
	}
}

// theme holds the non-status styles.
type theme struct {
	Heading lipgloss.Style
	Quiet   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Subtle  lipgloss.Style
}

func newTheme(r *lipgloss.Renderer) theme {
	return theme{
		Heading: r.NewStyle().Bold(true),
		Quiet:   r.NewStyle().Foreground(lipgloss.Color("9")),
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		Subtle:  r.NewStyle().Faint(true),
	}
}
