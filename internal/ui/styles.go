package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. One accent plus the change colors used in diffs.
const (
	ColorAccent    = "154" // lime, headers and success
	ColorAccentDim = "106"
	ColorGray      = "245" // labels
	ColorDarkGray  = "238" // borders, dim text
	ColorRed       = "196"
	ColorYellow    = "220"
	ColorCyan      = "80"
)

// Styles holds every style used by the renderers.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
	State   lipgloss.Style

	// Change markers in dry-run output.
	Added    lipgloss.Style
	Modified lipgloss.Style
	Deleted  lipgloss.Style

	Panel     lipgloss.Style
	Sparkline lipgloss.Style
}

// DefaultStyles returns the colored styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		State:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentDim)),

		Added:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Modified: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCyan)),
		Deleted:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		Sparkline: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:    plain,
		Success:   plain,
		Warning:   plain,
		Error:     plain,
		Dim:       plain,
		Label:     plain,
		State:     plain,
		Added:     plain,
		Modified:  plain,
		Deleted:   plain,
		Panel:     plain,
		Sparkline: plain,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
