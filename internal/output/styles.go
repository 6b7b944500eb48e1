package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the terminal styles used by the CLI.
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Highlight lipgloss.Style
	Score     lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Header:    lipgloss.NewStyle().Bold(true),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		Score:     lipgloss.NewStyle().Foreground(lipgloss.Color("87")),
	}
}

// NoColorStyles returns a style set with no colors applied.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:     plain,
		Header:    plain,
		Success:   plain,
		Warning:   plain,
		Error:     plain,
		Muted:     plain,
		Highlight: plain,
		Score:     plain,
	}
}

// GetStyles returns colored or plain styles based on noColor.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
