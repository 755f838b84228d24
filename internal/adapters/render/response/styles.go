package response

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	sender     lipgloss.Style
	detail     lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	ref        lipgloss.Style
	meta       lipgloss.Style
	sparkline  lipgloss.Style
	kindLabel  lipgloss.Style
	freshLabel lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		sender:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		ref:        lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		meta:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		sparkline:  lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		kindLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		freshLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}
}
