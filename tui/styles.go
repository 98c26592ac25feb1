package tui

import (
	"charm.land/lipgloss/v2"
)

type styles struct {
	title    lipgloss.Style
	pane     lipgloss.Style
	focused  lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	status   lipgloss.Style
	errText  lipgloss.Style
	warnText lipgloss.Style
	help     lipgloss.Style
	dim      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		pane:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8")),
		focused:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		header:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cell:     lipgloss.NewStyle().Padding(0, 1),
		status:   lipgloss.NewStyle().Bold(true),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		warnText: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		dim:      lipgloss.NewStyle().Faint(true),
	}
}
