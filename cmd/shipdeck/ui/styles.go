// Package ui is the interactive wizard: Upload → Review → Shipping →
// Purchase over the batch store. All state changes flow through store
// actions; the pages only read and render.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorDanger  = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorMuted   = lipgloss.Color("241")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	stepStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	stepOnStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	statusStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorDanger)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	okStyle     = lipgloss.NewStyle().Foreground(colorAccent)

	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)
