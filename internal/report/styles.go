// Package report renders workflow state, run summaries and journal history for the terminal.
package report

import "github.com/charmbracelet/lipgloss"

var (
	green  = lipgloss.AdaptiveColor{Dark: "#63C174", Light: "#2E7D32"}
	red    = lipgloss.AdaptiveColor{Dark: "#E5534B", Light: "#C62828"}
	yellow = lipgloss.AdaptiveColor{Dark: "#DAA520", Light: "#B8860B"}
	grey   = lipgloss.AdaptiveColor{Dark: "#8B949E", Light: "#6E7781"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(yellow)
	labelStyle   = lipgloss.NewStyle().Foreground(grey).Width(20)
	okStyle      = lipgloss.NewStyle().Foreground(green)
	failStyle    = lipgloss.NewStyle().Foreground(red)
	pendingStyle = lipgloss.NewStyle().Foreground(yellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(grey).Italic(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(grey).
			Padding(0, 1).
			AlignHorizontal(lipgloss.Left)
)
