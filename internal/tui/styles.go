package tui

import "github.com/charmbracelet/lipgloss"

var (
	amber     = lipgloss.Color("#F59E0B")
	rose      = lipgloss.Color("#F43F5E")
	emerald   = lipgloss.Color("#10B981")
	mutedGray = lipgloss.Color("#6B7280")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 1).
			Width(60)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(amber)

	successToastStyle = lipgloss.NewStyle().
				Foreground(emerald)

	errorToastStyle = lipgloss.NewStyle().
			Foreground(rose)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray)
)
