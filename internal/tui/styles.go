package tui

import "github.com/charmbracelet/lipgloss"

var (
	// primaryColor is the main theme color.
	primaryColor = lipgloss.Color("#4ECDC4")
	// errorColor indicates errors or failure messages.
	errorColor = lipgloss.Color("#FF6B6B")
	// subtleColor indicates less prominent UI elements.
	subtleColor = lipgloss.Color("#666666")
	// lipglossWhite is the foreground for the highlighted table row.
	lipglossWhite = lipgloss.Color("#FFFFFF")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	messageStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	promptStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(subtleColor)
)
