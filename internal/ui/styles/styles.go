// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Titles
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BBBBBB"} // Network, air time
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, footers

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Selection indicator color (used for ">" prefix in lists)
	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	// Show status colors
	ShowWatchingColor  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ShowCompletedColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ShowPlannedColor   = lipgloss.AdaptiveColor{Light: "#FF9F43", Dark: "#FECA57"}
	ShowDroppedColor   = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}

	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	TitleStyle       = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	SelectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)
	SecondaryStyle   = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	MutedStyle       = lipgloss.NewStyle().Foreground(TextMutedColor)

	DayHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(BorderFocusColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
)

// StatusStyle returns the foreground style for a show status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "watching":
		return lipgloss.NewStyle().Foreground(ShowWatchingColor)
	case "completed":
		return lipgloss.NewStyle().Foreground(ShowCompletedColor)
	case "planned":
		return lipgloss.NewStyle().Foreground(ShowPlannedColor)
	case "dropped":
		return lipgloss.NewStyle().Foreground(ShowDroppedColor).Italic(true)
	default:
		return MutedStyle
	}
}
