package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorBlue    = lipgloss.Color("#5FAFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PlayingDotStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	PausedDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	CountBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	// Conversation roles.
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(ColorBlue).
				Bold(true)

	// Inline citation markers. Unresolved markers render dim and are not
	// navigable.
	CitationStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Underline(true)

	CitationActiveStyle = lipgloss.NewStyle().
				Foreground(ColorMagenta).
				Bold(true).
				Underline(true)

	CitationDeadStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	// Transcript.
	ActiveSegmentStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	SpeakerStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	// Documents.
	HeadingStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	DocumentBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorMagenta)

	// Video status.
	StatusReadyStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	StatusBusyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorRed)
)

// StatusStyleFor picks the badge style for a pipeline status string.
func StatusStyleFor(status string) lipgloss.Style {
	switch status {
	case "ready":
		return StatusReadyStyle
	case "error":
		return StatusErrorStyle
	}
	return StatusBusyStyle
}
