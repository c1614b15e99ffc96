package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
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

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	TimerStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	SpectrumLowStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	SpectrumHighStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)
)

// Styles for rendered note blocks.
var (
	Heading1Style = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	Heading2Style = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	Heading3Style = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGray)

	BulletStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	BoldTextStyle = lipgloss.NewStyle().
			Bold(true)
)
