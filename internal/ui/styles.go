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

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	NoteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PhaseStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	InTuneStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	CloseStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	FarStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	ListeningStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

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

	InstructionStyle = lipgloss.NewStyle().
				Foreground(ColorWhite)

	StepTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorYellow)

	DoneKeyStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	CurrentKeyStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	PendingKeyStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)
