package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by tables and prompts.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
)

// StyleHeader is the dark title bar used by the confirmation prompt.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// Table styles.
var (
	StyleTableHeader = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	StyleTableRow    = lipgloss.NewStyle().Foreground(colorWhite)
)

// Utility styles.
var (
	StyleError   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorGray)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
)

// Named color styles for row and cell coloring.
var (
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
)

// PhaseStyle colors a lifecycle phase: hot red, warm yellow, cold blue.
// Anything else, including "delete" and "unmanaged", renders plain.
func PhaseStyle(phase string) lipgloss.Style {
	switch strings.ToLower(phase) {
	case "hot":
		return StyleRed
	case "warm":
		return StyleYellow
	case "cold":
		return StyleBlue
	default:
		return StyleTableRow
	}
}
