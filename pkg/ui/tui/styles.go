package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	darkBg      = lipgloss.Color("#0A0E27")
	dimWhite    = lipgloss.Color("#B0B0B0")
	brightWhite = lipgloss.Color("#FFFFFF")
	errorRed    = lipgloss.Color("#FF0000")
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Width(16)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(neonOrange).
			Bold(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(dimWhite)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Italic(true)

	titleStyle = lipgloss.NewStyle().
			Background(neonMagenta).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	rateStyle = lipgloss.NewStyle().
			Foreground(neonCyan)
)

// StateStyle returns the style used to render a run state
func StateStyle(s RunState) lipgloss.Style {
	switch s {
	case RunFinished:
		return successStyle
	case RunFailed:
		return errorStyle
	case RunStopping:
		return warningStyle
	default:
		return lipgloss.NewStyle().Foreground(neonYellow).Bold(true)
	}
}
