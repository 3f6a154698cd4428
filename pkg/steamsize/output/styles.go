package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// Color constants using ANSI 256-color palette.
const (
	// ColorPrimary is used for headers and sizes (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for updated and restored manifests (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for skipped manifests and dry runs (orange).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for failures (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles.
var (
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles.
var (
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SizeStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// StatusStyle returns the style used for a status marker.
func StatusStyle(s types.Status) lipgloss.Style {
	switch s {
	case types.StatusUpdated, types.StatusRestored:
		return SuccessStyle
	case types.StatusDryRun, types.StatusSkipped:
		return WarningStyle
	case types.StatusFailed:
		return ErrorStyle
	default:
		return MutedStyle
	}
}
