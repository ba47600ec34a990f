package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Brand accents used by the header and spinner.
const (
	ColorBrand  lipgloss.Color = "#4e73df"
	ColorAccent lipgloss.Color = "#36b9cc"
	ColorRule   lipgloss.Color = "#3a3a4a"
)

// GradientColors is cycled through by the spinner.
var GradientColors = []lipgloss.Color{
	"#4e73df",
	"#36b9cc",
	"#1cc88a",
	"#f6c23e",
}

// SuccessStyle renders success messages.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle renders failures.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WarningStyle renders warnings.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// MutedStyle renders secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// DisableColors forces monochrome output for every lipgloss renderer,
// including the dashboard's.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
