package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo contains information to display in the header.
type HeaderInfo struct {
	Version string
	Tagline string   // e.g. "metrics relay"
	Details []string // extra muted lines, e.g. listen address
}

// HeaderWidth is the width of the header divider.
const HeaderWidth = 50

// RenderHeader renders the banner printed by long-running commands.
func RenderHeader(info HeaderInfo) string {
	title := lipgloss.NewStyle().Foreground(ColorBrand).Bold(true)
	version := lipgloss.NewStyle().Foreground(ColorAccent)
	rule := lipgloss.NewStyle().Foreground(ColorRule)

	var b strings.Builder
	b.WriteString(title.Render("trainwatch"))
	if info.Version != "" {
		b.WriteString(" ")
		b.WriteString(version.Render(info.Version))
	}
	b.WriteString("\n")

	if info.Tagline != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorSecondary).Render(info.Tagline))
		b.WriteString("\n")
	}
	for _, d := range info.Details {
		b.WriteString(MutedStyle().Render(d))
		b.WriteString("\n")
	}

	b.WriteString(rule.Render(strings.Repeat("━", HeaderWidth)))
	b.WriteString("\n")
	return b.String()
}

// PrintHeader writes the header to w.
func PrintHeader(w io.Writer, info HeaderInfo) {
	_, _ = io.WriteString(w, RenderHeader(info))
}
