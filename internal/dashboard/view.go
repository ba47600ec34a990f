package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainwatch/internal/stream"
)

var (
	statusLiveStyle    = lipgloss.NewStyle().Foreground(ColorHealthy)
	statusPendingStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	statusDownStyle    = lipgloss.NewStyle().Foreground(ColorCritical)
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if line := m.renderErrorLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderCards())

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title, feed state, and ingest counters.
func (m Model) renderHeader() string {
	stats := m.ingest.Stats()

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("trainwatch")

	parts := []string{m.renderStatus()}
	if m.url != "" {
		parts = append(parts, m.url)
	}
	parts = append(parts,
		fmt.Sprintf("%d frames", stats.Received),
		fmt.Sprintf("%d unclassified", stats.Unclassified),
		fmt.Sprintf("%d malformed", stats.Malformed),
		m.lastFrameText(),
	)

	info := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(parts, " | "))

	return HeaderStyle.Render(title + info)
}

// renderStatus renders the feed state indicator.
func (m Model) renderStatus() string {
	spinner := ConnectingSpinnerFrames[m.spinnerFrame%len(ConnectingSpinnerFrames)]

	switch m.status {
	case stream.StatusConnected:
		return statusLiveStyle.Render(GlyphLive + " live")
	case stream.StatusConnecting:
		return statusPendingStyle.Render(spinner + " connecting")
	case stream.StatusReconnecting:
		text := "reconnecting"
		if m.attempt > 0 {
			text = fmt.Sprintf("reconnecting (attempt %d)", m.attempt)
		}
		return statusPendingStyle.Render(spinner + " " + text)
	default:
		return statusDownStyle.Render(GlyphDisconnected + " disconnected")
	}
}

// renderErrorLine explains why the feed went away, if it did.
func (m Model) renderErrorLine() string {
	if m.statusErr == nil || m.status == stream.StatusConnected {
		return ""
	}
	msg := strings.SplitN(m.statusErr.Error(), "\n", 2)[0]
	if m.width > 8 {
		msg = truncateWithEllipsis(msg, m.width-4)
	}
	return FooterStyle.Render(statusDownStyle.Render(msg))
}

// lastFrameText describes how long ago the last frame arrived.
func (m Model) lastFrameText() string {
	if m.lastFrame.IsZero() {
		return "no frames yet"
	}
	secs := int(m.now().Sub(m.lastFrame) / time.Second)
	switch {
	case secs <= 0:
		return "last frame just now"
	default:
		return fmt.Sprintf("last frame %ds ago", secs)
	}
}

// renderCards renders the grid of series cards.
func (m Model) renderCards() string {
	cardWidth := m.calculateCardWidth()

	cards := make([]string, 0, len(m.kinds))
	for i, kind := range m.kinds {
		cards = append(cards, m.renderCard(kind, cardWidth, i == m.selected))
	}

	return m.layoutCards(cards)
}

// layoutMode picks the column count for the terminal width.
func (m Model) layoutMode() LayoutMode {
	switch {
	case m.width >= BreakpointTriple:
		return LayoutTriple
	case m.width >= BreakpointDouble:
		return LayoutDouble
	default:
		return LayoutSingle
	}
}

// cardsPerRow returns the number of cards on each grid row.
func (m Model) cardsPerRow() int {
	switch m.layoutMode() {
	case LayoutTriple:
		return 3
	case LayoutDouble:
		return 2
	default:
		return 1
	}
}

// calculateCardWidth sizes cards so each row fills the terminal.
func (m Model) calculateCardWidth() int {
	if m.width == 0 {
		return 40
	}

	// Each card adds a border on both sides and a right margin.
	w := m.width/m.cardsPerRow() - 3
	if w < 20 {
		w = 20
	}
	return w
}

// layoutCards arranges cards in rows.
func (m Model) layoutCards(cards []string) string {
	if len(cards) == 0 {
		return ""
	}

	perRow := m.cardsPerRow()
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"tab/←↑→↓ select",
		"enter expand",
		"s scale",
		"c clear",
		"? help",
	}

	return FooterStyle.Render(strings.Join(hints, " | "))
}

// formatValue formats a sample for display, switching to exponent
// notation for very large or very small magnitudes.
func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}

	a := math.Abs(v)
	switch {
	case a == 0:
		return "0"
	case a >= 1e5 || a < 1e-3:
		return strconv.FormatFloat(v, 'e', 2, 64)
	case a >= 100:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

// formatStep prints a step without trailing zeros.
func formatStep(step float64) string {
	return strconv.FormatFloat(step, 'f', -1, 64)
}

// truncateWithEllipsis truncates a string to maxLen, adding ellipsis if needed.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	if lipgloss.Width(s) > maxLen {
		r := []rune(s)
		if len(r) > maxLen-3 {
			r = r[:maxLen-3]
		}
		return string(r) + "..."
	}
	return s
}
