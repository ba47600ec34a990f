package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/series"
)

// cardChartHeight is the number of braille rows in a card chart.
const cardChartHeight = 4

// renderCard renders one series as a titled chart card.
func (m Model) renderCard(kind metric.Kind, width int, selected bool) string {
	s := m.board.Series(kind)
	scale := m.scales[kind]

	style := CardStyle.Width(width)
	if selected {
		style = CardSelectedStyle.Width(width)
	}

	// Inner width for content (account for card padding)
	innerWidth := width - 4

	lines := []string{
		renderCardLine(renderTitleLine(s, innerWidth), innerWidth),
		renderCardDivider(innerWidth),
	}

	chart := RenderBrailleChart(s.Data, innerWidth, cardChartHeight, KindColor(kind), scale)
	if chart == "" {
		lines = append(lines, renderCardLine(MutedStyle.Render("  waiting for data..."), innerWidth))
		for i := 1; i < cardChartHeight; i++ {
			lines = append(lines, renderCardLine("", innerWidth))
		}
	} else {
		lines = append(lines, strings.Split(chart, "\n")...)
	}

	lines = append(lines,
		renderCardDivider(innerWidth),
		renderCardLine(renderStatsLine(s, scale, innerWidth), innerWidth),
	)

	return style.Render(strings.Join(lines, "\n"))
}

// renderTitleLine puts the color swatch and label on the left and the
// latest value on the right.
func renderTitleLine(s series.Series, width int) string {
	swatch := lipgloss.NewStyle().Foreground(KindColor(s.Kind)).Render("━━")
	left := swatch + " " + TitleStyle.Render(s.Label)

	right := MutedStyle.Render("-")
	if _, v, ok := s.Last(); ok {
		right = ValueStyle.Render(formatValue(v))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderStatsLine summarizes the series under its chart, dropping trailing
// fields that do not fit.
func renderStatsLine(s series.Series, scale Scale, width int) string {
	if s.Len() == 0 {
		return LabelStyle.Render("0 pts")
	}

	step, _, _ := s.Last()
	parts := []string{
		fmt.Sprintf("step %s", formatStep(step)),
		fmt.Sprintf("%d pts", s.Len()),
	}
	if lo, hi, ok := axisRange(s.Data, scale); ok {
		parts = append(parts, formatValue(lo)+".."+formatValue(hi))
	}
	if scale == ScaleLog {
		parts = append(parts, "log")
	}

	for len(parts) > 1 && len(strings.Join(parts, "  ")) > width {
		parts = parts[:len(parts)-1]
	}
	return LabelStyle.Render(strings.Join(parts, "  "))
}
