package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// recentSamples is how many samples the detail view lists.
const recentSamples = 50

var detailContainerStyle = lipgloss.NewStyle().Padding(0, 2)

// renderDetailView renders the expanded single-series view.
func (m Model) renderDetailView() string {
	var b strings.Builder

	b.WriteString(m.renderDetailHeader())
	b.WriteString("\n\n")

	if m.viewportReady {
		b.WriteString(m.detailViewport.View())
	} else {
		b.WriteString(m.renderDetailContent())
	}

	b.WriteString("\n")
	b.WriteString(m.renderDetailFooter())

	return b.String()
}

// renderDetailHeader renders the series name and feed status prominently.
func (m Model) renderDetailHeader() string {
	kind := m.SelectedKind()
	title := lipgloss.NewStyle().
		Foreground(KindColor(kind)).
		Bold(true).
		Render(kind.Label())

	return HeaderStyle.Render(title + "  " + m.renderStatus())
}

// renderDetailContent renders the large chart and the recent sample table.
// It is the viewport's content, so it may be taller than the terminal.
func (m Model) renderDetailContent() string {
	kind := m.SelectedKind()
	s := m.board.Series(kind)
	scale := m.scales[kind]

	width := m.width - 4
	if width < 40 {
		width = 40
	}

	latest := "-"
	if _, v, ok := s.Last(); ok {
		latest = formatValue(v)
	}

	var lines []string
	lines = append(lines, SectionHeader(kind.Label(), latest, width))

	chart := RenderBrailleChart(s.Data, width-4, m.detailChartHeight(), KindColor(kind), scale)
	if chart == "" {
		lines = append(lines, SectionContentLine(MutedStyle.Render("waiting for data..."), width))
	} else {
		for _, row := range strings.Split(chart, "\n") {
			lines = append(lines, SectionContentLine(row, width))
		}
	}

	axis := fmt.Sprintf("%s scale  %d points", scale, s.Len())
	if lo, hi, ok := axisRange(s.Data, scale); ok {
		axis = fmt.Sprintf("%s scale  range %s..%s  %d points", scale, formatValue(lo), formatValue(hi), s.Len())
	}
	lines = append(lines, SectionContentLine(LabelStyle.Render(axis), width))
	lines = append(lines, SectionFooter(width))
	lines = append(lines, "")

	tail := s.Tail(recentSamples)
	lines = append(lines, SectionHeader("Recent samples", fmt.Sprintf("%d of %d", tail.Len(), s.Len()), width))
	lines = append(lines, SectionContentLine(
		LabelStyle.Render(fmt.Sprintf("%12s  %14s  %14s", "step", "value", "change")), width))

	if tail.Len() == 0 {
		lines = append(lines, SectionContentLine(MutedStyle.Render("no samples yet"), width))
	}
	for i := tail.Len() - 1; i >= 0; i-- {
		change := ""
		if i > 0 {
			d := tail.Data[i] - tail.Data[i-1]
			change = formatValue(d)
			if d > 0 {
				change = "+" + change
			}
		}
		row := fmt.Sprintf("%12s  %14s  %14s", formatStep(tail.Labels[i]), formatValue(tail.Data[i]), change)
		lines = append(lines, SectionContentLine(row, width))
	}
	lines = append(lines, SectionFooter(width))

	return detailContainerStyle.Render(strings.Join(lines, "\n"))
}

// detailChartHeight scales the detail chart with the terminal height.
func (m Model) detailChartHeight() int {
	h := m.height / 3
	if h < 4 {
		h = 4
	}
	if h > 16 {
		h = 16
	}
	return h
}

// renderDetailFooter renders navigation hints for the detail view.
func (m Model) renderDetailFooter() string {
	hints := []string{
		"esc back",
		"tab next series",
		"↑↓ scroll",
		"s scale",
		"q quit",
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}
