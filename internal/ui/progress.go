package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	progressFilled = '█'
	progressEmpty  = '░'
)

// RenderProgressBar renders done out of total as
//
//	[████████░░░░]  67%  670/1000
//
// width is the bar's inner width. A finished bar is green; a running one
// uses the brand color.
func RenderProgressBar(done, total, width int) string {
	if width <= 0 || total <= 0 {
		return ""
	}
	done = max(0, min(done, total))

	percent := float64(done) / float64(total) * 100
	filled := done * width / total

	color := ColorBrand
	if done == total {
		color = ColorSuccess
	}

	bar := "[" + strings.Repeat(string(progressFilled), filled) +
		strings.Repeat(string(progressEmpty), width-filled) + "]"

	return lipgloss.NewStyle().Foreground(color).Render(bar) +
		fmt.Sprintf(" %3.0f%%  %d/%d", percent, done, total)
}
