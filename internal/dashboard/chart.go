package dashboard

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille characters give each terminal cell a 2x4 dot matrix:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// U+2800 is the empty pattern; each dot is one bit on top of it.
const brailleBase = '\u2800'

// brailleDots maps [row][col] within a cell to the dot's bit offset.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// Scale selects how values map onto chart rows.
type Scale int

const (
	ScaleLinear Scale = iota
	ScaleLog
)

func (s Scale) String() string {
	if s == ScaleLog {
		return "log"
	}
	return "linear"
}

// Toggle flips between linear and log.
func (s Scale) Toggle() Scale {
	if s == ScaleLog {
		return ScaleLinear
	}
	return ScaleLog
}

// project maps values onto the chart's vertical axis. Values the scale
// cannot show (non-finite, or non-positive on a log axis) become NaN and
// are drawn as gaps.
func project(data []float64, scale Scale) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			out[i] = math.NaN()
		case scale == ScaleLog && v <= 0:
			out[i] = math.NaN()
		case scale == ScaleLog:
			out[i] = math.Log10(v)
		default:
			out[i] = v
		}
	}
	return out
}

// bounds returns the min and max of the non-NaN values.
func bounds(data []float64) (lo, hi float64, ok bool) {
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// axisRange returns the plotted range in data units, so axis labels on a
// log chart read as values rather than exponents.
func axisRange(data []float64, scale Scale) (lo, hi float64, ok bool) {
	lo, hi, ok = bounds(project(data, scale))
	if ok && scale == ScaleLog {
		lo, hi = math.Pow(10, lo), math.Pow(10, hi)
	}
	return lo, hi, ok
}

// normalizeValue converts a value to the 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		return (val - minVal) / (maxVal - minVal)
	}
	return 0.5
}

// clampInt clamps an integer to [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// resampleData compresses data to targetSize points, keeping the max of
// each bucket so spikes survive. Shorter input is returned unchanged.
// A bucket holding only gaps stays a gap.
func resampleData(data []float64, targetSize int) []float64 {
	if targetSize <= 0 {
		return nil
	}
	if len(data) <= targetSize {
		return data
	}

	result := make([]float64, targetSize)
	bucketSize := float64(len(data)) / float64(targetSize)
	for i := 0; i < targetSize; i++ {
		start := int(float64(i) * bucketSize)
		end := int(float64(i+1) * bucketSize)
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			start = end - 1
		}

		maxVal := math.NaN()
		for _, v := range data[start:end] {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(maxVal) || v > maxVal {
				maxVal = v
			}
		}
		result[i] = maxVal
	}
	return result
}

// RenderBrailleChart draws data as a line chart using braille characters.
// Each character covers 2 samples horizontally and 4 levels vertically.
// Data longer than the chart is compressed; shorter data is drawn against
// the right edge so the newest sample is always in the last column.
// Consecutive samples are joined with vertical strokes so steep changes
// stay connected.
func RenderBrailleChart(data []float64, width, height int, color lipgloss.Color, scale Scale) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}

	targetPoints := width * 2
	points := resampleData(project(data, scale), targetPoints)
	offset := targetPoints - len(points)
	totalDots := height * 4

	set := func(x, y int) {
		charCol := x / 2
		row := height - 1 - y/4
		if charCol < 0 || charCol >= width || row < 0 {
			return
		}
		grid[row][charCol] |= rune(1) << brailleDots[3-y%4][x%2]
	}

	if lo, hi, ok := bounds(points); ok {
		prevY := -1
		for i, v := range points {
			if math.IsNaN(v) {
				prevY = -1
				continue
			}
			x := i + offset
			y := clampInt(int(math.Round(normalizeValue(v, lo, hi)*float64(totalDots-1))), totalDots-1)
			set(x, y)

			if prevY >= 0 {
				from, to := prevY, y
				if from > to {
					from, to = to, from
				}
				for dy := from + 1; dy < to; dy++ {
					set(x, dy)
				}
			}
			prevY = y
		}
	}

	style := lipgloss.NewStyle().Foreground(color).Background(ColorSurfaceBg)
	lines := make([]string, height)
	for i, row := range grid {
		lines[i] = style.Render(string(row))
	}
	return strings.Join(lines, "\n")
}
