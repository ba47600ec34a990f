package dashboard

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScale(t *testing.T) {
	assert.Equal(t, "linear", ScaleLinear.String())
	assert.Equal(t, "log", ScaleLog.String())
	assert.Equal(t, ScaleLog, ScaleLinear.Toggle())
	assert.Equal(t, ScaleLinear, ScaleLog.Toggle())
}

func TestProject(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		scale Scale
		want  []float64
	}{
		{
			name:  "linear passes finite values through",
			data:  []float64{-1, 0, 2.5},
			scale: ScaleLinear,
			want:  []float64{-1, 0, 2.5},
		},
		{
			name:  "log takes base 10",
			data:  []float64{1, 10, 1000},
			scale: ScaleLog,
			want:  []float64{0, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := project(tt.data, tt.scale)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestProject_Gaps(t *testing.T) {
	got := project([]float64{math.Inf(1), math.NaN(), 0, -3, 100}, ScaleLog)
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d should be a gap", i)
	}
	assert.InDelta(t, 2, got[4], 1e-9)

	linear := project([]float64{math.Inf(-1), -3}, ScaleLinear)
	assert.True(t, math.IsNaN(linear[0]))
	assert.Equal(t, -3.0, linear[1])
}

func TestBounds(t *testing.T) {
	lo, hi, ok := bounds([]float64{math.NaN(), 3, -1, math.NaN(), 7})
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	_, _, ok = bounds([]float64{math.NaN()})
	assert.False(t, ok)

	_, _, ok = bounds(nil)
	assert.False(t, ok)
}

func TestAxisRange_Log(t *testing.T) {
	lo, hi, ok := axisRange([]float64{0, 2, 200}, ScaleLog)
	require.True(t, ok)
	assert.InDelta(t, 2, lo, 1e-9)
	assert.InDelta(t, 200, hi, 1e-9)
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, 0.0, normalizeValue(0, 0, 10))
	assert.Equal(t, 1.0, normalizeValue(10, 0, 10))
	assert.Equal(t, 0.25, normalizeValue(2.5, 0, 10))
	assert.Equal(t, 0.5, normalizeValue(3, 3, 3), "flat range sits in the middle")
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, clampInt(-5, 10))
	assert.Equal(t, 10, clampInt(50, 10))
	assert.Equal(t, 4, clampInt(4, 10))
}

func TestResampleData(t *testing.T) {
	t.Run("shorter input is unchanged", func(t *testing.T) {
		data := []float64{1, 2, 3}
		assert.Equal(t, data, resampleData(data, 10))
	})

	t.Run("downsampling keeps bucket peaks", func(t *testing.T) {
		data := []float64{1, 9, 2, 3, 8, 4}
		assert.Equal(t, []float64{9, 8}, resampleData(data, 2))
	})

	t.Run("all-gap bucket stays a gap", func(t *testing.T) {
		got := resampleData([]float64{math.NaN(), math.NaN(), 1, 2}, 2)
		require.Len(t, got, 2)
		assert.True(t, math.IsNaN(got[0]))
		assert.Equal(t, 2.0, got[1])
	})

	t.Run("zero target", func(t *testing.T) {
		assert.Nil(t, resampleData([]float64{1}, 0))
	})
}

func TestRenderBrailleChart_Empty(t *testing.T) {
	assert.Empty(t, RenderBrailleChart(nil, 10, 2, ColorValue, ScaleLinear))
	assert.Empty(t, RenderBrailleChart([]float64{1}, 0, 2, ColorValue, ScaleLinear))
	assert.Empty(t, RenderBrailleChart([]float64{1}, 10, 0, ColorValue, ScaleLinear))
}

func TestRenderBrailleChart_Dimensions(t *testing.T) {
	data := make([]float64, 500)
	for i := range data {
		data[i] = math.Sin(float64(i) / 20)
	}

	out := RenderBrailleChart(data, 30, 3, ColorValue, ScaleLinear)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 30, lipgloss.Width(line))
	}
}

func TestRenderBrailleChart_ConnectsSamples(t *testing.T) {
	// Bottom-left dot, top-right dot, and the two dots between them on the right.
	out := RenderBrailleChart([]float64{0, 1}, 1, 1, ColorValue, ScaleLinear)
	assert.Equal(t, "⡸", out)
}

func TestRenderBrailleChart_RightAligned(t *testing.T) {
	// A flat single sample sits mid-height in the last column.
	out := RenderBrailleChart([]float64{5}, 2, 1, ColorValue, ScaleLinear)
	assert.Equal(t, "⠀⠐", out)
}

func TestRenderBrailleChart_LogGapsAreBlank(t *testing.T) {
	out := RenderBrailleChart([]float64{0, -1}, 1, 1, ColorValue, ScaleLog)
	assert.Equal(t, string(brailleBase), out)
}
