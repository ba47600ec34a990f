package series

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New(metric.KindValAccuracy, 0)

	assert.Equal(t, metric.KindValAccuracy, s.Kind)
	assert.Equal(t, "Validation Accuracy", s.Label)
	assert.Equal(t, "#1cc88a", s.Color)
	assert.Empty(t, s.Labels)
	assert.Empty(t, s.Data)
	assert.Equal(t, 0, s.Len())

	_, _, ok := s.Last()
	assert.False(t, ok)
}

func TestAppend_ValueSemantics(t *testing.T) {
	s0 := New(metric.KindTrainAccuracy, 0)
	s1 := s0.Append(1, 0.5)
	s2 := s1.Append(2, 0.6)

	assert.Equal(t, 0, s0.Len())
	assert.Equal(t, []float64{1}, s1.Labels)
	assert.Equal(t, []float64{0.5}, s1.Data)
	assert.Equal(t, []float64{1, 2}, s2.Labels)
	assert.Equal(t, []float64{0.5, 0.6}, s2.Data)
}

func TestAppend_ForkedValuesStayIndependent(t *testing.T) {
	base := New(metric.KindLoss, 0)
	for i := 1; i <= 5; i++ {
		base = base.Append(float64(i), float64(i))
	}

	a := base.Append(6, 60)
	b := base.Append(6, 600)
	c := a.Append(7, 70)
	d := a.Append(7, 700)

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, base.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 60}, a.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 600}, b.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 60, 70}, c.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 60, 700}, d.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7}, d.Labels)
}

func TestAppend_OlderValuesSurviveGrowth(t *testing.T) {
	versions := []Series{New(metric.KindLoss, 3)}
	for i := 1; i <= 40; i++ {
		versions = append(versions, versions[len(versions)-1].Append(float64(i), float64(i)))
	}

	// Branch off every older value after the newest one has moved on.
	for i, v := range versions[:len(versions)-1] {
		branch := v.Append(-1, -1)
		_, last, ok := branch.Last()
		require.True(t, ok)
		assert.Equal(t, -1.0, last)

		_, got, _ := versions[i+1].Last()
		assert.Equal(t, float64(i+1), got, "version %d was overwritten", i+1)
	}
}

func TestAppend_ArrivalOrder(t *testing.T) {
	s := New(metric.KindLoss, 0)
	steps := []float64{5, 3, 9, 3, 1}
	for i, step := range steps {
		s = s.Append(step, float64(i))
		require.Equal(t, len(s.Labels), len(s.Data), "labels and data must stay aligned")
		require.Equal(t, i+1, s.Len())
	}

	assert.Equal(t, steps, s.Labels, "steps are kept in arrival order, not sorted")
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, s.Data)
}

func TestAppend_Retention(t *testing.T) {
	tests := []struct {
		name       string
		maxPoints  int
		appends    int
		wantLabels []float64
	}{
		{"unbounded", 0, 5, []float64{0, 1, 2, 3, 4}},
		{"under cap", 10, 3, []float64{0, 1, 2}},
		{"at cap", 3, 3, []float64{0, 1, 2}},
		{"evicts oldest", 3, 5, []float64{2, 3, 4}},
		{"cap of one", 1, 4, []float64{3}},
		{"negative is unbounded", -1, 4, []float64{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(metric.KindLoss, tt.maxPoints)
			for i := 0; i < tt.appends; i++ {
				s = s.Append(float64(i), float64(i)*10)
				require.Equal(t, len(s.Labels), len(s.Data))
			}

			assert.Equal(t, tt.wantLabels, s.Labels)
			want := make([]float64, len(tt.wantLabels))
			for i, l := range tt.wantLabels {
				want[i] = l * 10
			}
			assert.Equal(t, want, s.Data)
		})
	}
}

func TestAppend_EvictionKeepsPreviousValue(t *testing.T) {
	s := New(metric.KindLoss, 2).Append(1, 1).Append(2, 2)
	before := s.Clone()

	after := s.Append(3, 3)

	assert.Equal(t, before.Labels, s.Labels)
	assert.Equal(t, before.Data, s.Data)
	assert.Equal(t, []float64{2, 3}, after.Labels)
}

func TestTailAndClone(t *testing.T) {
	s := New(metric.KindGPUUtilization, 0)
	for i := 1; i <= 5; i++ {
		s = s.Append(float64(i), float64(i)/10)
	}

	tail := s.Tail(2)
	assert.Equal(t, []float64{4, 5}, tail.Labels)
	assert.Equal(t, []float64{0.4, 0.5}, tail.Data)
	assert.Equal(t, s.Label, tail.Label)

	assert.Equal(t, 5, s.Tail(100).Len())
	assert.Equal(t, 0, s.Tail(-1).Len())

	c := s.Clone()
	c.Data[0] = 99
	assert.Equal(t, 0.1, s.Data[0], "clone must not share storage")
}

func TestLast(t *testing.T) {
	s := New(metric.KindLoss, 0).Append(7, 1.5).Append(8, 1.25)

	step, value, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 8.0, step)
	assert.Equal(t, 1.25, value)
}

func TestBounds(t *testing.T) {
	s := New(metric.KindPerplexity, 0)
	_, _, ok := s.Bounds()
	assert.False(t, ok)

	s = s.Append(1, 3).Append(2, math.Inf(1)).Append(3, -1).Append(4, math.NaN()).Append(5, 2)
	lo, hi, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 3.0, hi)

	only := New(metric.KindPerplexity, 0).Append(1, math.Inf(1))
	_, _, ok = only.Bounds()
	assert.False(t, ok)
}

func TestMarshalJSON(t *testing.T) {
	s := New(metric.KindPerplexity, 0).Append(1, 1).Append(2, math.Inf(1))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "perplexity",
		"label": "Perplexity",
		"color": "#36b9cc",
		"labels": [1, 2],
		"data": [1, null]
	}`, string(data))
}

func TestMarshalJSON_Empty(t *testing.T) {
	data, err := json.Marshal(Series{Kind: metric.KindLoss})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"loss","label":"","color":"","labels":[],"data":[]}`, string(data))
}
