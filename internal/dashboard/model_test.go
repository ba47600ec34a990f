package dashboard

import (
	"errors"
	"math"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	m, feed := newTestModel(t)

	assert.Equal(t, stream.StatusConnecting, m.Status())
	assert.Equal(t, metric.KindTrainAccuracy, m.SelectedKind())
	assert.Equal(t, ViewGrid, m.viewMode)
	assert.Equal(t, ScaleLog, m.scales[metric.KindPerplexity], "perplexity starts on a log axis")
	assert.Equal(t, ScaleLinear, m.scales[metric.KindLoss])
	assert.Zero(t, feed.closes.Load())

	for _, k := range metric.Kinds() {
		assert.Zero(t, m.Series(k).Len())
	}
}

func TestModel_FramesUpdateSeries(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, framesMsg{
		frame(t, "train", "accuracy", 1, 0.5),
		frame(t, "train", "accuracy", 2, 0.6),
	})
	assert.NotNil(t, cmd, "model keeps listening after a batch")

	s := m.Series(metric.KindTrainAccuracy)
	assert.Equal(t, []float64{1, 2}, s.Labels)
	assert.Equal(t, []float64{0.5, 0.6}, s.Data)
	assert.False(t, m.lastFrame.IsZero())
}

func TestModel_PerplexityTransform(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, framesMsg{frame(t, "eval", "loss", 5, 0)})

	s := m.Series(metric.KindPerplexity)
	assert.Equal(t, []float64{5}, s.Labels)
	assert.Equal(t, []float64{1.0}, s.Data)

	m, _ = update(t, m, framesMsg{frame(t, "eval", "loss", 6, 2)})
	_, v, ok := m.Series(metric.KindPerplexity).Last()
	require.True(t, ok)
	assert.InDelta(t, math.Exp(2), v, 1e-12)
}

func TestModel_IgnoresUnclassifiedAndMalformed(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, framesMsg{frame(t, "train", "loss", 1, 2.3)})

	m, _ = update(t, m, framesMsg{
		frame(t, "unknown", "foo", 2, 1),
		{Data: []byte(`{"type":"train","metric":"loss","step":`), ReceivedAt: time.Now()},
		{Data: []byte(`not json`), ReceivedAt: time.Now()},
	})

	for _, k := range metric.Kinds() {
		want := 0
		if k == metric.KindLoss {
			want = 1
		}
		assert.Equal(t, want, m.Series(k).Len(), k.String())
	}

	stats := m.Stats()
	assert.EqualValues(t, 4, stats.Received)
	assert.EqualValues(t, 1, stats.Applied)
	assert.EqualValues(t, 1, stats.Unclassified)
	assert.EqualValues(t, 2, stats.Malformed)
}

func TestModel_StatusUpdates(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, statusMsg{Status: stream.StatusConnected})
	assert.NotNil(t, cmd)
	assert.Equal(t, stream.StatusConnected, m.Status())

	lost := errors.New("connection reset")
	m, _ = update(t, m, statusMsg{Status: stream.StatusReconnecting, Attempt: 3, Err: lost})
	assert.Equal(t, stream.StatusReconnecting, m.Status())
	assert.Equal(t, 3, m.attempt)
	assert.Equal(t, lost, m.statusErr)
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.True(t, m.viewportReady)
	assert.Equal(t, 120, m.detailViewport.Width)
	assert.Equal(t, 35, m.detailViewport.Height)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 3})
	assert.Equal(t, 60, m.detailViewport.Width)
	assert.Equal(t, 1, m.detailViewport.Height)
}

func TestModel_CloseOnce(t *testing.T) {
	m, feed := newTestModel(t)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	// Copies share the same shutdown state.
	copied := m
	require.NoError(t, copied.Close())

	assert.EqualValues(t, 1, feed.closes.Load())
}

func TestModel_QuitClosesFeed(t *testing.T) {
	m, feed := newTestModel(t)

	m, cmd := update(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())

	require.NoError(t, m.Close())
	assert.EqualValues(t, 1, feed.closes.Load())
}

func TestWaitForFrames_Batches(t *testing.T) {
	m, feed := newTestModel(t)

	feed.frames <- frame(t, "train", "accuracy", 1, 0.5)
	feed.frames <- frame(t, "val", "accuracy", 1, 0.4)
	feed.frames <- frame(t, "system", "gpu_util", 1, 0.8)

	msg := m.waitForFrames()()
	batch, ok := msg.(framesMsg)
	require.True(t, ok)
	assert.Len(t, batch, 3)
}

func TestWaitForFrames_StopsAfterClose(t *testing.T) {
	m, _ := newTestModel(t)
	require.NoError(t, m.Close())

	done := make(chan tea.Msg, 1)
	go func() { done <- m.waitForFrames()() }()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("waitForFrames did not return after Close")
	}
}

func TestWaitForStatus(t *testing.T) {
	m, feed := newTestModel(t)
	feed.statuses <- stream.StatusUpdate{Status: stream.StatusConnected}

	msg := m.waitForStatus()()
	su, ok := msg.(statusMsg)
	require.True(t, ok)
	assert.Equal(t, stream.StatusConnected, su.Status)
}
