package dashboard

import (
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/stream"
	"github.com/stretchr/testify/require"
)

func init() {
	// Plain output so assertions can match rendered text.
	lipgloss.SetColorProfile(termenv.Ascii)
}

type fakeFeed struct {
	frames   chan stream.Frame
	statuses chan stream.StatusUpdate
	closes   atomic.Int32
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		frames:   make(chan stream.Frame, 64),
		statuses: make(chan stream.StatusUpdate, 16),
	}
}

func (f *fakeFeed) Frames() <-chan stream.Frame          { return f.frames }
func (f *fakeFeed) Statuses() <-chan stream.StatusUpdate { return f.statuses }
func (f *fakeFeed) Close() error                         { f.closes.Add(1); return nil }

func newTestModel(t *testing.T) (Model, *fakeFeed) {
	t.Helper()
	feed := newFakeFeed()
	m := NewModel(feed, Options{URL: "ws://localhost:8000/ws/metrics", Log: logger.Noop()})
	return m, feed
}

func frame(t *testing.T, typ, name string, step, value float64) stream.Frame {
	t.Helper()
	data, err := metric.Encode(metric.Event{Type: typ, Metric: name, Step: step, Value: value})
	require.NoError(t, err)
	return stream.Frame{Data: data, ReceivedAt: time.Now()}
}

// update runs one message through the model and returns the concrete result.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
