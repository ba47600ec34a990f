package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twerrors "github.com/rileyhilliard/trainwatch/internal/errors"
)

type fakeFeed struct {
	frames   chan stream.Frame
	statuses chan stream.StatusUpdate
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		frames:   make(chan stream.Frame, 16),
		statuses: make(chan stream.StatusUpdate, 16),
	}
}

func (f *fakeFeed) Frames() <-chan stream.Frame          { return f.frames }
func (f *fakeFeed) Statuses() <-chan stream.StatusUpdate { return f.statuses }
func (f *fakeFeed) Close() error                         { return nil }

// syncBuffer lets the test read output while runPlain is still writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func eventFrame(t *testing.T, typ, name string, step, value float64) stream.Frame {
	t.Helper()
	data, err := metric.Encode(metric.Event{Type: typ, Metric: name, Step: step, Value: value})
	require.NoError(t, err)
	return stream.Frame{Data: data, ReceivedAt: time.Now()}
}

func TestRunPlain(t *testing.T) {
	feed := newFakeFeed()
	runErr := make(chan error, 1)
	var out syncBuffer

	feed.statuses <- stream.StatusUpdate{Status: stream.StatusConnected}
	feed.frames <- eventFrame(t, "train", "accuracy", 1, 0.5)
	feed.frames <- eventFrame(t, "unknown", "foo", 1, 1)
	feed.frames <- stream.Frame{Data: []byte(`{"step":`)}
	feed.frames <- eventFrame(t, "eval", "loss", 2, 0)

	done := make(chan error, 1)
	go func() {
		done <- runPlain(context.Background(), feed, runErr, 0, logger.Noop(), &out)
	}()

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "\n") == 3
	}, 2*time.Second, 10*time.Millisecond)

	runErr <- nil
	require.NoError(t, <-done)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	// Statuses and frames race; frames keep their own order.
	var events []string
	for _, l := range lines {
		if strings.Contains(l, "live") {
			continue
		}
		events = append(events, l)
	}
	require.Len(t, events, 2)
	assert.Contains(t, events[0], "step 1")
	assert.Contains(t, events[0], "Train Accuracy")
	assert.Contains(t, events[0], "0.5")
	assert.Contains(t, events[1], "Perplexity")
	assert.Contains(t, events[1], " 1 ", "exp(0) is plotted")
}

func TestRunPlain_FeedGivesUp(t *testing.T) {
	feed := newFakeFeed()
	runErr := make(chan error, 1)
	runErr <- stream.ErrRetriesExhausted

	err := runPlain(context.Background(), feed, runErr, 0, logger.Noop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, twerrors.IsCode(err, twerrors.ErrStream))
	assert.True(t, errors.Is(err, stream.ErrRetriesExhausted))
	assert.Contains(t, err.Error(), "reconnect.max_retries")
}

func TestRunPlain_ReconnectDisabledHint(t *testing.T) {
	runErr := make(chan error, 1)
	runErr <- fmt.Errorf("%w: EOF", stream.ErrConnectionLost)

	err := runPlain(context.Background(), newFakeFeed(), runErr, 0, logger.Noop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, twerrors.ErrStream, twerrors.Code(err))
	assert.Contains(t, err.Error(), "--no-reconnect")
}

func TestRunPlain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runPlain(ctx, newFakeFeed(), make(chan error), 0, logger.Noop(), &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestFormatStatusLine(t *testing.T) {
	tests := []struct {
		name   string
		update stream.StatusUpdate
		want   string
	}{
		{name: "live", update: stream.StatusUpdate{Status: stream.StatusConnected}, want: "● live"},
		{name: "connecting", update: stream.StatusUpdate{Status: stream.StatusConnecting}, want: "○ connecting"},
		{
			name:   "reconnecting",
			update: stream.StatusUpdate{Status: stream.StatusReconnecting, Attempt: 2, Wait: 1500 * time.Millisecond},
			want:   "◐ reconnecting (attempt 2, next in 1.5s)",
		},
		{
			name:   "disconnected",
			update: stream.StatusUpdate{Status: stream.StatusDisconnected, Err: errors.New("retries exhausted")},
			want:   "✗ disconnected: retries exhausted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatStatusLine(tt.update))
		})
	}
}

func TestRefreshFPS(t *testing.T) {
	tests := []struct {
		refresh time.Duration
		want    int
	}{
		{refresh: 0, want: 60},
		{refresh: 250 * time.Millisecond, want: 4},
		{refresh: time.Millisecond, want: 120},
		{refresh: 5 * time.Second, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, refreshFPS(tt.refresh), tt.refresh.String())
	}
}

func TestWatchLogger_File(t *testing.T) {
	path := t.TempDir() + "/watch.log"

	log, closeLog, err := watchLogger(path, false)
	require.NoError(t, err)
	log.Info("connected to %s", "ws://localhost:8000/ws/metrics")
	closeLog()

	data, err := readFile(path)
	require.NoError(t, err)
	assert.Contains(t, data, "[watch] connected to ws://localhost:8000/ws/metrics")
}

func TestWatchLogger_BadPath(t *testing.T) {
	_, _, err := watchLogger(t.TempDir()+"/missing/watch.log", false)
	require.Error(t, err)
	assert.True(t, twerrors.IsCode(err, twerrors.ErrConfig))
}
