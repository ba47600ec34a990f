package generator

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSink_IntoRelay(t *testing.T) {
	srv := relay.New(relay.DefaultConfig(), logger.Noop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().Close()
		ts.Close()
	})

	g := newTestGenerator(Config{Steps: 3, Eval: true})
	sink := NewWebhookSink(ts.URL+"/webhook", nil)

	sum, err := g.Run(context.Background(), sink)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	assert.Equal(t, Summary{Steps: 3, Sent: 24}, sum)

	board := srv.Board()
	for _, k := range metric.Kinds() {
		assert.Equal(t, 3, board.Len(k), k.String())
	}
	assert.Equal(t, []float64{0, 1, 2}, board.Series(metric.KindPerplexity).Labels)
}

func TestWebhookSink_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"step is required"}`))
	}))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL, nil)
	err := sink.Send(context.Background(), metric.Event{Type: "train", Metric: "loss", Step: 1, Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "step is required")
}

func TestWebhookSink_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	sink := NewWebhookSink(url, &http.Client{Timeout: time.Second})
	err := sink.Send(context.Background(), metric.Event{Type: "train", Metric: "loss", Step: 1, Value: 1})
	assert.Error(t, err)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale line\n"), 0o644))

	sink, err := NewFileSink(path)
	require.NoError(t, err)

	g := newTestGenerator(Config{Steps: 2})
	sum, err := g.Run(context.Background(), sink)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.Equal(t, 14, sum.Sent)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []metric.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ev, err := metric.Decode(scanner.Bytes())
		require.NoError(t, err, scanner.Text())
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 14)
	assert.Equal(t, "train", events[0].Type)
	assert.Equal(t, 1.0, events[13].Step)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestFileSink_BadPath(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing", "run.jsonl"))
	assert.Error(t, err)
}
