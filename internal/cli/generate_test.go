package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerateConfig(url string, steps int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Generator.URL = url
	cfg.Generator.Steps = steps
	cfg.Generator.Interval = 0
	return cfg
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		webhook string
		want    string
		wantErr bool
	}{
		{webhook: "http://localhost:8000/webhook", want: "http://localhost:8000/healthz"},
		{webhook: "https://relay.example.com/api/webhook?token=x", want: "https://relay.example.com/healthz"},
		{webhook: "localhost:8000/webhook", wantErr: true},
		{webhook: "/webhook", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.webhook, func(t *testing.T) {
			got, err := healthURL(tt.webhook)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateCommand_ToRelay(t *testing.T) {
	srv := relay.New(relay.DefaultConfig(), logger.Noop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().Close()
		ts.Close()
	})

	var out bytes.Buffer
	err := generateCommand(context.Background(), testGenerateConfig(ts.URL+"/webhook", 5),
		GenerateOptions{Eval: true, Seed: 3}, logger.Noop(), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Checking relay")
	assert.Contains(t, out.String(), "Generated 5 steps, 40 events sent")
	assert.Equal(t, 5, srv.Board().Len(metric.KindPerplexity))
	assert.Equal(t, 5, srv.Board().Len(metric.KindGPUUtilization))
}

func TestGenerateCommand_RelayDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL + "/webhook"
	ts.Close()

	var out bytes.Buffer
	err := generateCommand(context.Background(), testGenerateConfig(url, 5), GenerateOptions{}, logger.Noop(), &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrGenerate))
	assert.Contains(t, err.Error(), "trainwatch serve")
}

func TestGenerateCommand_AllRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	var out bytes.Buffer
	err := generateCommand(context.Background(), testGenerateConfig(ts.URL, 2),
		GenerateOptions{NoCheck: true}, logger.Noop(), &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrGenerate))
	assert.Contains(t, out.String(), "14 events failed")
}

func TestGenerateCommand_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")

	var out bytes.Buffer
	err := generateCommand(context.Background(), testGenerateConfig("http://unused:1/webhook", 3),
		GenerateOptions{Output: path, Layers: 2, Progress: true}, logger.Noop(), &out)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 27)

	assert.NotContains(t, out.String(), "Checking relay")
	assert.Contains(t, out.String(), "100%  3/3")
	assert.Contains(t, out.String(), "to "+path)
}

func TestGenerateCommand_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := generateCommand(ctx, testGenerateConfig("http://unused:1/webhook", 3),
		GenerateOptions{Output: filepath.Join(t.TempDir(), "run.jsonl")}, logger.Noop(), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Stopped after 0 steps")
}
