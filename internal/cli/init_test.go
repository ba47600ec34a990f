package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	err := Init(InitOptions{Dir: dir, MaxPoints: -1, NonInteractive: true}, &out)
	require.NoError(t, err)

	path := filepath.Join(dir, config.ConfigFileName)
	assert.Contains(t, out.String(), "Created "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestInit_AppliesOptions(t *testing.T) {
	dir := t.TempDir()

	err := Init(InitOptions{
		Dir:            dir,
		URL:            "wss://metrics.example.com/ws/metrics",
		MaxPoints:      500,
		NonInteractive: true,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "wss://metrics.example.com/ws/metrics", cfg.Stream.URL)
	assert.Equal(t, 500, cfg.Retention.MaxPoints)
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	err := Init(InitOptions{Dir: dir, MaxPoints: -1, NonInteractive: true}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "--force")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestInit_ForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	err := Init(InitOptions{Dir: dir, MaxPoints: -1, Overwrite: true, NonInteractive: true}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stream:")
}

func TestInit_RejectsInvalidURL(t *testing.T) {
	dir := t.TempDir()

	err := Init(InitOptions{Dir: dir, URL: "http://wrong-scheme", MaxPoints: -1, NonInteractive: true}, &bytes.Buffer{})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, config.ConfigFileName))
	assert.True(t, os.IsNotExist(statErr), "nothing should be written")
}

func TestInitTarget(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	repo := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repo, ".git"), 0755))
	sub := filepath.Join(repo, "train", "runs")
	require.NoError(t, os.MkdirAll(sub, 0755))

	tests := []struct {
		name string
		opts InitOptions
		cwd  string
		want string
	}{
		{
			name: "explicit dir",
			opts: InitOptions{Dir: "/srv/project"},
			cwd:  sub,
			want: filepath.Join("/srv/project", config.ConfigFileName),
		},
		{
			name: "global",
			opts: InitOptions{Global: true},
			cwd:  sub,
			want: filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile),
		},
		{
			name: "git root",
			cwd:  sub,
			want: filepath.Join(repo, config.ConfigFileName),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(tt.cwd)
			got, err := initTarget(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNonInteractive(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, isNonInteractive(InitOptions{}))
	assert.True(t, isNonInteractive(InitOptions{NonInteractive: true}))
}

func TestPromptValidators(t *testing.T) {
	assert.NoError(t, validateStreamURL("ws://localhost:8000/ws/metrics"))
	assert.NoError(t, validateStreamURL(" wss://host/feed "))
	assert.Error(t, validateStreamURL("http://localhost:8000"))
	assert.Error(t, validateStreamURL("ws://"))

	assert.NoError(t, validateMaxPoints("0"))
	assert.NoError(t, validateMaxPoints("250"))
	assert.Error(t, validateMaxPoints("-1"))
	assert.Error(t, validateMaxPoints("lots"))
}
