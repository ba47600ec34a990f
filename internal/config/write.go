package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sectionComments are written above each top-level key by Encode.
var sectionComments = map[string]string{
	"stream":    "Live feed consumed by 'trainwatch watch'.",
	"reconnect": "Backoff used when the feed drops. max_retries: 0 retries forever.",
	"retention": "Points kept per series. 0 keeps everything.",
	"watch":     "Terminal dashboard.",
	"server":    "Relay started by 'trainwatch serve'.",
	"generator": "Synthetic run emitted by 'trainwatch generate'.",
}

// Encode renders cfg as commented YAML. yaml.v3 writes durations as
// strings like "10s", which viper reads back.
func Encode(cfg *Config) ([]byte, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if c, ok := sectionComments[key.Value]; ok {
			key.HeadComment = c
		}
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return []byte(buf.String()), nil
}

// Write encodes cfg and writes it to path, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
