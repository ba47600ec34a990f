package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .trainwatch.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Stream    StreamConfig    `yaml:"stream" mapstructure:"stream"`
	Reconnect ReconnectConfig `yaml:"reconnect" mapstructure:"reconnect"`
	Retention RetentionConfig `yaml:"retention" mapstructure:"retention"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Generator GeneratorConfig `yaml:"generator" mapstructure:"generator"`
}

// StreamConfig controls the WebSocket subscription used by 'trainwatch watch'.
type StreamConfig struct {
	// URL is the metrics feed endpoint (ws:// or wss://).
	URL string `yaml:"url" mapstructure:"url"`

	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" mapstructure:"handshake_timeout"`

	// PingTimeout is how long the connection may stay silent before it is
	// considered dead. Pings are sent at 9/10 of this interval.
	PingTimeout time.Duration `yaml:"ping_timeout" mapstructure:"ping_timeout"`

	// WriteTimeout bounds control frame writes.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// BufferSize is the capacity of the received frame channel.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
}

// ReconnectConfig controls how a dropped feed is re-established.
type ReconnectConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseDelay time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay" mapstructure:"max_delay"`

	// MaxRetries is the number of consecutive failed attempts before giving up.
	// Zero means retry forever.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// RetentionConfig bounds how many points each series keeps.
type RetentionConfig struct {
	// MaxPoints is the per-series cap. Zero keeps everything.
	MaxPoints int `yaml:"max_points" mapstructure:"max_points"`
}

// WatchConfig controls the terminal dashboard.
type WatchConfig struct {
	// Refresh is the minimum interval between redraws.
	Refresh time.Duration `yaml:"refresh" mapstructure:"refresh"`
}

// ServerConfig controls the metrics relay.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`

	// BufferSize is how many recent events the relay remembers.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// MaxClients caps concurrent WebSocket subscribers.
	MaxClients int `yaml:"max_clients" mapstructure:"max_clients"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// GeneratorConfig controls the synthetic training-run producer.
type GeneratorConfig struct {
	// URL is the webhook events are posted to.
	URL      string        `yaml:"url" mapstructure:"url"`
	Steps    int           `yaml:"steps" mapstructure:"steps"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Stream: StreamConfig{
			URL:              "ws://localhost:8000/ws/metrics",
			HandshakeTimeout: 10 * time.Second,
			PingTimeout:      60 * time.Second,
			WriteTimeout:     5 * time.Second,
			BufferSize:       1024,
		},
		Reconnect: ReconnectConfig{
			Enabled:    true,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   30 * time.Second,
			MaxRetries: 10,
		},
		Retention: RetentionConfig{
			MaxPoints: 0,
		},
		Watch: WatchConfig{
			Refresh: 250 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			BufferSize:      1000,
			MaxClients:      100,
			ShutdownTimeout: 10 * time.Second,
		},
		Generator: GeneratorConfig{
			URL:      "http://localhost:8000/webhook",
			Steps:    1000,
			Interval: 100 * time.Millisecond,
		},
	}
}
