package cli

import (
	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/relay"
	"github.com/rileyhilliard/trainwatch/internal/stream"
	"github.com/spf13/pflag"
)

// loadConfig finds and loads the config (or defaults), lets apply write any
// explicitly set flags over it, and validates the result.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setIfChanged copies value into dst only when the user passed the flag.
func setIfChanged[T any](flags *pflag.FlagSet, name string, dst *T, value T) {
	if flags.Changed(name) {
		*dst = value
	}
}

// subscriberConfig maps the stream and reconnect sections onto a Subscriber.
func subscriberConfig(cfg *config.Config) stream.SubscriberConfig {
	return stream.SubscriberConfig{
		Client: stream.ClientConfig{
			URL:              cfg.Stream.URL,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			PingTimeout:      cfg.Stream.PingTimeout,
			WriteTimeout:     cfg.Stream.WriteTimeout,
			BufferSize:       cfg.Stream.BufferSize,
		},
		Reconnect:  cfg.Reconnect.Enabled,
		BaseDelay:  cfg.Reconnect.BaseDelay,
		MaxDelay:   cfg.Reconnect.MaxDelay,
		MaxRetries: cfg.Reconnect.MaxRetries,
	}
}

// relayConfig maps the server and retention sections onto the relay.
func relayConfig(cfg *config.Config) relay.Config {
	rc := relay.DefaultConfig()
	rc.Addr = cfg.Server.Addr
	rc.BufferSize = cfg.Server.BufferSize
	rc.MaxPoints = cfg.Retention.MaxPoints
	rc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	rc.Hub.MaxClients = cfg.Server.MaxClients
	rc.Hub.WriteTimeout = cfg.Stream.WriteTimeout
	rc.Hub.PongWait = cfg.Stream.PingTimeout
	return rc
}
