package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rileyhilliard/trainwatch/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but trainwatch only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest trainwatch release.")
	}

	if err := validateStream(cfg.Stream); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'stream' section in your .trainwatch.yaml.")
	}

	if err := validateReconnect(cfg.Reconnect); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'reconnect' section in your .trainwatch.yaml.")
	}

	if cfg.Retention.MaxPoints < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("retention.max_points can't be negative (got %d)", cfg.Retention.MaxPoints),
			"Use 0 to keep every point, or a positive cap.")
	}

	if cfg.Watch.Refresh < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("watch.refresh can't be negative (got %s)", cfg.Watch.Refresh),
			"Try something like 250ms.")
	}

	if err := validateServer(cfg.Server); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'server' section in your .trainwatch.yaml.")
	}

	if err := validateGenerator(cfg.Generator); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'generator' section in your .trainwatch.yaml.")
	}

	return nil
}

func validateStream(s StreamConfig) error {
	if err := validateURL("stream.url", s.URL, "ws", "wss"); err != nil {
		return err
	}
	if err := positiveDuration("stream.handshake_timeout", s.HandshakeTimeout); err != nil {
		return err
	}
	if err := positiveDuration("stream.ping_timeout", s.PingTimeout); err != nil {
		return err
	}
	if err := positiveDuration("stream.write_timeout", s.WriteTimeout); err != nil {
		return err
	}
	if s.BufferSize < 1 {
		return fmt.Errorf("stream.buffer_size must be at least 1 (got %d)", s.BufferSize)
	}
	return nil
}

func validateReconnect(r ReconnectConfig) error {
	if !r.Enabled {
		return nil
	}
	if err := positiveDuration("reconnect.base_delay", r.BaseDelay); err != nil {
		return err
	}
	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("reconnect.max_delay (%s) is shorter than reconnect.base_delay (%s)", r.MaxDelay, r.BaseDelay)
	}
	if r.MaxRetries < 0 {
		return fmt.Errorf("reconnect.max_retries can't be negative (got %d) - use 0 to retry forever", r.MaxRetries)
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr is empty - try ':8000'")
	}
	if s.BufferSize < 1 {
		return fmt.Errorf("server.buffer_size must be at least 1 (got %d)", s.BufferSize)
	}
	if s.MaxClients < 1 {
		return fmt.Errorf("server.max_clients must be at least 1 (got %d)", s.MaxClients)
	}
	return positiveDuration("server.shutdown_timeout", s.ShutdownTimeout)
}

func validateGenerator(g GeneratorConfig) error {
	if err := validateURL("generator.url", g.URL, "http", "https"); err != nil {
		return err
	}
	if g.Steps < 1 {
		return fmt.Errorf("generator.steps must be at least 1 (got %d)", g.Steps)
	}
	if g.Interval < 0 {
		return fmt.Errorf("generator.interval can't be negative (got %s)", g.Interval)
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is empty", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s isn't a valid URL: %v", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("%s is missing a host: %s", field, raw)
			}
			return nil
		}
	}
	return fmt.Errorf("%s must use %v, got %q", field, schemes, u.Scheme)
}

func positiveDuration(field string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive (got %s)", field, d)
	}
	return nil
}
