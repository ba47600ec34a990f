package stream

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrAlreadyClosed    = errors.New("already closed")
	ErrStaleConnection  = errors.New("connection stale (no traffic within ping timeout)")
	ErrConnectionLost   = errors.New("connection lost")
	ErrRetriesExhausted = errors.New("reconnect retries exhausted")
)

// Frame is one data message received from the feed.
type Frame struct {
	Data       []byte    // Raw message bytes
	ReceivedAt time.Time // Local time ReadMessage returned
}

// ClientConfig configures a single WebSocket connection.
type ClientConfig struct {
	URL              string        // Feed endpoint, e.g. ws://localhost:8000/ws/metrics
	HandshakeTimeout time.Duration // Opening handshake deadline
	PingTimeout      time.Duration // Max silence before the connection is considered stale
	WriteTimeout     time.Duration // Deadline for control frame writes
	BufferSize       int           // Frame channel capacity
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:              "ws://localhost:8000/ws/metrics",
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1024,
	}
}

// withDefaults fills zero fields from DefaultClientConfig.
func (c ClientConfig) withDefaults() ClientConfig {
	d := DefaultClientConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = d.PingTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	return c
}

// pingPeriod is how often pings go out; it must be shorter than PingTimeout.
func (c ClientConfig) pingPeriod() time.Duration {
	return c.PingTimeout * 9 / 10
}

// SubscriberConfig configures reconnect behavior around a Client.
type SubscriberConfig struct {
	Client ClientConfig

	Reconnect  bool          // Re-dial after the connection drops
	BaseDelay  time.Duration // First backoff interval
	MaxDelay   time.Duration // Backoff interval cap
	MaxRetries int           // Consecutive failures before giving up; 0 retries forever
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		Client:     DefaultClientConfig(),
		Reconnect:  true,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		MaxRetries: 10,
	}
}

// Status is the subscriber's connection state.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusReconnecting
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StatusUpdate reports a state change.
type StatusUpdate struct {
	Status  Status
	Attempt int           // Consecutive failed attempts so far
	Wait    time.Duration // Delay before the next attempt (reconnecting only)
	Err     error         // Cause of the transition, if any
	At      time.Time
}
