package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/trainwatch/internal/logger"
)

// Client is a single WebSocket connection to the metrics feed.
type Client struct {
	cfg ClientConfig
	log logger.Logger

	conn *websocket.Conn

	// Output channels
	frames chan Frame
	errors chan error
	done   chan struct{}

	// State
	mu        sync.RWMutex
	connected bool
	closed    bool
}

// NewClient creates a client. Zero config fields take their defaults.
func NewClient(cfg ClientConfig, log logger.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		log:    logger.OrDefault(log),
		frames: make(chan Frame, cfg.BufferSize),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect dials the feed and starts the read and heartbeat loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Accept", "application/json")

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (HTTP %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	if c.closed {
		// Close raced the dial.
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.extendDeadline()

	// Server pings: answer and treat as liveness.
	conn.SetPingHandler(func(data string) error {
		c.extendDeadline()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.cfg.WriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	})

	// Pongs answer our heartbeat pings.
	conn.SetPongHandler(func(string) error {
		c.extendDeadline()
		return nil
	})

	go c.readLoop()
	go c.heartbeatLoop()

	c.log.Debug("websocket connected url=%s", c.cfg.URL)

	return nil
}

// Close sends a normal-closure frame and closes the connection.
// Safe to call more than once and before Connect.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout),
		)
		return conn.Close()
	}

	return nil
}

// Frames returns the received data frames.
func (c *Client) Frames() <-chan Frame {
	return c.frames
}

// Errors returns at most one error: the reason the read loop stopped.
// Nothing is sent when the client is closed deliberately.
func (c *Client) Errors() <-chan error {
	return c.errors
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// URL returns the endpoint this client dials.
func (c *Client) URL() string {
	return c.cfg.URL
}

func (c *Client) extendDeadline() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PingTimeout))
	}
}

// readLoop forwards frames until the connection fails or Close is called.
func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		msgType, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				err = fmt.Errorf("%w: %v", ErrStaleConnection, err)
			}

			select {
			case c.errors <- err:
			default:
			}
			return
		}

		c.extendDeadline()

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		frame := Frame{
			Data:       data,
			ReceivedAt: receivedAt,
		}

		// Block when the consumer is behind; the socket stops being read and
		// TCP pushes back on the sender. Frames are never dropped.
		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
		c.extendDeadline()
	}
}

// heartbeatLoop pings the server so an idle but healthy feed stays open.
func (c *Client) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			connected := c.connected
			c.mu.RUnlock()

			if conn == nil || !connected {
				return
			}

			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.log.Debug("failed to send ping: %v", err)
			}
		}
	}
}
