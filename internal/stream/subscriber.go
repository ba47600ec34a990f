package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rileyhilliard/trainwatch/internal/logger"
)

// errStopped ends the retry loop when the subscriber is closed.
var errStopped = errors.New("subscriber stopped")

// Subscriber keeps a feed connection open, re-dialing with exponential
// backoff after failures. Frames from every connection it makes arrive
// on one channel.
type Subscriber struct {
	cfg SubscriberConfig
	log logger.Logger

	frames   chan Frame
	statuses chan StatusUpdate
	done     chan struct{}

	closeOnce sync.Once

	mu       sync.Mutex
	current  *Client
	status   Status
	attempts int
	running  bool
}

// NewSubscriber creates a subscriber. Call Run to start it.
func NewSubscriber(cfg SubscriberConfig, log logger.Logger) *Subscriber {
	cfg.Client = cfg.Client.withDefaults()
	d := DefaultSubscriberConfig()
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = d.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Subscriber{
		cfg:      cfg,
		log:      logger.OrDefault(log),
		frames:   make(chan Frame, cfg.Client.BufferSize),
		statuses: make(chan StatusUpdate, 16),
		done:     make(chan struct{}),
		status:   StatusDisconnected,
	}
}

// Frames returns frames from the current connection, whichever it is.
func (s *Subscriber) Frames() <-chan Frame {
	return s.frames
}

// Statuses returns connection state changes. When the reader falls
// behind, older updates are dropped in favor of newer ones.
func (s *Subscriber) Statuses() <-chan StatusUpdate {
	return s.statuses
}

// Status returns the current connection state.
func (s *Subscriber) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run connects and keeps the feed open until ctx is cancelled, Close is
// called, or reconnect gives up. A deliberate stop returns nil. Running out
// of retries returns an error wrapping ErrRetriesExhausted; a drop with
// reconnect disabled wraps ErrConnectionLost.
func (s *Subscriber) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("subscriber already running")
	}
	s.running = true
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	var bo backoff.BackOff = s.newBackOff()
	if s.cfg.MaxRetries > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(s.cfg.MaxRetries))
	}
	bo = backoff.WithContext(bo, ctx)

	s.publish(StatusUpdate{Status: StatusConnecting})

	var lastErr error
	operation := func() error {
		err := s.session(ctx, bo)
		if ctx.Err() != nil {
			return backoff.Permanent(errStopped)
		}
		lastErr = err
		if !s.cfg.Reconnect {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrConnectionLost, err))
		}
		s.mu.Lock()
		s.attempts++
		s.mu.Unlock()
		return err
	}

	notify := func(err error, wait time.Duration) {
		s.mu.Lock()
		attempt := s.attempts
		s.mu.Unlock()

		s.log.Warn("feed unavailable (attempt %d), retrying in %s: %v", attempt, wait.Round(time.Millisecond), err)
		s.publish(StatusUpdate{Status: StatusReconnecting, Attempt: attempt, Wait: wait, Err: err})
	}

	err := backoff.RetryNotify(operation, bo, notify)

	var final error
	switch {
	case err == nil, errors.Is(err, errStopped), ctx.Err() != nil:
		final = nil
	case errors.Is(err, ErrConnectionLost):
		final = err
	default:
		s.mu.Lock()
		attempt := s.attempts
		s.mu.Unlock()
		final = fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt, lastErr)
	}

	s.publish(StatusUpdate{Status: StatusDisconnected, Err: final})
	return final
}

// session makes one connection and pumps its frames until it drops.
// It always returns a non-nil error describing why the session ended.
func (s *Subscriber) session(ctx context.Context, bo backoff.BackOff) error {
	client := NewClient(s.cfg.Client, s.log)
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = client
	s.attempts = 0
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
	}()

	// A successful connect starts the retry budget over.
	bo.Reset()

	s.log.Info("connected to %s", client.URL())
	s.publish(StatusUpdate{Status: StatusConnected})

	for {
		select {
		case frame := <-client.Frames():
			if !s.forward(ctx, frame) {
				return ctx.Err()
			}
		case err := <-client.Errors():
			s.drain(ctx, client)
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain forwards frames already buffered when the connection failed.
func (s *Subscriber) drain(ctx context.Context, client *Client) {
	for {
		select {
		case frame := <-client.Frames():
			if !s.forward(ctx, frame) {
				return
			}
		default:
			return
		}
	}
}

func (s *Subscriber) forward(ctx context.Context, frame Frame) bool {
	select {
	case s.frames <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

// publish records the status and delivers the update without blocking Run.
func (s *Subscriber) publish(u StatusUpdate) {
	if u.At.IsZero() {
		u.At = time.Now()
	}

	s.mu.Lock()
	s.status = u.Status
	s.mu.Unlock()

	for {
		select {
		case s.statuses <- u:
			return
		default:
		}
		// Full: discard the oldest update and try again.
		select {
		case <-s.statuses:
		default:
		}
	}
}

func (s *Subscriber) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.BaseDelay
	b.MaxInterval = s.cfg.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Close stops Run and closes the active connection. Safe to call more than once.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	s.mu.Lock()
	client := s.current
	s.mu.Unlock()

	if client != nil {
		return client.Close()
	}
	return nil
}
