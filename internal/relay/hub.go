package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/trainwatch/internal/logger"
)

// Hub errors.
var (
	ErrHubFull   = errors.New("subscriber limit reached")
	ErrHubClosed = errors.New("hub closed")
)

// Drop reasons reported in metrics and logs.
const (
	dropSlow   = "slow"
	dropWrite  = "write_failed"
	dropRead   = "disconnected"
	dropClosed = "shutdown"
)

// maxClientMessage bounds frames read (and discarded) from subscribers.
const maxClientMessage = 4096

// HubConfig configures subscriber fan-out.
type HubConfig struct {
	MaxClients   int
	SendBuffer   int           // Frames queued per subscriber before it counts as slow
	WriteTimeout time.Duration // Deadline for each frame write
	PongWait     time.Duration // Silence allowed before a subscriber is dropped
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxClients:   100,
		SendBuffer:   256,
		WriteTimeout: 5 * time.Second,
		PongWait:     60 * time.Second,
	}
}

func (c HubConfig) withDefaults() HubConfig {
	d := DefaultHubConfig()
	if c.MaxClients <= 0 {
		c.MaxClients = d.MaxClients
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	return c
}

// pingPeriod must be shorter than PongWait so a live subscriber always
// answers in time.
func (c HubConfig) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// Hub fans frames out to WebSocket subscribers. Each subscriber has its own
// queue and writer goroutine, so one stalled peer never delays the others;
// a subscriber whose queue fills up is dropped.
type Hub struct {
	cfg     HubConfig
	log     logger.Logger
	metrics *Metrics

	mu      sync.RWMutex
	clients map[string]*subscriber
	closed  bool
	wg      sync.WaitGroup
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// NewHub creates a hub.
func NewHub(cfg HubConfig, metrics *Metrics, log logger.Logger) *Hub {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Hub{
		cfg:     cfg.withDefaults(),
		log:     logger.OrDefault(log),
		metrics: metrics,
		clients: make(map[string]*subscriber),
	}
}

// Accepting reports whether a new subscriber would be admitted.
func (h *Hub) Accepting() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed && len(h.clients) < h.cfg.MaxClients
}

// Register takes ownership of conn and starts serving it. The returned ID
// identifies the subscriber in logs.
func (h *Hub) Register(conn *websocket.Conn) (string, error) {
	s := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	switch {
	case h.closed:
		h.mu.Unlock()
		return "", ErrHubClosed
	case len(h.clients) >= h.cfg.MaxClients:
		h.mu.Unlock()
		return "", ErrHubFull
	}
	h.clients[s.id] = s
	h.wg.Add(2)
	h.mu.Unlock()

	h.metrics.Subscribers.Inc()
	h.log.Debug("subscriber %s connected from %s", s.id, conn.RemoteAddr())

	go h.writePump(s)
	go h.readPump(s)
	return s.id, nil
}

// Broadcast queues data for every subscriber and returns how many accepted
// it. Subscribers with a full queue are dropped.
func (h *Hub) Broadcast(data []byte) int {
	var slow []*subscriber
	delivered := 0

	h.mu.RLock()
	for _, s := range h.clients {
		select {
		case s.send <- data:
			delivered++
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.remove(s, dropSlow)
	}
	h.metrics.FramesSent.Add(float64(delivered))
	return delivered
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber with a going-away close frame and
// waits for their goroutines to finish. Further Register calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*subscriber, 0, len(h.clients))
	for _, s := range h.clients {
		clients = append(clients, s)
	}
	h.mu.Unlock()

	for _, s := range clients {
		h.remove(s, dropClosed)
	}
	h.wg.Wait()
}

// remove unregisters s and stops its writer. Only the first call for a
// subscriber counts.
func (h *Hub) remove(s *subscriber, reason string) {
	h.mu.Lock()
	_, ok := h.clients[s.id]
	if ok {
		delete(h.clients, s.id)
	}
	h.mu.Unlock()

	s.stop()
	if !ok {
		return
	}

	h.metrics.Subscribers.Dec()
	h.metrics.SubscriberDrops.WithLabelValues(reason).Inc()
	if reason == dropSlow || reason == dropWrite {
		h.log.Warn("dropping subscriber %s: %s", s.id, reason)
	} else {
		h.log.Debug("subscriber %s left: %s", s.id, reason)
	}
}

// writePump owns all writes to the connection.
func (h *Hub) writePump(s *subscriber) {
	defer h.wg.Done()
	defer s.conn.Close()

	ticker := time.NewTicker(h.cfg.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(s, dropWrite)
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				h.remove(s, dropWrite)
				return
			}

		case <-s.done:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}

// readPump discards client frames and notices when the peer goes away.
func (h *Hub) readPump(s *subscriber) {
	defer h.wg.Done()

	s.conn.SetReadLimit(maxClientMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			h.remove(s, dropRead)
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	}
}
