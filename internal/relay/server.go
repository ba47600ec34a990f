package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rileyhilliard/trainwatch/internal/ingest"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/series"
)

const (
	// defaultRecent is how many events read endpoints return without ?n.
	defaultRecent = 50

	// maxBodyBytes caps a webhook request body.
	maxBodyBytes = 1 << 20
)

// Config configures a relay Server.
type Config struct {
	Addr            string
	BufferSize      int           // Events kept for the read endpoints
	MaxPoints       int           // Per-series cap for /api/series; 0 keeps everything
	ShutdownTimeout time.Duration // Grace period for in-flight requests
	Hub             HubConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8000",
		BufferSize:      1000,
		ShutdownTimeout: 10 * time.Second,
		Hub:             DefaultHubConfig(),
	}
}

// Server accepts events over HTTP and relays them to subscribers.
type Server struct {
	cfg      Config
	log      logger.Logger
	buffer   *Buffer
	board    *series.SyncBoard
	ingest   *ingest.Ingestor
	hub      *Hub
	metrics  *Metrics
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	started  time.Time
	now      func() time.Time

	// publishMu orders the buffer, the board and the broadcast the same way.
	publishMu sync.Mutex
}

// New creates a relay server.
func New(cfg Config, log logger.Logger) *Server {
	d := DefaultConfig()
	if cfg.BufferSize < 1 {
		cfg.BufferSize = d.BufferSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = d.ShutdownTimeout
	}
	log = logger.OrDefault(log)

	metrics := NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics)

	board := series.NewSyncBoard(cfg.MaxPoints)

	return &Server{
		cfg:      cfg,
		log:      log,
		buffer:   NewBuffer(cfg.BufferSize),
		board:    board,
		ingest:   ingest.New(board, log),
		hub:      NewHub(cfg.Hub, metrics, log),
		metrics:  metrics,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser dashboards may be served from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
		now:     time.Now,
	}
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /ws/metrics", s.handleWebSocket)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /metrics/raw", s.handleRaw)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /debug/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return withCORS(mux)
}

// Publish records an event and pushes it to subscribers. A zero timestamp
// is replaced with the current time.
func (s *Server) Publish(ev metric.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}

	frame, err := metric.Encode(ev)
	if err != nil {
		return err
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.buffer.Add(ev)
	s.metrics.Buffered.Set(float64(s.buffer.Len()))

	res := s.ingest.HandleEvent(ev)
	if res.Outcome == ingest.Applied {
		s.metrics.Events.WithLabelValues(res.Kind.String()).Inc()
	} else {
		s.metrics.Events.WithLabelValues("unclassified").Inc()
	}

	n := s.hub.Broadcast(frame)
	s.log.Debug("relayed %s to %d subscribers", ev, n)
	return nil
}

// Hub returns the subscriber hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Board returns the reduced series.
func (s *Server) Board() *series.SyncBoard {
	return s.board
}

// Registry returns the Prometheus registry behind /debug/metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then disconnects
// subscribers and drains in-flight requests within ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("relay listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)

	case <-ctx.Done():
	}

	s.log.Info("shutting down relay")
	// Hijacked WebSocket connections are invisible to Shutdown.
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.reject(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	ev, err := metric.Decode(body)
	if err == nil {
		err = s.Publish(ev)
	}
	if err != nil {
		s.reject(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.metrics.Webhook.WithLabelValues("accepted").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reject(w http.ResponseWriter, status int, detail string) {
	s.metrics.Webhook.WithLabelValues("rejected").Inc()
	s.log.Warn("rejected webhook event: %s", detail)
	writeError(w, status, detail)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.hub.Accepting() {
		writeError(w, http.StatusServiceUnavailable, ErrHubFull.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("websocket upgrade failed: %v", err)
		return
	}

	if _, err := s.hub.Register(conn); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	n, ok := s.recentCount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Group(s.buffer.Latest(n)))
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	n, ok := s.recentCount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.buffer.Latest(n))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Snapshot())
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status      string `json:"status"`
	Buffered    int    `json:"buffered"`
	Capacity    int    `json:"capacity"`
	Subscribers int    `json:"subscribers"`
	Points      int    `json:"points"`
	Uptime      string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Buffered:    s.buffer.Len(),
		Capacity:    s.buffer.Cap(),
		Subscribers: s.hub.Count(),
		Points:      s.board.Total(),
		Uptime:      s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// recentCount parses ?n, defaulting to 50. Clamping to the buffer happens
// in Buffer.Latest.
func (s *Server) recentCount(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return defaultRecent, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "n must be an integer")
		return 0, false
	}
	return n, true
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withCORS allows any origin, method, and header.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
