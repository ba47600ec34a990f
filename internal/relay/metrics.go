package relay

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "trainwatch"
	subsystem = "relay"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	Webhook         *prometheus.CounterVec
	Events          *prometheus.CounterVec
	Subscribers     prometheus.Gauge
	SubscriberDrops *prometheus.CounterVec
	FramesSent      prometheus.Counter
	Buffered        prometheus.Gauge
}

// NewMetrics creates relay metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Webhook: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_requests_total",
				Help:      "Total number of webhook requests by result.",
			},
			[]string{"result"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Total number of accepted events by series kind.",
			},
			[]string{"kind"},
		),
		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subscribers",
				Help:      "The current number of WebSocket subscribers.",
			},
		),
		SubscriberDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subscriber_drops_total",
				Help:      "Total number of subscribers removed by reason.",
			},
			[]string{"reason"},
		),
		FramesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "frames_queued_total",
				Help:      "Total number of frames queued to subscribers.",
			},
		),
		Buffered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "buffered_events",
				Help:      "The number of events held in the replay buffer.",
			},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.Webhook.Describe(ch)
	m.Events.Describe(ch)
	m.Subscribers.Describe(ch)
	m.SubscriberDrops.Describe(ch)
	m.FramesSent.Describe(ch)
	m.Buffered.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.Webhook.Collect(ch)
	m.Events.Collect(ch)
	m.Subscribers.Collect(ch)
	m.SubscriberDrops.Collect(ch)
	m.FramesSent.Collect(ch)
	m.Buffered.Collect(ch)
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
)
