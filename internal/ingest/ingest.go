// Package ingest applies feed frames to a series board.
//
// Each frame is decoded, classified, and applied in that order. Frames that
// fail to decode are logged and skipped; frames with an unknown
// (type, metric) pair are counted and ignored. Neither changes any series.
package ingest

import (
	"sync"

	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
)

// Outcome says what happened to one frame.
type Outcome int

const (
	Applied Outcome = iota
	Unclassified
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Unclassified:
		return "unclassified"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result describes a handled frame. Kind is only meaningful when Applied;
// Err is only set when Malformed.
type Result struct {
	Outcome Outcome
	Kind    metric.Kind
	Event   metric.Event
	Err     error
}

// Applier receives classified samples. series.Board and series.SyncBoard
// both satisfy it.
type Applier interface {
	Apply(kind metric.Kind, step, value float64) bool
}

// Stats contains runtime counters.
type Stats struct {
	Received     int64
	Applied      int64
	Unclassified int64
	Malformed    int64
}

// Ingestor turns frames into board updates.
type Ingestor struct {
	target Applier
	log    logger.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates an ingestor writing to target.
func New(target Applier, log logger.Logger) *Ingestor {
	return &Ingestor{
		target: target,
		log:    logger.OrDefault(log),
	}
}

// Handle decodes one frame and applies it.
func (i *Ingestor) Handle(data []byte) Result {
	ev, err := metric.Decode(data)
	if err != nil {
		i.count(Malformed)
		i.log.Warn("skipping malformed frame %q: %v", preview(data), err)
		return Result{Outcome: Malformed, Err: err}
	}
	return i.HandleEvent(ev)
}

// HandleEvent applies an already decoded event.
func (i *Ingestor) HandleEvent(ev metric.Event) Result {
	kind, ok := ev.Kind()
	if !ok {
		i.count(Unclassified)
		i.log.Debug("ignoring unclassified event %s", ev)
		return Result{Outcome: Unclassified, Event: ev}
	}

	i.target.Apply(kind, ev.Step, ev.Value)
	i.count(Applied)
	return Result{Outcome: Applied, Kind: kind, Event: ev}
}

// Stats returns a copy of the counters.
func (i *Ingestor) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

func (i *Ingestor) count(o Outcome) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stats.Received++
	switch o {
	case Applied:
		i.stats.Applied++
	case Unclassified:
		i.stats.Unclassified++
	case Malformed:
		i.stats.Malformed++
	}
}

// preview shortens a frame for log output.
func preview(data []byte) string {
	const max = 120
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
