package relay

import (
	"sync"

	"github.com/rileyhilliard/trainwatch/internal/metric"
)

// Buffer keeps the most recent events, evicting the oldest once full.
// Safe for concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	items []metric.Event
	start int
	size  int
}

// NewBuffer creates a buffer holding at most capacity events.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{items: make([]metric.Event, capacity)}
}

// Add appends e, overwriting the oldest event when the buffer is full.
func (b *Buffer) Add(e metric.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.size) % len(b.items)
	b.items[idx] = e
	if b.size < len(b.items) {
		b.size++
		return
	}
	b.start = (b.start + 1) % len(b.items)
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.items)
}

// Latest returns the newest n events, oldest first. n is clamped to
// [1, Len()], so an empty buffer yields an empty slice.
func (b *Buffer) Latest(n int) []metric.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = clamp(n, b.size)
	out := make([]metric.Event, n)
	first := b.start + b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.items[(first+i)%len(b.items)]
	}
	return out
}

// clamp limits n to [1, size], or 0 when size is 0.
func clamp(n, size int) int {
	if n < 1 {
		n = 1
	}
	if n > size {
		n = size
	}
	return n
}

// Point is one (step, value) pair in a grouped response.
type Point struct {
	Step  float64 `json:"step"`
	Value float64 `json:"value"`
}

// Group arranges events as type -> metric -> points, preserving order.
func Group(events []metric.Event) map[string]map[string][]Point {
	out := make(map[string]map[string][]Point)
	for _, e := range events {
		byMetric, ok := out[e.Type]
		if !ok {
			byMetric = make(map[string][]Point)
			out[e.Type] = byMetric
		}
		byMetric[e.Metric] = append(byMetric[e.Metric], Point{Step: e.Step, Value: e.Value})
	}
	return out
}
