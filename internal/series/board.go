package series

import (
	"sync"

	"github.com/rileyhilliard/trainwatch/internal/metric"
)

// Board holds one Series per metric.Kind. It is not safe for concurrent
// use; wrap it in a SyncBoard when readers run on other goroutines.
type Board struct {
	maxPoints int
	series    []Series
}

// NewBoard creates a board with every series empty. maxPoints <= 0 keeps
// every sample.
func NewBoard(maxPoints int) *Board {
	if maxPoints < 0 {
		maxPoints = 0
	}
	b := &Board{maxPoints: maxPoints}
	b.Reset()
	return b
}

// Apply stores kind.Transform(value) at step on the matching series.
// Returns false for an undefined kind.
func (b *Board) Apply(kind metric.Kind, step, value float64) bool {
	if !kind.Valid() {
		return false
	}
	b.series[kind] = b.series[kind].Append(step, kind.Transform(value))
	return true
}

// Series returns the current value of one series. The result stays valid
// after further Apply calls.
func (b *Board) Series(kind metric.Kind) Series {
	if !kind.Valid() {
		return Series{}
	}
	return b.series[kind].clip()
}

// Snapshot returns every series keyed by kind.
func (b *Board) Snapshot() map[metric.Kind]Series {
	out := make(map[metric.Kind]Series, len(b.series))
	for i := range b.series {
		out[metric.Kind(i)] = b.series[i].clip()
	}
	return out
}

// Len returns the number of samples for kind.
func (b *Board) Len(kind metric.Kind) int {
	if !kind.Valid() {
		return 0
	}
	return b.series[kind].Len()
}

// Total returns the number of samples across every series.
func (b *Board) Total() int {
	n := 0
	for i := range b.series {
		n += b.series[i].Len()
	}
	return n
}

// MaxPoints returns the per-series retention cap (0 is unbounded).
func (b *Board) MaxPoints() int {
	return b.maxPoints
}

// Reset empties every series.
func (b *Board) Reset() {
	kinds := metric.Kinds()
	b.series = make([]Series, len(kinds))
	for _, k := range kinds {
		b.series[k] = New(k, b.maxPoints)
	}
}

// SyncBoard is a Board guarded by a RWMutex. Returned Series are deep copies.
type SyncBoard struct {
	mu    sync.RWMutex
	board *Board
}

// NewSyncBoard creates a locked board.
func NewSyncBoard(maxPoints int) *SyncBoard {
	return &SyncBoard{board: NewBoard(maxPoints)}
}

// Apply stores a sample. See Board.Apply.
func (s *SyncBoard) Apply(kind metric.Kind, step, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Apply(kind, step, value)
}

// Series returns a copy of one series.
func (s *SyncBoard) Series(kind metric.Kind) Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Series(kind).Clone()
}

// Snapshot returns copies of every series in metric.Kinds order.
func (s *SyncBoard) Snapshot() []Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := metric.Kinds()
	out := make([]Series, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, s.board.Series(k).Clone())
	}
	return out
}

// Len returns the number of samples for kind.
func (s *SyncBoard) Len(kind metric.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Len(kind)
}

// Total returns the number of samples across every series.
func (s *SyncBoard) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Total()
}

// Reset empties every series.
func (s *SyncBoard) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Reset()
}
