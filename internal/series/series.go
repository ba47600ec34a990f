package series

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/rileyhilliard/trainwatch/internal/metric"
)

// Series is an append-only sequence of (step, value) samples for one Kind.
type Series struct {
	Kind   metric.Kind
	Label  string
	Color  string
	Labels []float64
	Data   []float64

	// MaxPoints caps the number of retained samples. Zero keeps everything.
	MaxPoints int

	tip *tip
}

// tip records the spare capacity behind the newest Series built on a
// backing array. Only that Series may append in place.
type tip struct {
	labels, data int
}

func (s Series) owns() bool {
	return s.tip != nil &&
		s.tip.labels == cap(s.Labels)-len(s.Labels) &&
		s.tip.data == cap(s.Data)-len(s.Data)
}

// New returns an empty series for kind.
func New(kind metric.Kind, maxPoints int) Series {
	if maxPoints < 0 {
		maxPoints = 0
	}
	return Series{
		Kind:      kind,
		Label:     kind.Label(),
		Color:     kind.Color(),
		Labels:    []float64{},
		Data:      []float64{},
		MaxPoints: maxPoints,
	}
}

// Append returns a Series equal to s with (step, value) pushed onto both
// sequences. Neither s nor any other Series value is modified: appending to
// an older value, or twice to the same one, copies instead of writing into
// storage a newer value already uses.
func (s Series) Append(step, value float64) Series {
	switch {
	case !s.owns():
		s.Labels = slices.Grow(slices.Clone(s.Labels), 1)
		s.Data = slices.Grow(slices.Clone(s.Data), 1)
		s.tip = nil
	case len(s.Labels) == cap(s.Labels) || len(s.Data) == cap(s.Data):
		// append moves to a new array; older values keep the old tip.
		s.tip = nil
	}

	s.Labels = append(s.Labels, step)
	s.Data = append(s.Data, value)

	if s.MaxPoints > 0 && len(s.Labels) > s.MaxPoints {
		drop := len(s.Labels) - s.MaxPoints
		s.Labels = s.Labels[drop:]
		s.Data = s.Data[drop:]
	}

	if s.tip == nil {
		s.tip = &tip{}
	}
	s.tip.labels = cap(s.Labels) - len(s.Labels)
	s.tip.data = cap(s.Data) - len(s.Data)
	return s
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.Labels)
}

// Last returns the most recent sample.
func (s Series) Last() (step, value float64, ok bool) {
	n := len(s.Labels)
	if n == 0 {
		return 0, 0, false
	}
	return s.Labels[n-1], s.Data[n-1], true
}

// Tail returns a copy of the last n samples as a Series.
func (s Series) Tail(n int) Series {
	if n < 0 {
		n = 0
	}
	if n > len(s.Labels) {
		n = len(s.Labels)
	}
	start := len(s.Labels) - n
	out := s
	out.tip = nil
	out.Labels = append([]float64(nil), s.Labels[start:]...)
	out.Data = append([]float64(nil), s.Data[start:]...)
	return out
}

// Clone returns a deep copy that shares no storage with s.
func (s Series) Clone() Series {
	return s.Tail(len(s.Labels))
}

// clip limits capacity to length and drops ownership, so a holder never
// reads or writes state the owner keeps mutating.
func (s Series) clip() Series {
	s.Labels = s.Labels[:len(s.Labels):len(s.Labels)]
	s.Data = s.Data[:len(s.Data):len(s.Data)]
	s.tip = nil
	return s
}

// Bounds returns the min and max finite values. ok is false when the
// series holds no finite values.
func (s Series) Bounds() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range s.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// seriesJSON is the wire shape served to browser charts.
type seriesJSON struct {
	Kind   metric.Kind `json:"kind"`
	Label  string      `json:"label"`
	Color  string      `json:"color"`
	Labels []float64   `json:"labels"`
	Data   []*float64  `json:"data"`
}

// MarshalJSON writes non-finite values (an overflowed perplexity, say) as null.
func (s Series) MarshalJSON() ([]byte, error) {
	out := seriesJSON{
		Kind:   s.Kind,
		Label:  s.Label,
		Color:  s.Color,
		Labels: s.Labels,
		Data:   make([]*float64, len(s.Data)),
	}
	if out.Labels == nil {
		out.Labels = []float64{}
	}
	for i := range s.Data {
		if v := s.Data[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			out.Data[i] = &v
		}
	}
	return json.Marshal(out)
}
