package metric

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// wireEvent mirrors Event with pointer numbers so missing fields are detectable.
type wireEvent struct {
	Type      string          `json:"type"`
	Metric    string          `json:"metric"`
	Step      *float64        `json:"step"`
	Value     *float64        `json:"value"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Decode parses one feed frame. Invalid JSON, a missing or non-numeric step
// or value, or a non-finite number yields an error wrapping ErrMalformedEvent.
// An unknown (type, metric) pair is not an error.
func Decode(frame []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(frame, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if w.Step == nil {
		return Event{}, fmt.Errorf("%w: step is required", ErrMalformedEvent)
	}
	if w.Value == nil {
		return Event{}, fmt.Errorf("%w: value is required", ErrMalformedEvent)
	}
	if err := checkFinite(*w.Step, *w.Value); err != nil {
		return Event{}, err
	}

	return Event{
		Type:      w.Type,
		Metric:    w.Metric,
		Step:      *w.Step,
		Value:     *w.Value,
		Timestamp: parseTimestamp(w.Timestamp),
	}, nil
}

// Encode renders e as a single JSON frame.
func Encode(e Event) ([]byte, error) {
	if err := checkFinite(e.Step, e.Value); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func checkFinite(step, value float64) error {
	if math.IsNaN(step) || math.IsInf(step, 0) {
		return fmt.Errorf("%w: step is not finite", ErrMalformedEvent)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value is not finite", ErrMalformedEvent)
	}
	return nil
}

// parseTimestamp accepts RFC 3339, with or without a zone offset.
// Anything else is dropped.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
