package metric

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by Decode and Validate.
var (
	// ErrMalformedEvent wraps every failure to turn a frame into an Event.
	ErrMalformedEvent = errors.New("malformed metric event")
)

// Event is one metric observation as it travels on the feed.
type Event struct {
	Type   string  `json:"type"`
	Metric string  `json:"metric"`
	Step   float64 `json:"step"`
	Value  float64 `json:"value"`

	// Timestamp is set by producers. Zero when the frame omits it or
	// carries something unparseable; classification never looks at it.
	Timestamp time.Time `json:"timestamp"`
}

// Kind returns the event's classification, if any.
func (e Event) Kind() (Kind, bool) {
	return Classify(e.Type, e.Metric)
}

// Validate checks the fields a producer must always set.
func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: type is required", ErrMalformedEvent)
	}
	if e.Metric == "" {
		return fmt.Errorf("%w: metric is required", ErrMalformedEvent)
	}
	return checkFinite(e.Step, e.Value)
}

// String renders the event for log lines.
func (e Event) String() string {
	return fmt.Sprintf("%s/%s step=%g value=%g", e.Type, e.Metric, e.Step, e.Value)
}
