package metric

import (
	"fmt"
	"math"
)

// Kind identifies one of the plotted series.
type Kind int

const (
	KindTrainAccuracy Kind = iota
	KindValAccuracy
	KindGPUUtilization
	KindLoss
	KindPerplexity
)

// pair is the (type, metric) tuple an event is classified by.
type pair struct {
	typ    string
	metric string
}

type kindInfo struct {
	name  string
	label string
	color string
	pair  pair
}

// kinds is indexed by Kind.
var kinds = [...]kindInfo{
	KindTrainAccuracy:  {"train_accuracy", "Train Accuracy", "#4e73df", pair{"train", "accuracy"}},
	KindValAccuracy:    {"val_accuracy", "Validation Accuracy", "#1cc88a", pair{"val", "accuracy"}},
	KindGPUUtilization: {"gpu_utilization", "GPU Utilization (%)", "#f6c23e", pair{"system", "gpu_util"}},
	KindLoss:           {"loss", "Loss", "#e74a3b", pair{"train", "loss"}},
	KindPerplexity:     {"perplexity", "Perplexity", "#36b9cc", pair{"eval", "loss"}},
}

var byPair = func() map[pair]Kind {
	m := make(map[pair]Kind, len(kinds))
	for k, info := range kinds {
		m[info.pair] = Kind(k)
	}
	return m
}()

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[info.name] = Kind(k)
	}
	return m
}()

// Classify maps a (type, metric) pair to its Kind. Matching is exact and
// case-sensitive; false means the event is not plotted.
func Classify(typ, metric string) (Kind, bool) {
	k, ok := byPair[pair{typ, metric}]
	return k, ok
}

// Kinds returns every Kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a Kind from its String form.
func ParseKind(s string) (Kind, error) {
	k, ok := byName[s]
	if !ok {
		return 0, fmt.Errorf("unknown series kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kinds)
}

// String returns the snake_case identifier used in JSON and logs.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kinds[k].name
}

// Label is the human-readable series title.
func (k Kind) Label() string {
	if !k.Valid() {
		return k.String()
	}
	return kinds[k].label
}

// Color is the series color as a hex string.
func (k Kind) Color() string {
	if !k.Valid() {
		return "#888888"
	}
	return kinds[k].color
}

// Source returns the (type, metric) pair that feeds k.
func (k Kind) Source() (typ, metric string) {
	if !k.Valid() {
		return "", ""
	}
	return kinds[k].pair.typ, kinds[k].pair.metric
}

// Transform converts a raw event value into the stored value.
// Perplexity is derived from loss as exp(loss); every other kind is identity.
func (k Kind) Transform(v float64) float64 {
	if k == KindPerplexity {
		return math.Exp(v)
	}
	return v
}

// MarshalText implements encoding.TextMarshaler so Kind works as a JSON map key.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown series kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
