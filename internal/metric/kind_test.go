package metric

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		typ    string
		metric string
		want   Kind
		ok     bool
	}{
		{"train", "accuracy", KindTrainAccuracy, true},
		{"val", "accuracy", KindValAccuracy, true},
		{"system", "gpu_util", KindGPUUtilization, true},
		{"train", "loss", KindLoss, true},
		{"eval", "loss", KindPerplexity, true},

		{"val", "loss", 0, false},
		{"test", "accuracy", 0, false},
		{"test", "loss", 0, false},
		{"eval", "accuracy", 0, false},
		{"system", "cpu_util", 0, false},
		{"unknown", "foo", 0, false},
		{"Train", "accuracy", 0, false},
		{"train", "Accuracy", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.metric, func(t *testing.T) {
			got, ok := Classify(tt.typ, tt.metric)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	ks := Kinds()
	require.Len(t, ks, 5)
	assert.Equal(t, []Kind{
		KindTrainAccuracy,
		KindValAccuracy,
		KindGPUUtilization,
		KindLoss,
		KindPerplexity,
	}, ks)

	// Every kind round-trips through its source pair.
	for _, k := range ks {
		typ, m := k.Source()
		got, ok := Classify(typ, m)
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
}

func TestKindMetadata(t *testing.T) {
	tests := []struct {
		kind  Kind
		name  string
		label string
		color string
	}{
		{KindTrainAccuracy, "train_accuracy", "Train Accuracy", "#4e73df"},
		{KindValAccuracy, "val_accuracy", "Validation Accuracy", "#1cc88a"},
		{KindGPUUtilization, "gpu_utilization", "GPU Utilization (%)", "#f6c23e"},
		{KindLoss, "loss", "Loss", "#e74a3b"},
		{KindPerplexity, "perplexity", "Perplexity", "#36b9cc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.label, tt.kind.Label())
			assert.Equal(t, tt.color, tt.kind.Color())
		})
	}
}

func TestKind_Invalid(t *testing.T) {
	k := Kind(42)
	assert.False(t, k.Valid())
	assert.Equal(t, "kind(42)", k.String())
	typ, m := k.Source()
	assert.Empty(t, typ)
	assert.Empty(t, m)

	_, err := k.MarshalText()
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	assert.Equal(t, 1.0, KindPerplexity.Transform(0))
	assert.InDelta(t, math.E, KindPerplexity.Transform(1), 1e-12)
	assert.InDelta(t, math.Exp(2.3), KindPerplexity.Transform(2.3), 1e-9)

	for _, k := range []Kind{KindTrainAccuracy, KindValAccuracy, KindGPUUtilization, KindLoss} {
		assert.Equal(t, 0.42, k.Transform(0.42), k.String())
		assert.Equal(t, -3.0, k.Transform(-3), k.String())
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("perplexity")
	require.NoError(t, err)
	assert.Equal(t, KindPerplexity, k)

	_, err = ParseKind("throughput")
	assert.Error(t, err)
}

func TestKind_JSONMapKey(t *testing.T) {
	in := map[Kind]int{KindLoss: 3, KindValAccuracy: 1}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"loss":3,"val_accuracy":1}`, string(data))

	var out map[Kind]int
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
