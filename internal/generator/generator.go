// Package generator produces a synthetic training run: per-step accuracy and
// loss for the train, val and test splits plus GPU utilization, shaped like a
// model that slowly converges.
package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
)

// Split scaling factors. Larger factors converge more slowly.
const (
	trainFactor = 1.0
	valFactor   = 20.0
	testFactor  = 30.0
)

// Config controls a generated run.
type Config struct {
	// Steps is the number of training steps, numbered from 0.
	Steps int

	// Interval is the pause between steps.
	Interval time.Duration

	// Eval adds an eval/loss event per step.
	Eval bool

	// Layers adds a gradient/layer_N norm event per layer per step.
	Layers int

	// Seed makes a run reproducible. Zero picks a time-based seed.
	Seed int64

	// OnStep, if set, is called after each step with the running totals.
	OnStep func(Summary)
}

// Sink receives generated events.
type Sink interface {
	Send(ctx context.Context, ev metric.Event) error
	Close() error
}

// Generator emits a synthetic run into a Sink.
type Generator struct {
	cfg Config
	rng *rand.Rand
	log logger.Logger
	now func() time.Time
}

// New creates a Generator.
func New(cfg Config, log logger.Logger) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		log: logger.OrDefault(log),
		now: time.Now,
	}
}

// Summary reports what a run did.
type Summary struct {
	Steps  int
	Sent   int
	Failed int
}

// Run emits every step into sink, waiting Interval between steps. A failed
// Send is logged and skipped. Run stops early when ctx is cancelled and
// returns ctx.Err() with the partial summary.
func (g *Generator) Run(ctx context.Context, sink Sink) (Summary, error) {
	var sum Summary

	for step := 0; step < g.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		for _, ev := range g.Step(step) {
			if err := sink.Send(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				sum.Failed++
				g.log.Warn("failed to send %s: %v", ev, err)
				continue
			}
			sum.Sent++
			g.log.Debug("sent %s", ev)
		}
		sum.Steps++
		if g.cfg.OnStep != nil {
			g.cfg.OnStep(sum)
		}

		if g.cfg.Interval > 0 && step < g.cfg.Steps-1 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(g.cfg.Interval):
			}
		}
	}

	return sum, nil
}

// Step returns the events for one step, all sharing a timestamp.
func (g *Generator) Step(step int) []metric.Event {
	ts := g.now().UTC()
	s := float64(step)

	trainAcc, trainLoss := g.split(step, trainFactor)
	valAcc, valLoss := g.split(step, valFactor)
	testAcc, testLoss := g.split(step, testFactor)

	events := []metric.Event{
		{Timestamp: ts, Step: s, Type: "train", Metric: "accuracy", Value: round6(trainAcc)},
		{Timestamp: ts, Step: s, Type: "train", Metric: "loss", Value: round6(trainLoss)},
		{Timestamp: ts, Step: s, Type: "val", Metric: "accuracy", Value: round6(valAcc)},
		{Timestamp: ts, Step: s, Type: "val", Metric: "loss", Value: round6(valLoss)},
		{Timestamp: ts, Step: s, Type: "test", Metric: "accuracy", Value: round6(testAcc)},
		{Timestamp: ts, Step: s, Type: "test", Metric: "loss", Value: round6(testLoss)},
		{Timestamp: ts, Step: s, Type: "system", Metric: "gpu_util", Value: round6(g.gpuUtilization(step))},
	}
	if g.cfg.Eval {
		// Same curve as validation loss; the relay charts exp(value).
		events = append(events, metric.Event{
			Timestamp: ts, Step: s, Type: "eval", Metric: "loss", Value: round6(g.curve(step, valFactor)),
		})
	}
	for layer := 0; layer < g.cfg.Layers; layer++ {
		events = append(events, metric.Event{
			Timestamp: ts, Step: s, Type: "gradient", Metric: fmt.Sprintf("layer_%d", layer), Value: round6(g.GradientNorm(layer, step)),
		})
	}
	return events
}

// split returns accuracy and loss for one split. Each uses its own draw.
func (g *Generator) split(step int, factor float64) (accuracy, loss float64) {
	accuracy = 0.45 + 1/(1+math.Exp(g.curve(step, factor)))
	loss = g.curve(step, factor)
	return accuracy, loss
}

// curve is a noisy decaying value. Noise shrinks as the run progresses.
func (g *Generator) curve(step int, factor float64) float64 {
	progress := g.progress(step)
	noise := g.uniform(-0.3, 0.3) * (1 - progress)
	draw := float64(g.rng.Intn(1001))
	return 1/math.Log(progress/factor*draw+1.1) + noise
}

// gpuUtilization dips on data-loading steps and spikes on update steps.
func (g *Generator) gpuUtilization(step int) float64 {
	util := 0.85
	if step%10 == 0 {
		util -= 0.2
	}
	if step%5 == 0 {
		util += 0.1
	}
	return util + g.uniform(-0.05, 0.05)
}

// GradientNorm models a per-layer gradient norm that peaks around layer 5
// and decays over the run.
func (g *Generator) GradientNorm(layer, step int) float64 {
	decay := 1 / (1 + float64(step)/1000)
	d := float64(layer - 5)
	layerFactor := math.Exp(-0.5 * d * d / 4)
	noise := g.uniform(-0.1, 0.1) * (1 - g.progress(step))
	return (0.5+layerFactor)*decay + noise
}

func (g *Generator) progress(step int) float64 {
	if g.cfg.Steps <= 0 {
		return 0
	}
	return float64(step) / float64(g.cfg.Steps)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// String describes the run for log lines.
func (c Config) String() string {
	return fmt.Sprintf("%d steps every %s (eval=%t, layers=%d)", c.Steps, c.Interval, c.Eval, c.Layers)
}
