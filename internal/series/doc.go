// Package series reduces classified metric events into plottable time series.
//
// A Series holds two parallel sequences, Labels (steps) and Data (values),
// that always have the same length. Points are kept in arrival order; they
// are never sorted by step.
//
// Board owns one Series per metric.Kind and is driven by a single writer.
// SyncBoard adds locking for callers that read while another goroutine writes.
package series
