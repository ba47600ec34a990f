// Package dashboard is the terminal UI for a live training run.
//
// The Model is a Bubble Tea program that owns a series.Board. Frames and
// connection status updates arrive from a Feed as messages, so every series
// mutation happens on the update loop. Each metric kind gets a card with a
// braille line chart; enter opens a detail view with a larger chart and the
// most recent samples.
package dashboard
