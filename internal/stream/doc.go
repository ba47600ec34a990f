// Package stream subscribes to the metrics WebSocket feed.
//
// Client owns exactly one connection: it dials, reads frames into a
// buffered channel, keeps the connection alive with pings, and closes
// once. It never sends data frames.
//
// Subscriber wraps Client with exponential-backoff reconnects and reports
// connection state changes so a UI can show when the feed is down.
package stream
