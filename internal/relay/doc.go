// Package relay is the metrics relay behind 'trainwatch serve'.
//
// Producers POST one event per request to /webhook. The relay keeps the
// most recent events in a bounded buffer, folds them into the five chart
// series, and pushes each accepted event to every WebSocket subscriber on
// /ws/metrics. Read endpoints expose the buffer and the reduced series,
// and / serves a browser dashboard that plots the live feed.
package relay
