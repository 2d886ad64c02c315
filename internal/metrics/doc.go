// Package metrics collects per-backend request, selection, latency, and
// health counters through an event channel, decoupling measurement from
// the request path. The aggregate is exposed as a JSON snapshot.
package metrics
