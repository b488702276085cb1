// Package server provides the optional status HTTP surface for kumabeacon.
//
// This package is internal to kumabeacon and serves three read-only
// endpoints:
//
//   - GET /api/status: JSON snapshot of loop health and per-binding state
//   - GET /healthz: 200 while the loop is running, 503 otherwise
//   - GET /metrics: Prometheus exposition over the beacon's registry
//
// The server binds synchronously (so a bad listen address fails startup)
// and shuts down gracefully on context cancellation with a bounded timeout.
//
// Users of the kumabeacon library should not need to interact with this
// package directly; it is started by the beacon when a listen address is
// configured.
package server
