// Package kuma provides the HTTP client for the Uptime Kuma status-page API.
//
// This package is internal to kumabeacon and handles the two read-only
// endpoints the beacon depends on:
//
//   - [Client.FetchMonitors]: the status-page document, used once while
//     configuring to resolve monitor display names to numeric ids
//   - [Client.FetchHeartbeats]: the heartbeat document, polled every tick
//     and condensed into a [Snapshot] of per-monitor status
//
// Each method issues exactly one request; retry cadence belongs to the
// reconciliation loop, not to this package. A monitor that is absent from
// the heartbeat document (or reports an empty heartbeat list) is
// [StatusUnknown], never down, so a partial response cannot flip a lamp.
//
// Users of the kumabeacon library should not need to interact with this
// package directly.
package kuma
