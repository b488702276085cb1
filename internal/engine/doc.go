// Package engine provides the status-to-actuator reconciliation core.
//
// This package is internal to kumabeacon. The [Reconciler] turns one
// heartbeat snapshot into the minimal set of physical writes:
//
//   - a fetch failure produces no actions at all, so the last known
//     physical state is preserved rather than blanked
//   - a monitor that is unknown in the snapshot leaves its binding's
//     actuator untouched
//   - a known state produces an action only when the desired level
//     differs from the last committed level
//
// The reconciler only proposes actions; the beacon applies them and calls
// [Reconciler.Commit] after the hardware write succeeds. A failed write is
// never committed, so the same action is re-emitted on the next tick.
//
// Users of the kumabeacon library should not need to interact with this
// package directly.
package engine
