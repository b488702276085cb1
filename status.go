package kumabeacon

import (
	"time"

	"kumabeacon/internal/kuma"
)

// Status represents the condensed health state of a monitor.
//
// Status is a string type that can hold one of three predefined values:
// [StatusUp], [StatusDown], or [StatusUnknown]. Using a string type allows
// for easy JSON serialization and human-readable logging while maintaining
// type safety through the defined constants.
type Status string

const (
	// StatusUp indicates the monitor's latest heartbeat reported healthy.
	StatusUp Status = "up"

	// StatusDown indicates the monitor's latest heartbeat reported a failure.
	StatusDown Status = "down"

	// StatusUnknown indicates the monitor's state could not be determined.
	// This occurs when the monitor is absent from the heartbeat document,
	// reports an empty heartbeat list, or is in a pending/maintenance state.
	// Unknown never drives a pin: the previous physical state persists.
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// Transition describes one applied actuator change.
//
// Transition is the payload delivered to callbacks registered with
// [WithTransitionCallback], emitted after the physical write has succeeded
// and the new level has been committed.
type Transition struct {
	// Monitor is the binding's human-readable label (the display name, or
	// "#id" for id-keyed bindings).
	Monitor string

	// MonitorID is the resolved numeric monitor id.
	MonitorID int

	// Pins is the group of output lines that were driven.
	Pins []int

	// Status is the monitor state that caused the change.
	Status Status

	// Level is the physical level the pins were driven to (true = high).
	Level bool

	// At is when the write completed.
	At time.Time
}

// Phase identifies a stage of the beacon lifecycle.
//
// The beacon moves strictly forward through [PhaseIdle], [PhaseConfiguring],
// [PhaseRunning], [PhaseDraining], and [PhaseStopped]; a configuration
// failure jumps from configuring directly to stopped.
type Phase string

const (
	// PhaseIdle is the state before Start is called.
	PhaseIdle Phase = "idle"

	// PhaseConfiguring covers monitor name resolution and pin setup.
	PhaseConfiguring Phase = "configuring"

	// PhaseRunning is the steady state: the poll loop is ticking.
	PhaseRunning Phase = "running"

	// PhaseDraining means a stop was requested; the in-flight tick is
	// allowed to finish and no new tick starts.
	PhaseDraining Phase = "draining"

	// PhaseStopped means all pins have been released and Start has
	// returned (or is about to).
	PhaseStopped Phase = "stopped"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// statusFromKuma converts the internal client's status at the API boundary.
func statusFromKuma(s kuma.Status) Status {
	switch s {
	case kuma.StatusUp:
		return StatusUp
	case kuma.StatusDown:
		return StatusDown
	default:
		return StatusUnknown
	}
}
