package store

import "time"

// Lifecycle phase labels as exposed over the status API.
// The root package owns the typed state machine; the store holds the
// serialized form to avoid an upward import.
const (
	PhaseIdle        = "idle"
	PhaseConfiguring = "configuring"
	PhaseRunning     = "running"
	PhaseDraining    = "draining"
	PhaseStopped     = "stopped"
)

// BindingStatus is the stored view of one binding, optimized for JSON
// serialization by the status API.
type BindingStatus struct {
	// Monitor is the binding's human-readable label.
	Monitor string `json:"monitor"`

	// MonitorID is the resolved numeric monitor id.
	MonitorID int `json:"monitor_id"`

	// Pins is the group of output lines the binding drives.
	Pins []int `json:"pins"`

	// Inverted reports whether the physical level negates the monitor state.
	Inverted bool `json:"inverted"`

	// Status is the monitor's state from the latest poll
	// ("up", "down", "unknown").
	Status string `json:"status"`

	// Level is the last successfully driven level. nil until the first
	// successful write.
	Level *bool `json:"level"`

	// LastChange is when the driven level last changed.
	LastChange time.Time `json:"last_change"`

	// LastWrite is when the binding's pins were last written.
	LastWrite time.Time `json:"last_write"`

	// Error holds the most recent write failure, cleared on success.
	Error *string `json:"error"`
}

// Health summarizes the beacon's poll loop for the status API.
type Health struct {
	// Phase is the current lifecycle phase.
	Phase string `json:"phase"`

	// LastPollAt is when the last poll attempt finished.
	LastPollAt time.Time `json:"last_poll_at"`

	// LastPollError holds the most recent fetch failure, cleared by the
	// next successful poll.
	LastPollError *string `json:"last_poll_error"`

	// Cycles counts poll attempts since startup.
	Cycles uint64 `json:"cycles"`

	// Failures counts failed poll attempts since startup.
	Failures uint64 `json:"failures"`
}

// Overview is the full status snapshot served by the HTTP API.
type Overview struct {
	Health   Health          `json:"health"`
	Bindings []BindingStatus `json:"bindings"`
}

// Store defines the registry of current beacon state.
//
// Implementations must be safe for concurrent access: the poll loop writes
// while the HTTP server reads. Bindings are addressed by index in the order
// given to SetBindings, matching the reconciler's result indexing.
type Store interface {
	// SetBindings seeds the per-binding entries. Called once, before the
	// loop starts.
	SetBindings(bindings []BindingStatus)

	// SetPhase records a lifecycle transition.
	SetPhase(phase string)

	// RecordPoll records the outcome of one poll attempt.
	RecordPoll(at time.Time, err error)

	// UpdateStatus refreshes a binding's monitor status, including
	// unchanged ticks.
	UpdateStatus(index int, status string)

	// RecordWrite records a successful level write for a binding.
	RecordWrite(index int, level bool, at time.Time)

	// RecordWriteError records a failed write for a binding.
	RecordWriteError(index int, msg string, at time.Time)

	// Overview returns a copy of the current state.
	Overview() Overview
}
