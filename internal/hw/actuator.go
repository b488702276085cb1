package hw

import (
	"errors"
	"fmt"
)

// Actuator drives a group of pins as one physical unit.
//
// The group is the atomic unit of update: [Actuator.SetLevel] drives every
// line to the same level in one action and returns an error for the whole
// action if any line fails, rather than silently leaving the group in a
// mixed state. Callers must treat a failed action as not applied.
type Actuator struct {
	backend Backend
	pins    []int
}

// NewActuator binds a pin group to a backend.
func NewActuator(backend Backend, pins []int) *Actuator {
	return &Actuator{
		backend: backend,
		pins:    append([]int(nil), pins...),
	}
}

// Pins returns a copy of the pin group.
func (a *Actuator) Pins() []int {
	return append([]int(nil), a.pins...)
}

// Configure sets output direction on every line in the group.
//
// A failure aborts the action and releases the lines configured before the
// failing one, so the group is never left half-claimed: after an error the
// caller holds no lines from this group.
func (a *Actuator) Configure() error {
	for i, pin := range a.pins {
		if err := a.backend.Configure(pin); err != nil {
			for _, claimed := range a.pins[:i] {
				_ = a.backend.Release(claimed)
			}
			return fmt.Errorf("configure pin %d: %w", pin, err)
		}
	}
	return nil
}

// SetLevel drives every line in the group to the given level.
//
// A failure on any line is returned as an error for the whole action.
// Lines written before the failing one keep the new level; the caller must
// not record the action as applied, so it is retried on the next tick.
func (a *Actuator) SetLevel(level bool) error {
	for _, pin := range a.pins {
		if err := a.backend.Write(pin, level); err != nil {
			return fmt.Errorf("write pin %d: %w", pin, err)
		}
	}
	return nil
}

// Release returns every line in the group to an ungoverned direction.
//
// Unlike SetLevel, Release does not short-circuit: every line is attempted
// and per-line failures are accumulated, so one stuck pin cannot keep the
// rest claimed. Safe to call repeatedly and safe even if Configure never
// completed.
func (a *Actuator) Release() error {
	var errs []error
	for _, pin := range a.pins {
		if err := a.backend.Release(pin); err != nil {
			errs = append(errs, fmt.Errorf("release pin %d: %w", pin, err))
		}
	}
	return errors.Join(errs...)
}
