package kumabeacon

import (
	"errors"
	"fmt"
)

// Monitor references a remotely tracked service by display name or by
// numeric id, never both.
//
// Name-keyed monitors are resolved to ids once, while the beacon is
// configuring, against the status page's monitor list; an exact,
// case-sensitive match is required. Id-keyed monitors skip resolution.
type Monitor struct {
	name string
	id   int
}

// MonitorName references a monitor by its status-page display name.
func MonitorName(name string) Monitor {
	return Monitor{name: name}
}

// MonitorID references a monitor by its numeric id.
func MonitorID(id int) Monitor {
	return Monitor{id: id}
}

// Name returns the display name, or empty for id-keyed monitors.
func (m Monitor) Name() string {
	return m.name
}

// ID returns the numeric id, or zero for name-keyed monitors.
func (m Monitor) ID() int {
	return m.id
}

// Label returns the identifier used in logs, metrics, and the status API:
// the display name when set, otherwise "#id".
func (m Monitor) Label() string {
	if m.name != "" {
		return m.name
	}
	return fmt.Sprintf("#%d", m.id)
}

// validate enforces the exactly-one-of-name-or-id rule.
func (m Monitor) validate() error {
	switch {
	case m.name == "" && m.id == 0:
		return errors.New("monitor requires a name or an id")
	case m.name != "" && m.id != 0:
		return errors.New("monitor must have exactly one of name or id")
	case m.id < 0:
		return fmt.Errorf("monitor id must be positive, got %d", m.id)
	}
	return nil
}

// Binding is the static link between a monitor and the physical output
// lines that mirror its state.
//
// Binding is immutable after creation via [NewBinding]. All fields are
// private with getter methods that return copies of mutable data (the pin
// slice), ensuring the binding cannot be modified after construction.
type Binding struct {
	monitor  Monitor
	pins     []int
	inverted bool
}

// BindingOption configures a [Binding] during construction.
type BindingOption func(*bindingConfig) error

type bindingConfig struct {
	inverted bool
}

// Inverted makes the physical level the logical negation of the monitor's
// up state: a down monitor drives the pins high. Useful for fail lamps and
// active-low hardware.
func Inverted() BindingOption {
	return func(cfg *bindingConfig) error {
		cfg.inverted = true
		return nil
	}
}

// NewBinding creates a [Binding] between a monitor and one or more pins.
//
// Pins must be positive and unique within the binding; a single pin and a
// list of one are equivalent. The pin group is the atomic unit of physical
// update: every pin is always driven to the same level in one action.
//
// Example:
//
//	b, err := kumabeacon.NewBinding(kumabeacon.MonitorName("web"), []int{17})
//	alarm, err := kumabeacon.NewBinding(kumabeacon.MonitorID(7), []int{5, 6},
//	    kumabeacon.Inverted(),
//	)
func NewBinding(monitor Monitor, pins []int, opts ...BindingOption) (Binding, error) {
	if err := monitor.validate(); err != nil {
		return Binding{}, err
	}

	if len(pins) == 0 {
		return Binding{}, fmt.Errorf("binding %s: at least one pin is required", monitor.Label())
	}
	seen := make(map[int]bool, len(pins))
	for _, pin := range pins {
		if pin <= 0 {
			return Binding{}, fmt.Errorf("binding %s: pin must be positive, got %d", monitor.Label(), pin)
		}
		if seen[pin] {
			return Binding{}, fmt.Errorf("binding %s: duplicate pin %d", monitor.Label(), pin)
		}
		seen[pin] = true
	}

	cfg := &bindingConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Binding{}, err
		}
	}

	return Binding{
		monitor:  monitor,
		pins:     append([]int(nil), pins...),
		inverted: cfg.inverted,
	}, nil
}

// Monitor returns the monitor reference.
func (b Binding) Monitor() Monitor {
	return b.monitor
}

// Pins returns a copy of the binding's pin group.
func (b Binding) Pins() []int {
	return append([]int(nil), b.pins...)
}

// Inverted reports whether the physical level negates the monitor state.
func (b Binding) Inverted() bool {
	return b.inverted
}
