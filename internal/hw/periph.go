package hw

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphBackend implements [Backend] on real hardware via periph.io.
//
// Pins are resolved by name through the periph.io registry and cached on
// first use. The numbering scheme is fixed at construction: BCM pins map to
// registry names like "GPIO17", BOARD pins to physical header positions
// like "P1_11".
type PeriphBackend struct {
	mode PinMode

	mu   sync.Mutex
	pins map[int]gpio.PinIO // cached pin handles
}

// NewPeriphBackend initializes periph.io and returns a hardware backend
// using the given numbering scheme.
//
// Returns an error if periph.io host initialization fails, which typically
// means the process is not running on supported hardware.
func NewPeriphBackend(mode PinMode) (*PeriphBackend, error) {
	if mode != ModeBCM && mode != ModeBOARD {
		return nil, fmt.Errorf("unknown pin mode %q (expected BCM or BOARD)", mode)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return &PeriphBackend{
		mode: mode,
		pins: make(map[int]gpio.PinIO),
	}, nil
}

// resolvePin looks up a pin by number, caching the result.
func (b *PeriphBackend) resolvePin(pin int) (gpio.PinIO, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pins[pin]; ok {
		return p, nil
	}

	name := b.pinName(pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pin %d (%s) not found in hardware", pin, name)
	}
	b.pins[pin] = p
	return p, nil
}

// pinName maps a pin number to its periph.io registry name.
func (b *PeriphBackend) pinName(pin int) string {
	if b.mode == ModeBOARD {
		return fmt.Sprintf("P1_%d", pin)
	}
	return fmt.Sprintf("GPIO%d", pin)
}

// Configure claims a pin for output, initially driven low.
func (b *PeriphBackend) Configure(pin int) error {
	p, err := b.resolvePin(pin)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("set pin %d to output: %w", pin, err)
	}
	return nil
}

// Write drives a pin to the given level.
func (b *PeriphBackend) Write(pin int, level bool) error {
	p, err := b.resolvePin(pin)
	if err != nil {
		return err
	}
	out := gpio.Low
	if level {
		out = gpio.High
	}
	if err := p.Out(out); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Release returns a pin to input direction.
//
// Safe to call on a pin that was never configured: the pin is resolved and
// set to input either way, leaving the line ungoverned.
func (b *PeriphBackend) Release(pin int) error {
	p, err := b.resolvePin(pin)
	if err != nil {
		return err
	}
	if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return fmt.Errorf("release pin %d: %w", pin, err)
	}
	return nil
}
