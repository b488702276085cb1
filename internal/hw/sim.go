package hw

import (
	"log/slog"
	"sync"
)

// SimBackend implements [Backend] with an in-memory pin table.
//
// Every operation is logged, mirroring what would happen on real hardware,
// which makes the simulator useful both for development off-device and for
// asserting on pin state in tests. All methods are safe for concurrent use.
type SimBackend struct {
	logger *slog.Logger

	mu   sync.Mutex
	pins map[int]*simPin
}

type simPin struct {
	configured bool
	level      bool
	writes     int
	releases   int
}

// NewSimBackend creates a simulated backend logging to the given logger.
// A nil logger falls back to [slog.Default].
func NewSimBackend(logger *slog.Logger) *SimBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimBackend{
		logger: logger.With("component", "sim-gpio"),
		pins:   make(map[int]*simPin),
	}
}

func (b *SimBackend) pin(n int) *simPin {
	p, ok := b.pins[n]
	if !ok {
		p = &simPin{}
		b.pins[n] = p
	}
	return p
}

// Configure marks a pin as an output, driven low.
func (b *SimBackend) Configure(pin int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pin(pin)
	p.configured = true
	p.level = false
	b.logger.Info("pin configured", "pin", pin)
	return nil
}

// Write records the level for a pin.
func (b *SimBackend) Write(pin int, level bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pin(pin)
	p.level = level
	p.writes++
	b.logger.Info("pin written", "pin", pin, "level", levelString(level))
	return nil
}

// Release returns a pin to its unconfigured state.
func (b *SimBackend) Release(pin int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pin(pin)
	p.configured = false
	p.releases++
	b.logger.Info("pin released", "pin", pin)
	return nil
}

// Level reports the last written level for a pin. The second return value
// is false if the pin was never written.
func (b *SimBackend) Level(pin int) (level, written bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok || p.writes == 0 {
		return false, false
	}
	return p.level, true
}

// Writes reports how many times a pin has been written.
func (b *SimBackend) Writes(pin int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pins[pin]; ok {
		return p.writes
	}
	return 0
}

// Releases reports how many times a pin has been released.
func (b *SimBackend) Releases(pin int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pins[pin]; ok {
		return p.releases
	}
	return 0
}

// Configured reports whether a pin currently holds output direction.
func (b *SimBackend) Configured(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pins[pin]; ok {
		return p.configured
	}
	return false
}

func levelString(level bool) string {
	if level {
		return "high"
	}
	return "low"
}
