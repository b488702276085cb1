package hw

// PinMode selects the pin numbering scheme for real hardware.
type PinMode string

const (
	// ModeBCM addresses pins by Broadcom GPIO number.
	ModeBCM PinMode = "BCM"

	// ModeBOARD addresses pins by physical header position.
	ModeBOARD PinMode = "BOARD"
)

// Backend is the capability interface for driving physical output lines.
//
// The beacon core is written entirely against this interface; a simulated
// implementation must be substitutable without any core change. All methods
// take raw pin numbers in the backend's numbering scheme.
//
// Implementations must tolerate Release on a pin that was never configured
// and repeated Release calls on the same pin.
type Backend interface {
	// Configure claims a pin and sets it to output direction, driven low.
	Configure(pin int) error

	// Write drives a configured pin to the given level (true = high).
	Write(pin int, level bool) error

	// Release returns a pin to input (high-impedance) direction.
	// Idempotent, and safe even if Configure never completed.
	Release(pin int) error
}
