// Package hw provides the GPIO capability layer for kumabeacon.
//
// This package is internal to kumabeacon and isolates all physical pin
// handling behind the [Backend] interface:
//
//   - [PeriphBackend]: real hardware via periph.io, supporting BCM and
//     BOARD pin numbering
//   - [SimBackend]: an in-memory simulator that logs every operation,
//     used by tests, the example program, and the --simulate flag
//
// An [Actuator] groups one or more pins into the atomic unit of physical
// update: every line in the group is driven to the same level in one
// action, and a mid-group failure is an error for the whole action.
//
// The backend is injected into the beacon at construction time and owned
// by it for the process lifetime; nothing in this package holds global
// state beyond the periph.io host initialization.
package hw
