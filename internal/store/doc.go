// Package store provides the in-memory registry of current beacon state.
//
// This package is internal to kumabeacon. It holds the latest per-binding
// status and the poll loop's health counters, written by the reconciliation
// loop and read by the status HTTP server. Nothing is persisted: the store
// starts unknown/unset on every process start.
//
// The main components are:
//
//   - [Store]: interface defining the registry operations
//   - [MemoryStore]: the RWMutex-guarded implementation
//   - [BindingStatus], [Health], [Overview]: the JSON shapes served by the
//     status API
//
// Users of the kumabeacon library should not need to interact with this
// package directly.
package store
