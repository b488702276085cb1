package store

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of [Store].
//
// The poll loop is the only writer; the HTTP server reads concurrently.
// No state survives process termination, historical status is an explicit
// non-goal of the beacon.
type MemoryStore struct {
	mu       sync.RWMutex
	health   Health
	bindings []BindingStatus
}

// NewMemoryStore creates a [Store] starting in the idle phase.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		health: Health{Phase: PhaseIdle},
	}
}

// SetBindings seeds the per-binding entries with unknown status.
func (m *MemoryStore) SetBindings(bindings []BindingStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = append([]BindingStatus(nil), bindings...)
}

// SetPhase records a lifecycle transition.
func (m *MemoryStore) SetPhase(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health.Phase = phase
}

// RecordPoll records one poll attempt, counting failures separately.
func (m *MemoryStore) RecordPoll(at time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.health.LastPollAt = at
	m.health.Cycles++
	if err != nil {
		m.health.Failures++
		msg := err.Error()
		m.health.LastPollError = &msg
		return
	}
	m.health.LastPollError = nil
}

// UpdateStatus refreshes a binding's monitor status.
func (m *MemoryStore) UpdateStatus(index int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bindings) {
		return
	}
	m.bindings[index].Status = status
}

// RecordWrite records a successful write, tracking level changes.
func (m *MemoryStore) RecordWrite(index int, level bool, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bindings) {
		return
	}
	b := &m.bindings[index]
	if b.Level == nil || *b.Level != level {
		b.LastChange = at
	}
	l := level
	b.Level = &l
	b.LastWrite = at
	b.Error = nil
}

// RecordWriteError records a failed write without touching the level.
func (m *MemoryStore) RecordWriteError(index int, msg string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.bindings) {
		return
	}
	b := &m.bindings[index]
	b.LastWrite = at
	b.Error = &msg
}

// Overview returns a copy of the current state. The returned slice and its
// pointer fields are copies; modifications do not affect the store.
func (m *MemoryStore) Overview() Overview {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bindings := make([]BindingStatus, len(m.bindings))
	for i, b := range m.bindings {
		cp := b
		cp.Pins = append([]int(nil), b.Pins...)
		if b.Level != nil {
			l := *b.Level
			cp.Level = &l
		}
		if b.Error != nil {
			e := *b.Error
			cp.Error = &e
		}
		bindings[i] = cp
	}

	health := m.health
	if m.health.LastPollError != nil {
		e := *m.health.LastPollError
		health.LastPollError = &e
	}

	return Overview{Health: health, Bindings: bindings}
}
