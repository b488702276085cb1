package store

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// seededStore returns a store with two bindings in the unknown state.
func seededStore() *MemoryStore {
	m := NewMemoryStore()
	m.SetBindings([]BindingStatus{
		{Monitor: "web", MonitorID: 1, Pins: []int{17}, Status: "unknown"},
		{Monitor: "db", MonitorID: 2, Pins: []int{5, 6}, Inverted: true, Status: "unknown"},
	})
	return m
}

// TestMemoryStore_InitialState verifies the store starts idle with unset
// binding levels.
func TestMemoryStore_InitialState(t *testing.T) {
	m := seededStore()

	ov := m.Overview()
	if ov.Health.Phase != PhaseIdle {
		t.Errorf("Phase = %q, want %q", ov.Health.Phase, PhaseIdle)
	}
	if len(ov.Bindings) != 2 {
		t.Fatalf("got %d bindings, want 2", len(ov.Bindings))
	}
	if ov.Bindings[0].Level != nil {
		t.Error("Level set before any write")
	}
}

// TestMemoryStore_RecordPoll verifies cycle and failure counting, and that
// a successful poll clears the last error.
func TestMemoryStore_RecordPoll(t *testing.T) {
	m := seededStore()
	now := time.Now()

	m.RecordPoll(now, nil)
	m.RecordPoll(now, errors.New("timeout"))
	m.RecordPoll(now, nil)

	h := m.Overview().Health
	if h.Cycles != 3 {
		t.Errorf("Cycles = %d, want 3", h.Cycles)
	}
	if h.Failures != 1 {
		t.Errorf("Failures = %d, want 1", h.Failures)
	}
	if h.LastPollError != nil {
		t.Errorf("LastPollError = %q after successful poll, want nil", *h.LastPollError)
	}
}

// TestMemoryStore_RecordWrite verifies level tracking and change timestamps.
func TestMemoryStore_RecordWrite(t *testing.T) {
	m := seededStore()
	t1 := time.Now()
	t2 := t1.Add(time.Second)
	t3 := t2.Add(time.Second)

	m.RecordWrite(0, true, t1)

	b := m.Overview().Bindings[0]
	if b.Level == nil || !*b.Level {
		t.Fatal("Level not high after write")
	}
	if !b.LastChange.Equal(t1) {
		t.Errorf("LastChange = %v, want %v", b.LastChange, t1)
	}

	// same level again: write timestamp moves, change timestamp does not
	m.RecordWrite(0, true, t2)
	b = m.Overview().Bindings[0]
	if !b.LastChange.Equal(t1) {
		t.Errorf("LastChange moved on unchanged level: %v, want %v", b.LastChange, t1)
	}
	if !b.LastWrite.Equal(t2) {
		t.Errorf("LastWrite = %v, want %v", b.LastWrite, t2)
	}

	// level flips: change timestamp moves
	m.RecordWrite(0, false, t3)
	b = m.Overview().Bindings[0]
	if !b.LastChange.Equal(t3) {
		t.Errorf("LastChange = %v after flip, want %v", b.LastChange, t3)
	}
}

// TestMemoryStore_RecordWriteError verifies the error is kept until the next
// successful write and the level is untouched.
func TestMemoryStore_RecordWriteError(t *testing.T) {
	m := seededStore()
	now := time.Now()

	m.RecordWrite(1, true, now)
	m.RecordWriteError(1, "line stuck", now.Add(time.Second))

	b := m.Overview().Bindings[1]
	if b.Error == nil || *b.Error != "line stuck" {
		t.Errorf("Error = %v, want %q", b.Error, "line stuck")
	}
	if b.Level == nil || !*b.Level {
		t.Error("Level changed by failed write")
	}

	m.RecordWrite(1, true, now.Add(2*time.Second))
	if b := m.Overview().Bindings[1]; b.Error != nil {
		t.Errorf("Error = %q after successful write, want nil", *b.Error)
	}
}

// TestMemoryStore_IndexOutOfRange verifies out-of-range indices are dropped
// rather than panicking.
func TestMemoryStore_IndexOutOfRange(t *testing.T) {
	m := seededStore()
	m.UpdateStatus(99, "up")
	m.RecordWrite(-1, true, time.Now())
	m.RecordWriteError(99, "x", time.Now())
}

// TestMemoryStore_OverviewIsCopy verifies mutating a returned overview does
// not leak back into the store.
func TestMemoryStore_OverviewIsCopy(t *testing.T) {
	m := seededStore()
	m.RecordWrite(0, true, time.Now())

	ov := m.Overview()
	ov.Bindings[0].Pins[0] = 99
	*ov.Bindings[0].Level = false
	ov.Bindings[0].Status = "mutated"

	fresh := m.Overview()
	if fresh.Bindings[0].Pins[0] != 17 {
		t.Error("pin mutation leaked into store")
	}
	if !*fresh.Bindings[0].Level {
		t.Error("level mutation leaked into store")
	}
	if fresh.Bindings[0].Status == "mutated" {
		t.Error("status mutation leaked into store")
	}
}

// TestMemoryStore_ConcurrentAccess exercises reader/writer interleaving
// under the race detector.
func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	m := seededStore()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.RecordPoll(time.Now(), nil)
			m.UpdateStatus(0, "up")
			m.RecordWrite(0, i%2 == 0, time.Now())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = m.Overview()
		}
	}()
	wg.Wait()
}
