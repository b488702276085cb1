package engine

import (
	"context"
	"fmt"

	"kumabeacon/internal/kuma"
)

// Binding is the engine-internal view of one monitor-to-pins link.
//
// This is decoupled from the root package's Binding type to avoid a
// circular dependency; the root package converts at construction time,
// after monitor names have been resolved to ids.
type Binding struct {
	// Label is the human-readable identifier used in logs and results.
	Label string

	// MonitorID is the resolved numeric monitor id.
	MonitorID int

	// Pins is the group of output lines driven together.
	Pins []int

	// Inverted flips the physical level relative to the monitor state.
	Inverted bool
}

// Source fetches the current heartbeat snapshot.
// Satisfied by [kuma.Client]; tests substitute a fake.
type Source interface {
	FetchHeartbeats(ctx context.Context) (kuma.Snapshot, error)
}

// Result is the reconciler's verdict for one binding on one tick.
type Result struct {
	// Index identifies the binding, in the order given to [New].
	Index int

	// Status is the monitor's condensed state in this tick's snapshot.
	Status kuma.Status

	// Level is the desired physical level. Meaningless when Status is
	// unknown.
	Level bool

	// Changed reports whether Level differs from the last committed level
	// (always true for the first resolvable tick, the cache starts empty).
	Changed bool
}

// applied is the cached last-committed level for one binding.
type applied struct {
	set   bool
	level bool
}

// Reconciler computes per-binding actions from heartbeat snapshots.
//
// The reconciler is owned by a single goroutine; it is not safe for
// concurrent use. Ticks are strictly sequential by construction.
type Reconciler struct {
	source   Source
	bindings []Binding
	cache    []applied
}

// New creates a [Reconciler] over the given source and bindings.
// The level cache starts empty, so the first tick emits a changed result
// for every binding that resolves to a known state.
func New(source Source, bindings []Binding) *Reconciler {
	return &Reconciler{
		source:   source,
		bindings: bindings,
		cache:    make([]applied, len(bindings)),
	}
}

// Bindings returns the bindings in result-index order.
func (r *Reconciler) Bindings() []Binding {
	return r.bindings
}

// Tick fetches one heartbeat snapshot and resolves it against every binding.
//
// On fetch failure the error is returned and no results are produced; the
// cache is untouched, so nothing is written and the previous physical state
// stands. On success exactly one [Result] per binding is returned, in
// binding order. Desired level is the monitor's up state XOR the binding's
// inversion flag.
func (r *Reconciler) Tick(ctx context.Context) ([]Result, error) {
	snapshot, err := r.source.FetchHeartbeats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch heartbeats: %w", err)
	}

	results := make([]Result, len(r.bindings))
	for i, b := range r.bindings {
		res := Result{Index: i, Status: snapshot.Status(b.MonitorID)}
		if res.Status == kuma.StatusUnknown {
			// previous actuator state persists; nothing to compare
			results[i] = res
			continue
		}

		res.Level = (res.Status == kuma.StatusUp) != b.Inverted
		res.Changed = !r.cache[i].set || r.cache[i].level != res.Level
		results[i] = res
	}
	return results, nil
}

// Commit records a successfully applied level for the binding at index.
//
// The caller must invoke Commit strictly after the physical write succeeds;
// committing a failed write would suppress the retry on the next tick.
func (r *Reconciler) Commit(index int, level bool) {
	r.cache[index] = applied{set: true, level: level}
}
