package kumabeacon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"kumabeacon/internal/engine"
	"kumabeacon/internal/hw"
	"kumabeacon/internal/kuma"
	"kumabeacon/internal/metrics"
	"kumabeacon/internal/server"
	"kumabeacon/internal/store"
)

const (
	defaultInterval     = 30 * time.Second
	defaultFetchTimeout = 10 * time.Second
)

// Beacon is the main orchestrator mirroring monitor health onto GPIO pins.
//
// Beacon polls an Uptime Kuma status page at a fixed cadence, diffs each
// monitor's state against the last driven pin level, and writes only on
// change. It is created using [New] with functional options and started
// with [Beacon.Start].
//
// The typical lifecycle is:
//
//	b, err := kumabeacon.New(
//	    kumabeacon.WithStatusPage("https://status.example.com", "default"),
//	    kumabeacon.WithBinding(web),
//	)
//	if err != nil {
//	    slog.Error("failed to create beacon", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown; every configured pin is released before Start
// returns.
type Beacon struct {
	baseURL      string
	slug         string
	bindings     []Binding
	interval     time.Duration
	fetchTimeout time.Duration
	backend      hw.Backend
	listenAddr   string
	logger       *slog.Logger
	callbacks    []func(Transition)

	mu    sync.Mutex
	phase Phase
}

// New creates a new [Beacon] instance with the given options.
//
// A status page ([WithStatusPage]) and at least one binding ([WithBinding]
// or [WithBindings]) must be configured. Other options have defaults:
//   - Interval: 30 seconds
//   - Fetch timeout: min(10 seconds, interval)
//   - Hardware: the in-memory simulator
//
// Returns an error if required options are missing, any option is invalid,
// the fetch timeout exceeds the interval, or two bindings claim the same
// physical pin (overlapping pins are rejected outright rather than
// resolved last-write-wins).
func New(opts ...Option) (*Beacon, error) {
	cfg := &beaconConfig{
		interval: defaultInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.baseURL == "" {
		return nil, errors.New("a status page is required")
	}
	if len(cfg.bindings) == 0 {
		return nil, errors.New("at least one binding is required")
	}

	if cfg.fetchTimeout == 0 {
		cfg.fetchTimeout = defaultFetchTimeout
		if cfg.interval < cfg.fetchTimeout {
			cfg.fetchTimeout = cfg.interval
		}
	}
	if cfg.fetchTimeout > cfg.interval {
		return nil, fmt.Errorf("fetch timeout %s exceeds interval %s", cfg.fetchTimeout, cfg.interval)
	}

	// physical pins are exclusively owned for the process lifetime
	claimed := make(map[int]string)
	for _, b := range cfg.bindings {
		for _, pin := range b.Pins() {
			if owner, ok := claimed[pin]; ok {
				return nil, fmt.Errorf("pin %d claimed by both %s and %s", pin, owner, b.Monitor().Label())
			}
			claimed[pin] = b.Monitor().Label()
		}
	}

	backend := cfg.backend
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	if backend == nil {
		backend = hw.NewSimBackend(logger)
	}

	return &Beacon{
		baseURL:      cfg.baseURL,
		slug:         cfg.slug,
		bindings:     cfg.bindings,
		interval:     cfg.interval,
		fetchTimeout: cfg.fetchTimeout,
		backend:      backend,
		listenAddr:   cfg.listenAddr,
		logger:       logger,
		callbacks:    cfg.transitionCallbacks,
		phase:        PhaseIdle,
	}, nil
}

// Start runs the beacon until the provided context is cancelled.
//
// Start is a blocking call. It first configures: name-keyed bindings are
// resolved against the status page and every bound pin is claimed for
// output; any failure here is fatal, already-claimed pins are released,
// and Start returns the error. It then polls: the first tick fires
// immediately, subsequent ticks at the configured interval, each tick
// fetching one heartbeat snapshot and driving only the pins whose desired
// level changed.
//
// Fetch failures and individual write failures are logged and do not stop
// the loop; the previous physical state is preserved. On cancellation the
// in-flight tick finishes, the loop drains, and every configured pin is
// released exactly once before Start returns.
//
// Returns nil on graceful shutdown; returns an error only for fatal
// configuring failures or a status server that cannot bind.
func (b *Beacon) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	b.logger.Info("beacon starting",
		"bindings", len(b.bindings),
		"interval", b.interval.String(),
		"status_page", fmt.Sprintf("%s (%s)", b.baseURL, b.slug),
	)

	st := store.NewMemoryStore()
	b.setPhase(st, PhaseConfiguring)

	client := kuma.NewClient(b.baseURL, b.slug, b.fetchTimeout)
	defer client.Close()

	engBindings, err := b.resolveBindings(ctx, client)
	if err != nil {
		b.setPhase(st, PhaseStopped)
		return err
	}

	actuators := make([]*hw.Actuator, len(engBindings))
	for i, eb := range engBindings {
		actuators[i] = hw.NewActuator(b.backend, eb.Pins)
	}

	if err := b.configureActuators(st, actuators); err != nil {
		return err
	}

	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() { b.releaseActuators(actuators) })
	}

	st.SetBindings(storeBindings(engBindings))

	registry := prom.NewRegistry()
	recorder := metrics.NewRecorder(registry)
	recon := engine.New(client, engBindings)

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	b.setPhase(st, PhaseRunning)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.runLoop(loopCtx, recon, actuators, st, recorder)
	}()

	if b.listenAddr != "" {
		srv := server.NewServer(st, b.listenAddr, registry, b.logger)
		if err := srv.Start(loopCtx); err != nil {
			cancelLoop()
			b.setPhase(st, PhaseDraining)
			wg.Wait()
			release()
			b.setPhase(st, PhaseStopped)
			return fmt.Errorf("failed to start status server: %w", err)
		}
	}

	<-ctx.Done()
	b.setPhase(st, PhaseDraining)
	wg.Wait()
	release()
	b.setPhase(st, PhaseStopped)
	b.logger.Info("beacon stopped")
	return nil
}

// Phase returns the beacon's current lifecycle phase.
func (b *Beacon) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Bindings returns a copy of the configured bindings.
//
// The returned slice is a copy; modifying it does not affect the Beacon.
// Each [Binding] in the slice is immutable.
func (b *Beacon) Bindings() []Binding {
	cp := make([]Binding, len(b.bindings))
	copy(cp, b.bindings)
	return cp
}

// Interval returns the configured polling cadence.
func (b *Beacon) Interval() time.Duration {
	return b.interval
}

// FetchTimeout returns the per-request heartbeat fetch timeout.
func (b *Beacon) FetchTimeout() time.Duration {
	return b.fetchTimeout
}

// setPhase records a lifecycle transition on the beacon and in the store.
func (b *Beacon) setPhase(st store.Store, phase Phase) {
	b.mu.Lock()
	b.phase = phase
	b.mu.Unlock()
	st.SetPhase(string(phase))
	b.logger.Debug("phase transition", "phase", phase.String())
}

// resolveBindings turns the public bindings into engine bindings with
// resolved monitor ids.
//
// Name-keyed bindings require one status-page fetch; a name matching zero
// monitors or more than one is a fatal configuring error. Matching is
// exact and case-sensitive. Id-keyed bindings pass through unresolved
// against the page: an id that never reports simply stays unknown.
func (b *Beacon) resolveBindings(ctx context.Context, client *kuma.Client) ([]engine.Binding, error) {
	needsLookup := false
	for _, binding := range b.bindings {
		if binding.Monitor().Name() != "" {
			needsLookup = true
			break
		}
	}

	var (
		nameToID  map[string]int
		ambiguous map[string]bool
	)
	if needsLookup {
		monitors, err := client.FetchMonitors(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve monitor names: %w", err)
		}
		nameToID = make(map[string]int, len(monitors))
		ambiguous = make(map[string]bool)
		for _, m := range monitors {
			if _, seen := nameToID[m.Name]; seen {
				ambiguous[m.Name] = true
				continue
			}
			nameToID[m.Name] = m.ID
		}
	}

	resolved := make([]engine.Binding, len(b.bindings))
	for i, binding := range b.bindings {
		monitor := binding.Monitor()
		id := monitor.ID()
		if name := monitor.Name(); name != "" {
			if ambiguous[name] {
				return nil, fmt.Errorf("monitor name %q is ambiguous on the status page", name)
			}
			var ok bool
			id, ok = nameToID[name]
			if !ok {
				return nil, fmt.Errorf("monitor %q not found on the status page", name)
			}
		}
		resolved[i] = engine.Binding{
			Label:     monitor.Label(),
			MonitorID: id,
			Pins:      binding.Pins(),
			Inverted:  binding.Inverted(),
		}
	}
	return resolved, nil
}

// configureActuators claims every bound pin group for output. On failure
// the groups configured so far are released (the failing group cleans up
// after itself) and the beacon transitions to stopped: there is no partial
// running state.
func (b *Beacon) configureActuators(st store.Store, actuators []*hw.Actuator) error {
	for i, act := range actuators {
		if err := act.Configure(); err != nil {
			b.releaseActuators(actuators[:i])
			b.setPhase(st, PhaseStopped)
			return err
		}
	}
	return nil
}

// releaseActuators returns every pin group to an ungoverned state, logging
// failures rather than propagating them: release must never block shutdown.
func (b *Beacon) releaseActuators(actuators []*hw.Actuator) {
	for _, act := range actuators {
		if err := act.Release(); err != nil {
			b.logger.Error("failed to release pins", "pins", act.Pins(), "error", err)
		}
	}
}

// runLoop is the background poll/apply loop: first tick immediately, then
// at the fixed interval until the context is cancelled. Ticks are strictly
// sequential; missed ticks coalesce.
func (b *Beacon) runLoop(ctx context.Context, recon *engine.Reconciler, actuators []*hw.Actuator, st store.Store, rec *metrics.Recorder) {
	b.runTick(ctx, recon, actuators, st, rec)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runTick(ctx, recon, actuators, st, rec)
		}
	}
}

// runTick performs one poll-and-apply cycle.
func (b *Beacon) runTick(ctx context.Context, recon *engine.Reconciler, actuators []*hw.Actuator, st store.Store, rec *metrics.Recorder) {
	start := time.Now()

	// cancellation is observed at tick boundaries only: an in-flight fetch
	// runs to completion or hits its own timeout, never a mid-flight abort
	results, err := recon.Tick(context.WithoutCancel(ctx))

	rec.ObservePoll(time.Since(start), err)
	st.RecordPoll(time.Now(), err)

	if err != nil {
		b.logger.Warn("poll failed, keeping last known state", "error", err)
		return
	}

	bindings := recon.Bindings()
	for _, res := range results {
		binding := bindings[res.Index]
		st.UpdateStatus(res.Index, string(res.Status))

		if res.Status == kuma.StatusUnknown {
			b.logger.Debug("monitor unknown, actuator untouched", "monitor", binding.Label)
			continue
		}
		rec.SetMonitorUp(binding.Label, res.Status == kuma.StatusUp)

		if !res.Changed {
			continue
		}

		if err := actuators[res.Index].SetLevel(res.Level); err != nil {
			// one broken actuator must not halt the rest; the level stays
			// uncommitted so the write is retried next tick
			b.logger.Error("actuator write failed",
				"monitor", binding.Label,
				"pins", binding.Pins,
				"error", err,
			)
			rec.IncWrite(false)
			st.RecordWriteError(res.Index, err.Error(), time.Now())
			continue
		}

		now := time.Now()
		recon.Commit(res.Index, res.Level)
		rec.IncWrite(true)
		rec.SetBindingLevel(binding.Label, res.Level)
		st.RecordWrite(res.Index, res.Level, now)

		b.logger.Info("actuator updated",
			"monitor", binding.Label,
			"status", string(res.Status),
			"pins", binding.Pins,
			"level", res.Level,
		)

		if len(b.callbacks) > 0 {
			tr := Transition{
				Monitor:   binding.Label,
				MonitorID: binding.MonitorID,
				Pins:      append([]int(nil), binding.Pins...),
				Status:    statusFromKuma(res.Status),
				Level:     res.Level,
				At:        now,
			}
			for _, cb := range b.callbacks {
				b.invokeCallbackSafe(cb, tr)
			}
		}
	}
}

// invokeCallbackSafe calls a transition callback with panic recovery.
// If the callback panics, the full stack trace is logged with a correlation
// ID and the loop continues.
func (b *Beacon) invokeCallbackSafe(cb func(Transition), tr Transition) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			b.logger.Error("transition callback panicked",
				"correlation_id", correlationID,
				"monitor", tr.Monitor,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(tr)
}

// storeBindings seeds the status store entries from resolved bindings.
func storeBindings(bindings []engine.Binding) []store.BindingStatus {
	entries := make([]store.BindingStatus, len(bindings))
	for i, b := range bindings {
		entries[i] = store.BindingStatus{
			Monitor:   b.Label,
			MonitorID: b.MonitorID,
			Pins:      append([]int(nil), b.Pins...),
			Inverted:  b.Inverted,
			Status:    string(kuma.StatusUnknown),
		}
	}
	return entries
}
