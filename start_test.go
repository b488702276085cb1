package kumabeacon

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"kumabeacon/internal/hw"
)

// fakeKuma is a controllable in-process Uptime Kuma status page.
type fakeKuma struct {
	mu         sync.Mutex
	statusPage string
	heartbeats string
	failFetch  bool
	ts         *httptest.Server
}

func newFakeKuma(t *testing.T) *fakeKuma {
	t.Helper()

	f := &fakeKuma{
		statusPage: `{"publicGroupList": [{"name": "Core", "monitorList": [
			{"id": 1, "name": "web"},
			{"id": 2, "name": "db"}
		]}]}`,
		heartbeats: `{"heartbeatList": {}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status-page/heartbeat/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail, body := f.failFetch, f.heartbeats
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/api/status-page/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body := f.statusPage
		f.mu.Unlock()
		_, _ = w.Write([]byte(body))
	})

	f.ts = httptest.NewServer(mux)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fakeKuma) URL() string {
	return f.ts.URL
}

func (f *fakeKuma) setHeartbeats(body string) {
	f.mu.Lock()
	f.heartbeats = body
	f.mu.Unlock()
}

func (f *fakeKuma) setStatusPage(body string) {
	f.mu.Lock()
	f.statusPage = body
	f.mu.Unlock()
}

func (f *fakeKuma) setFailFetch(fail bool) {
	f.mu.Lock()
	f.failFetch = fail
	f.mu.Unlock()
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for: %s", msg)
}

// startBeacon runs Start in a goroutine, returning the cancel func and the
// channel Start's result lands on. The channel is closed after the result
// is sent, so cleanup does not block when the test body already consumed it.
func startBeacon(t *testing.T, b *Beacon) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Start() did not return after cancellation")
		}
	})
	return cancel, done
}

// configureFailBackend fails Configure on one designated pin.
type configureFailBackend struct {
	*hw.SimBackend
	failPin int
}

func (b *configureFailBackend) Configure(pin int) error {
	if pin == b.failPin {
		return &net.AddrError{Err: "pin busy", Addr: "gpio"}
	}
	return b.SimBackend.Configure(pin)
}

// TestStart_Scenario walks the canonical sequence against a live loop:
// first tick writes high, an identical tick writes nothing, a fetch failure
// writes nothing and preserves the level, a down report writes low, and
// shutdown releases the pin exactly once.
func TestStart_Scenario(t *testing.T) {
	kumaSrv := newFakeKuma(t)
	kumaSrv.setHeartbeats(`{"heartbeatList": {"1": [{"status": 1}]}}`)

	backend := hw.NewSimBackend(testLogger())
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorName("web"), []int{17})),
		WithInterval(60*time.Millisecond),
		WithFetchTimeout(50*time.Millisecond),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cancel, done := startBeacon(t, b)

	// tick 1: up -> one write, high
	waitFor(t, 3*time.Second, func() bool { return backend.Writes(17) == 1 }, "first write on pin 17")
	if level, _ := backend.Level(17); !level {
		t.Error("pin 17 low after up report, want high")
	}

	// identical reports: no further writes
	time.Sleep(250 * time.Millisecond)
	if got := backend.Writes(17); got != 1 {
		t.Errorf("writes = %d after identical reports, want 1", got)
	}

	// fetch failures: no writes, level preserved
	kumaSrv.setFailFetch(true)
	time.Sleep(250 * time.Millisecond)
	if got := backend.Writes(17); got != 1 {
		t.Errorf("writes = %d during outage, want 1", got)
	}
	if level, _ := backend.Level(17); !level {
		t.Error("pin 17 lost its level during outage")
	}

	// recovery with down: exactly one more write, low
	kumaSrv.setFailFetch(false)
	kumaSrv.setHeartbeats(`{"heartbeatList": {"1": [{"status": 0}]}}`)
	waitFor(t, 3*time.Second, func() bool { return backend.Writes(17) == 2 }, "write after down report")
	if level, _ := backend.Level(17); level {
		t.Error("pin 17 high after down report, want low")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil on graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}

	if got := backend.Releases(17); got != 1 {
		t.Errorf("pin 17 released %d times, want exactly 1", got)
	}
	if b.Phase() != PhaseStopped {
		t.Errorf("Phase() = %q after shutdown, want stopped", b.Phase())
	}
}

// TestStart_InvertedGroup verifies a down monitor drives every pin of an
// inverted group high in one action.
func TestStart_InvertedGroup(t *testing.T) {
	kumaSrv := newFakeKuma(t)
	kumaSrv.setHeartbeats(`{"heartbeatList": {"2": [{"status": 0}]}}`)

	backend := hw.NewSimBackend(testLogger())
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(2), []int{5, 6}, Inverted())),
		WithInterval(60*time.Millisecond),
		WithFetchTimeout(50*time.Millisecond),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	startBeacon(t, b)

	waitFor(t, 3*time.Second, func() bool {
		return backend.Writes(5) == 1 && backend.Writes(6) == 1
	}, "both group pins written")

	for _, pin := range []int{5, 6} {
		if level, _ := backend.Level(pin); !level {
			t.Errorf("pin %d low, want high (inverted down monitor)", pin)
		}
	}
}

// TestStart_UnknownMonitorNeverWrites verifies a monitor absent from the
// heartbeat document leaves its pins untouched.
func TestStart_UnknownMonitorNeverWrites(t *testing.T) {
	kumaSrv := newFakeKuma(t) // empty heartbeat list

	backend := hw.NewSimBackend(testLogger())
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(1), []int{17})),
		WithInterval(60*time.Millisecond),
		WithFetchTimeout(50*time.Millisecond),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	startBeacon(t, b)

	waitFor(t, 3*time.Second, func() bool { return b.Phase() == PhaseRunning }, "beacon running")
	time.Sleep(250 * time.Millisecond)
	if got := backend.Writes(17); got != 0 {
		t.Errorf("writes = %d for unknown monitor, want 0", got)
	}
}

// TestStart_NameResolution verifies fatal configuring errors for unknown
// and ambiguous display names.
func TestStart_NameResolution(t *testing.T) {
	t.Run("unknown name", func(t *testing.T) {
		kumaSrv := newFakeKuma(t)
		backend := hw.NewSimBackend(testLogger())
		b, err := New(
			WithStatusPage(kumaSrv.URL(), "default"),
			WithBinding(mustBinding(t, MonitorName("ghost"), []int{17})),
			WithHardware(backend),
			WithLogger(testLogger()),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		if err := b.Start(context.Background()); err == nil {
			t.Error("Start() error = nil, want unknown monitor error")
		}
		if backend.Configured(17) {
			t.Error("pin 17 configured despite fatal resolution error")
		}
		if b.Phase() != PhaseStopped {
			t.Errorf("Phase() = %q, want stopped", b.Phase())
		}
	})

	t.Run("ambiguous name", func(t *testing.T) {
		kumaSrv := newFakeKuma(t)
		kumaSrv.setStatusPage(`{"publicGroupList": [{"name": "Core", "monitorList": [
			{"id": 1, "name": "web"},
			{"id": 9, "name": "web"}
		]}]}`)
		b, err := New(
			WithStatusPage(kumaSrv.URL(), "default"),
			WithBinding(mustBinding(t, MonitorName("web"), []int{17})),
			WithHardware(hw.NewSimBackend(testLogger())),
			WithLogger(testLogger()),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		if err := b.Start(context.Background()); err == nil {
			t.Error("Start() error = nil, want ambiguous monitor error")
		}
	})
}

// TestStart_ConfigureFailureReleasesConfigured verifies a pin-configure
// failure is fatal and releases the pins claimed before it.
func TestStart_ConfigureFailureReleasesConfigured(t *testing.T) {
	kumaSrv := newFakeKuma(t)

	backend := &configureFailBackend{
		SimBackend: hw.NewSimBackend(testLogger()),
		failPin:    6,
	}
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(2), []int{5, 6})),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want configure error")
	}
	if got := backend.Releases(5); got != 1 {
		t.Errorf("pin 5 released %d times, want 1 (claimed before the failure)", got)
	}
	if b.Phase() != PhaseStopped {
		t.Errorf("Phase() = %q, want stopped", b.Phase())
	}
}

// TestStart_ConfigureFailureReleasesEarlierGroups verifies that when a later
// binding's pin fails to configure, the groups claimed for earlier bindings
// are given back too.
func TestStart_ConfigureFailureReleasesEarlierGroups(t *testing.T) {
	kumaSrv := newFakeKuma(t)

	backend := &configureFailBackend{
		SimBackend: hw.NewSimBackend(testLogger()),
		failPin:    22,
	}
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(1), []int{17})),
		WithBinding(mustBinding(t, MonitorID(2), []int{22})),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want configure error")
	}
	if got := backend.Releases(17); got != 1 {
		t.Errorf("pin 17 released %d times, want 1 (earlier group given back)", got)
	}
	if backend.Configured(17) {
		t.Error("pin 17 still configured after fatal configure error")
	}
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until
// the provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	kumaSrv := newFakeKuma(t)
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(1), []int{17})),
		WithInterval(100*time.Millisecond),
		WithFetchTimeout(50*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cancel, done := startBeacon(t, b)

	time.Sleep(150 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns without configuring anything when the context is already done.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	backend := hw.NewSimBackend(testLogger())
	b, err := New(
		WithStatusPage("http://localhost:1", "default"),
		WithBinding(mustBinding(t, MonitorID(1), []int{17})),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil for pre-cancelled context", err)
	}
	if backend.Configured(17) {
		t.Error("pin configured despite pre-cancelled context")
	}
}

// TestStart_StatusServer verifies the optional HTTP surface reports a
// running beacon.
func TestStart_StatusServer(t *testing.T) {
	kumaSrv := newFakeKuma(t)
	kumaSrv.setHeartbeats(`{"heartbeatList": {"1": [{"status": 1}]}}`)

	// fixed high port to avoid conflicts
	const addr = "127.0.0.1:19377"
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(1), []int{17})),
		WithInterval(60*time.Millisecond),
		WithFetchTimeout(50*time.Millisecond),
		WithListenAddress(addr),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	startBeacon(t, b)
	waitFor(t, 3*time.Second, func() bool { return b.Phase() == PhaseRunning }, "beacon running")

	var code int
	waitFor(t, 3*time.Second, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		code = resp.StatusCode
		_ = resp.Body.Close()
		return true
	}, "status server responding")

	if code != http.StatusOK {
		t.Errorf("GET /healthz = %d while running, want 200", code)
	}
}

// TestStart_StatusServerBindFailure verifies an unusable listen address
// tears the beacon down and still releases the pins.
func TestStart_StatusServerBindFailure(t *testing.T) {
	kumaSrv := newFakeKuma(t)

	// occupy a port so the beacon's bind fails
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	defer func() { _ = ln.Close() }()

	backend := hw.NewSimBackend(testLogger())
	b, err := New(
		WithStatusPage(kumaSrv.URL(), "default"),
		WithBinding(mustBinding(t, MonitorID(1), []int{17})),
		WithInterval(60*time.Millisecond),
		WithFetchTimeout(50*time.Millisecond),
		WithListenAddress(ln.Addr().String()),
		WithHardware(backend),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want bind error")
	}
	if got := backend.Releases(17); got != 1 {
		t.Errorf("pin 17 released %d times after bind failure, want 1", got)
	}
}
