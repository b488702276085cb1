// Package kumabeacon mirrors the health of Uptime Kuma monitors onto
// physical GPIO indicators such as lamps and LEDs.
//
// The beacon polls a public status page at a fixed cadence, condenses each
// monitor's latest heartbeat into up/down/unknown, and drives the bound
// pins only when the desired level actually changes. Network interruptions
// never blank an indicator: a failed poll keeps the last known physical
// state, and a monitor missing from a partial response is unknown, not
// down.
//
// # Quick Start
//
// Bind a monitor to a pin and start the beacon with graceful shutdown:
//
//	web, _ := kumabeacon.NewBinding(kumabeacon.MonitorName("web"), []int{17})
//	b, _ := kumabeacon.New(
//	    kumabeacon.WithStatusPage("https://status.example.com", "default"),
//	    kumabeacon.WithBinding(web),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// The beacon uses the functional options pattern:
//
//	b, err := kumabeacon.New(
//	    kumabeacon.WithStatusPage("https://status.example.com", "default"),
//	    kumabeacon.WithBindings(web, db),
//	    kumabeacon.WithInterval(30 * time.Second),
//	    kumabeacon.WithFetchTimeout(10 * time.Second),
//	    kumabeacon.WithListenAddress(":9090"),
//	)
//
// Bindings reference monitors by display name or numeric id and may group
// several pins into one atomic unit:
//
//	alarm, err := kumabeacon.NewBinding(kumabeacon.MonitorID(7), []int{5, 6},
//	    kumabeacon.Inverted(), // down monitor drives the pins high
//	)
//
// # Hardware
//
// All pin handling goes through an injected backend. The default is an
// in-memory simulator, so the same code runs on a laptop and on a
// Raspberry Pi; deployments on real hardware inject the periph.io backend:
//
//	backend, err := hw.NewPeriphBackend(hw.ModeBCM)
//	b, err := kumabeacon.New(
//	    kumabeacon.WithStatusPage(url, slug),
//	    kumabeacon.WithBinding(web),
//	    kumabeacon.WithHardware(backend),
//	)
//
// # Guarantees
//
// Ticks are strictly sequential: the poll loop is a single goroutine that
// owns the heartbeat snapshot and the per-binding level cache. Repeated
// identical snapshots produce zero writes after the first. A pin group is
// driven atomically; a failed group write is retried on the next tick
// rather than left half-applied. On shutdown every configured pin is
// released exactly once, regardless of earlier errors.
//
// # Architecture
//
// The library consists of several internal packages (under internal/):
//
//   - internal/kuma: HTTP client for the status-page and heartbeat APIs
//   - internal/engine: the snapshot-to-action reconciler
//   - internal/hw: the GPIO backend interface, periph.io implementation,
//     and simulator
//   - internal/store: in-memory state registry behind the status API
//   - internal/server: optional HTTP surface (status, health, metrics)
//   - internal/metrics: Prometheus instrumentation
//
// The internal packages are not part of the public API and may change
// without notice. A config-file driven CLI lives in cmd/kumabeacon.
package kumabeacon
