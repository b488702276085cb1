package kumabeacon

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"kumabeacon/internal/hw"
)

// beaconConfig holds mutable state during Beacon construction.
type beaconConfig struct {
	baseURL             string
	slug                string
	bindings            []Binding
	interval            time.Duration
	fetchTimeout        time.Duration
	backend             hw.Backend
	listenAddr          string
	logger              *slog.Logger
	transitionCallbacks []func(Transition)
}

// Option is a function that configures a [Beacon] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithStatusPage], [WithBinding], [WithBindings],
// [WithInterval], [WithFetchTimeout], [WithHardware], [WithListenAddress],
// [WithLogger], [WithTransitionCallback].
type Option func(*beaconConfig) error

// WithStatusPage sets the Uptime Kuma base URL and status-page slug the
// beacon polls. Required.
//
// Example:
//
//	b, err := kumabeacon.New(
//	    kumabeacon.WithStatusPage("https://status.example.com", "default"),
//	    kumabeacon.WithBinding(web),
//	)
//
// Returns an error if the URL is invalid or the slug is empty.
func WithStatusPage(baseURL, slug string) Option {
	return func(cfg *beaconConfig) error {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return errors.New("invalid status page URL: " + err.Error())
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return errors.New("status page URL must use http or https")
		}
		if slug == "" {
			return errors.New("status page slug cannot be empty")
		}
		cfg.baseURL = baseURL
		cfg.slug = slug
		return nil
	}
}

// WithBinding adds a single [Binding] to the beacon.
//
// Can be called multiple times. At least one binding must be configured
// for [New] to succeed.
func WithBinding(b Binding) Option {
	return func(cfg *beaconConfig) error {
		cfg.bindings = append(cfg.bindings, b)
		return nil
	}
}

// WithBindings adds multiple [Binding] values to the beacon.
// Equivalent to calling [WithBinding] multiple times.
func WithBindings(bindings ...Binding) Option {
	return func(cfg *beaconConfig) error {
		cfg.bindings = append(cfg.bindings, bindings...)
		return nil
	}
}

// WithInterval sets the polling cadence.
//
// Each tick fetches one heartbeat document and applies any resulting
// actuator changes. Defaults to 30 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *beaconConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithFetchTimeout sets the per-request timeout for heartbeat fetches.
//
// The timeout must not exceed the polling interval, so a hung fetch cannot
// overrun the next tick. Defaults to the smaller of 10 seconds and the
// interval.
//
// Returns an error if the duration is zero or negative.
func WithFetchTimeout(d time.Duration) Option {
	return func(cfg *beaconConfig) error {
		if d <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		cfg.fetchTimeout = d
		return nil
	}
}

// WithHardware injects the GPIO backend the beacon drives.
//
// The beacon owns the backend for the process lifetime. Defaults to the
// in-memory simulator, so code without hardware runs unchanged; real
// deployments pass a periph-backed implementation.
//
// Returns an error if the backend is nil.
func WithHardware(backend hw.Backend) Option {
	return func(cfg *beaconConfig) error {
		if backend == nil {
			return errors.New("hardware backend cannot be nil")
		}
		cfg.backend = backend
		return nil
	}
}

// WithListenAddress enables the optional status HTTP server on the given
// address (for example ":9090").
//
// The server exposes /api/status, /healthz, and Prometheus /metrics. An
// empty address (the default) disables the server entirely.
func WithListenAddress(addr string) Option {
	return func(cfg *beaconConfig) error {
		cfg.listenAddr = addr
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the beacon.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *beaconConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTransitionCallback registers a function invoked after every applied
// actuator change.
//
// The callback receives a [Transition] describing the monitor, the pins,
// and the level just driven. Multiple callbacks may be registered; they
// execute in registration order, synchronously from the poll loop.
//
// Callbacks must be non-blocking; long-running work should be dispatched
// to a separate goroutine. Panics within callbacks are recovered and
// logged with a correlation id; they do not crash the loop.
//
// Nil callbacks are silently ignored.
func WithTransitionCallback(cb func(Transition)) Option {
	return func(cfg *beaconConfig) error {
		if cb == nil {
			return nil
		}
		cfg.transitionCallbacks = append(cfg.transitionCallbacks, cb)
		return nil
	}
}
