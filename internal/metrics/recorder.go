// Package metrics provides Prometheus instrumentation for the beacon's
// poll loop and actuator writes.
//
// This package is internal to kumabeacon. The [Recorder] is constructed
// against the beacon's own registry (never the global default), and all
// recording methods are nil-safe so callers need no guards when metrics
// are disabled.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "kumabeacon"

// Recorder instruments the reconciliation loop with Prometheus metrics.
type Recorder struct {
	pollCycles   prom.Counter
	pollFailures prom.Counter
	pollDuration prom.Histogram
	writes       *prom.CounterVec
	monitorUp    *prom.GaugeVec
	bindingLevel *prom.GaugeVec
}

// NewRecorder constructs a [Recorder] and registers its metrics, plus the
// standard Go and process collectors, on the given registry.
// A nil registry gets a fresh one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{
		pollCycles: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Total poll cycles attempted",
		}),
		pollFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Poll cycles that failed to fetch heartbeats",
		}),
		pollDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of one poll-and-apply cycle",
			Buckets:   prom.DefBuckets,
		}),
		writes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_writes_total",
			Help:      "Actuator write attempts by result",
		}, []string{"result"}),
		monitorUp: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_up",
			Help:      "Monitor state from the latest poll (1 up, 0 down); absent while unknown",
		}, []string{"monitor"}),
		bindingLevel: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "binding_level",
			Help:      "Last successfully driven physical level per binding (1 high, 0 low)",
		}, []string{"monitor"}),
	}

	reg.MustRegister(r.pollCycles, r.pollFailures, r.pollDuration, r.writes, r.monitorUp, r.bindingLevel)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return r
}

// ObservePoll records one poll cycle's duration and outcome.
func (r *Recorder) ObservePoll(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.pollCycles.Inc()
	r.pollDuration.Observe(d.Seconds())
	if err != nil {
		r.pollFailures.Inc()
	}
}

// IncWrite counts one actuator write attempt.
func (r *Recorder) IncWrite(success bool) {
	if r == nil {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.writes.WithLabelValues(result).Inc()
}

// SetMonitorUp records a monitor's known up/down state.
// Callers skip this while the monitor is unknown, leaving the previous
// sample in place.
func (r *Recorder) SetMonitorUp(monitor string, up bool) {
	if r == nil {
		return
	}
	r.monitorUp.WithLabelValues(monitor).Set(boolToGauge(up))
}

// SetBindingLevel records the last successfully driven level for a binding.
func (r *Recorder) SetBindingLevel(monitor string, level bool) {
	if r == nil {
		return
	}
	r.bindingLevel.WithLabelValues(monitor).Set(boolToGauge(level))
}

func boolToGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
