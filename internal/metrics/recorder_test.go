package metrics

import (
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecorder_ObservePoll verifies cycle and failure counting.
func TestRecorder_ObservePoll(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.ObservePoll(10*time.Millisecond, nil)
	r.ObservePoll(10*time.Millisecond, errors.New("timeout"))
	r.ObservePoll(10*time.Millisecond, nil)

	if got := testutil.ToFloat64(r.pollCycles); got != 3 {
		t.Errorf("poll_cycles_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.pollFailures); got != 1 {
		t.Errorf("poll_failures_total = %v, want 1", got)
	}
}

// TestRecorder_IncWrite verifies the result label split.
func TestRecorder_IncWrite(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.IncWrite(true)
	r.IncWrite(true)
	r.IncWrite(false)

	if got := testutil.ToFloat64(r.writes.WithLabelValues("success")); got != 2 {
		t.Errorf("actuator_writes_total{result=success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.writes.WithLabelValues("error")); got != 1 {
		t.Errorf("actuator_writes_total{result=error} = %v, want 1", got)
	}
}

// TestRecorder_Gauges verifies monitor and binding gauges track the latest
// values.
func TestRecorder_Gauges(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.SetMonitorUp("web", true)
	r.SetMonitorUp("web", false)
	r.SetBindingLevel("web", true)

	if got := testutil.ToFloat64(r.monitorUp.WithLabelValues("web")); got != 0 {
		t.Errorf("monitor_up{monitor=web} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.bindingLevel.WithLabelValues("web")); got != 1 {
		t.Errorf("binding_level{monitor=web} = %v, want 1", got)
	}
}

// TestRecorder_NilSafe verifies a nil recorder records nothing and does not
// panic.
func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.ObservePoll(time.Second, nil)
	r.IncWrite(true)
	r.SetMonitorUp("web", true)
	r.SetBindingLevel("web", false)
}

// TestNewRecorder_NilRegistry verifies construction with a nil registry.
func TestNewRecorder_NilRegistry(t *testing.T) {
	if r := NewRecorder(nil); r == nil {
		t.Fatal("NewRecorder(nil) = nil")
	}
}
