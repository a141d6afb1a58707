package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/bangbang"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry(), bangbang.Off, start)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewExportsInitialState(t *testing.T) {
	m := newTestMetrics(t)

	if got := testutil.ToFloat64(m.state); got != 0 {
		t.Errorf("state: got %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("on")); got != 0 {
		t.Errorf("transitions{on}: got %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.rejections); got != 3 {
		t.Errorf("expected 3 pre-created rejection series, got %d", got)
	}
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg, bangbang.Off, start); err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := New(reg, bangbang.Off, start); err == nil {
		t.Error("expected error registering twice on one registry")
	}
}

func TestTransitioned(t *testing.T) {
	m := newTestMetrics(t)

	m.Transitioned(bangbang.Transition{From: bangbang.Off, To: bangbang.On, At: start.Add(10 * time.Second)})
	m.Transitioned(bangbang.Transition{From: bangbang.On, To: bangbang.Off, At: start.Add(70 * time.Second)})
	m.Transitioned(bangbang.Transition{From: bangbang.Off, To: bangbang.On, At: start.Add(80 * time.Second)})

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("on")); got != 2 {
		t.Errorf("transitions{on}: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("off")); got != 1 {
		t.Errorf("transitions{off}: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.state); got != 1 {
		t.Errorf("state: got %v, want 1", got)
	}

	want := `
# HELP bangbang_dwell_seconds Time spent in a state before leaving it.
# TYPE bangbang_dwell_seconds histogram
bangbang_dwell_seconds_bucket{le="1"} 0
bangbang_dwell_seconds_bucket{le="4"} 0
bangbang_dwell_seconds_bucket{le="16"} 2
bangbang_dwell_seconds_bucket{le="64"} 3
bangbang_dwell_seconds_bucket{le="256"} 3
bangbang_dwell_seconds_bucket{le="1024"} 3
bangbang_dwell_seconds_bucket{le="4096"} 3
bangbang_dwell_seconds_bucket{le="16384"} 3
bangbang_dwell_seconds_bucket{le="+Inf"} 3
bangbang_dwell_seconds_sum 80
bangbang_dwell_seconds_count 3
`
	if err := testutil.CollectAndCompare(m.dwell, strings.NewReader(want)); err != nil {
		t.Errorf("dwell histogram mismatch: %v", err)
	}
}

func TestRecordFailure(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordFailure(&bangbang.TransitionError{Kind: bangbang.KindRejected})
	m.RecordFailure(&bangbang.TransitionError{Kind: bangbang.KindRejected})
	m.RecordFailure(&bangbang.TransitionError{Kind: bangbang.KindHandlerFailed})
	m.RecordFailure(errors.New("something else"))
	m.RecordFailure(nil)

	tests := map[string]float64{
		"rejected":       2,
		"handler_failed": 1,
		"unexpected":     1,
	}
	for reason, want := range tests {
		if got := testutil.ToFloat64(m.rejections.WithLabelValues(reason)); got != want {
			t.Errorf("rejections{%s}: got %v, want %v", reason, got, want)
		}
	}
}

func TestMetricsAsObserver(t *testing.T) {
	m := newTestMetrics(t)
	clk := bangbang.NewFakeClock(start)
	c := bangbang.Observe(bangbang.NewReference(bangbang.Off), clk, m)

	clk.Advance(5 * time.Second)
	if err := bangbang.Bang(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(m.state); got != 1 {
		t.Errorf("state: got %v, want 1", got)
	}
}
