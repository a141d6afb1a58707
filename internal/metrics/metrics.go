// Package metrics exports relay transitions as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/bangbang"
)

// Metrics records transitions and failed attempts. It implements
// bangbang.Observer.
type Metrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	state       prometheus.Gauge
	dwell       prometheus.Histogram

	mu    sync.Mutex
	since time.Time // when the current state was entered
}

// New creates the relay metrics and registers them on reg. The relay is
// taken to have entered initial at since.
func New(reg prometheus.Registerer, initial bangbang.State, since time.Time) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bangbang_transitions_total",
				Help: "Successful relay transitions by target state.",
			},
			[]string{"to"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bangbang_rejections_total",
				Help: "Transition attempts that did not change state, by reason.",
			},
			[]string{"reason"},
		),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bangbang_state",
			Help: "Current relay state (1 = on, 0 = off).",
		}),
		dwell: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bangbang_dwell_seconds",
			Help:    "Time spent in a state before leaving it.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1s .. ~4.5h
		}),
		since: since,
	}

	for _, c := range []prometheus.Collector{m.transitions, m.rejections, m.state, m.dwell} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	// Pre-create label values so they export as zero.
	for _, s := range []bangbang.State{bangbang.On, bangbang.Off} {
		m.transitions.WithLabelValues(label(s))
	}
	for _, k := range []bangbang.Kind{bangbang.KindRejected, bangbang.KindHandlerFailed, bangbang.KindUnexpected} {
		m.rejections.WithLabelValues(k.String())
	}
	m.state.Set(gaugeValue(initial))

	return m, nil
}

// Transitioned records a successful transition.
func (m *Metrics) Transitioned(t bangbang.Transition) {
	m.mu.Lock()
	spent := t.At.Sub(m.since)
	m.since = t.At
	m.mu.Unlock()

	if spent >= 0 {
		m.dwell.Observe(spent.Seconds())
	}
	m.transitions.WithLabelValues(label(t.To)).Inc()
	m.state.Set(gaugeValue(t.To))
}

// RecordFailure records a failed transition attempt.
func (m *Metrics) RecordFailure(err error) {
	if err == nil {
		return
	}
	kind := bangbang.KindUnexpected
	var te *bangbang.TransitionError
	if errors.As(err, &te) {
		kind = te.Kind
	}
	m.rejections.WithLabelValues(kind.String()).Inc()
}

func label(s bangbang.State) string {
	if s == bangbang.On {
		return "on"
	}
	return "off"
}

func gaugeValue(s bangbang.State) float64 {
	if s == bangbang.On {
		return 1
	}
	return 0
}
