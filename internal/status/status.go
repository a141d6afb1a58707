// Package status provides a thread-safe status tracker for the relay daemon.
// It is read by HTTP handlers and used to build MQTT system events.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/sweeney/bangbang"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	Pin         int
	ActiveLow   bool
	DwellMs     int64
	HeartbeatMs int64
	Broker      string
	Topic       string
	HTTPAddr    string
}

// Counts tracks transition outcomes since startup.
type Counts struct {
	ToOn     int
	ToOff    int
	Rejected int // refused by the dwell gate
	Failed   int // vetoed by the output handler or otherwise failed
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State          bangbang.State
	LastTransition time.Time
	Dwell          time.Duration
	Counts         Counts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	MQTTBuffered   int // messages held until the broker is reachable
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Remaining returns how long until the relay may switch again.
func (s Snapshot) Remaining() time.Duration {
	return bangbang.RemainingDwell(s.Now.Sub(s.LastTransition), s.Dwell)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu    sync.RWMutex
	clock bangbang.Clock
	snap  Snapshot
}

// NewTracker creates a Tracker. The relay is assumed to have entered initial
// at startTime, which matches how the dwell gate starts its timer.
func NewTracker(clk bangbang.Clock, startTime time.Time, initial bangbang.State, cfg Config) *Tracker {
	if clk == nil {
		clk = bangbang.SystemClock{}
	}
	return &Tracker{
		clock: clk,
		snap: Snapshot{
			State:          initial,
			LastTransition: startTime,
			Dwell:          time.Duration(cfg.DwellMs) * time.Millisecond,
			StartTime:      startTime,
			Config:         cfg,
		},
	}
}

// Transitioned records a successful transition.
func (t *Tracker) Transitioned(tr bangbang.Transition) {
	t.mu.Lock()
	t.snap.State = tr.To
	t.snap.LastTransition = tr.At
	if tr.To == bangbang.On {
		t.snap.Counts.ToOn++
	} else {
		t.snap.Counts.ToOff++
	}
	t.mu.Unlock()
}

// RecordFailure counts a failed transition attempt.
func (t *Tracker) RecordFailure(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	if errors.Is(err, bangbang.ErrTransitionRejected) {
		t.snap.Counts.Rejected++
	} else {
		t.snap.Counts.Failed++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered sets the number of MQTT messages awaiting a connection.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is read from the tracker's clock at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
