// Package relay serialises access to a dwell-gated relay so HTTP and MQTT
// callers can share it.
package relay

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/bangbang"
	"github.com/sweeney/bangbang/internal/gpio"
	"github.com/sweeney/bangbang/internal/mqtt"
)

// FailureRecorder is told about every transition attempt that failed.
type FailureRecorder interface {
	RecordFailure(err error)
}

// Config describes a relay.
type Config struct {
	Initial bangbang.State
	Dwell   time.Duration
	Clock   bangbang.Clock

	// Output is driven on each permitted transition. Optional.
	Output gpio.Output

	// Observer sees each successful transition. Optional.
	Observer bangbang.Observer

	// Failures see each failed attempt.
	Failures []FailureRecorder
}

// Service is a mutex-guarded relay controller. It implements
// bangbang.Controller and is safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	gate     *bangbang.TimeGated
	ctl      *bangbang.Observed
	failures []FailureRecorder
}

// New creates a Service. The dwell timer starts now, per cfg.Clock.
func New(cfg Config) *Service {
	clk := cfg.Clock
	if clk == nil {
		clk = bangbang.SystemClock{}
	}

	gate := bangbang.NewTimeGated(cfg.Initial, cfg.Dwell, clk)
	if cfg.Output != nil {
		gate.OnChange(gpio.Handler(cfg.Output))
	}

	// Transitions are stamped with the instant the gate committed, not
	// when the observer happens to run.
	return &Service{
		gate:     gate,
		ctl:      bangbang.Observe(gate, bangbang.ClockFunc(gate.LastTransition), cfg.Observer),
		failures: cfg.Failures,
	}
}

// State returns the current relay state.
func (s *Service) State() bangbang.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.State()
}

// Remaining returns how long until the relay may switch again.
func (s *Service) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Remaining()
}

// Set moves the relay to st. Failures are recorded and returned unchanged.
func (s *Service) Set(st bangbang.State) error {
	s.mu.Lock()
	err := s.ctl.Set(st)
	s.mu.Unlock()

	s.record(err)
	return err
}

// Bang toggles the relay.
func (s *Service) Bang() error {
	s.mu.Lock()
	err := bangbang.Bang(s.ctl)
	s.mu.Unlock()

	s.record(err)
	return err
}

// Apply executes a command received over MQTT.
func (s *Service) Apply(cmd mqtt.Command) error {
	switch cmd {
	case mqtt.CommandOn:
		return s.Set(bangbang.On)
	case mqtt.CommandOff:
		return s.Set(bangbang.Off)
	case mqtt.CommandBang:
		return s.Bang()
	}
	return fmt.Errorf("apply command: unknown command %q", cmd)
}

func (s *Service) record(err error) {
	if err == nil {
		return
	}
	log.Printf("relay: %v", err)
	for _, f := range s.failures {
		f.RecordFailure(err)
	}
}
