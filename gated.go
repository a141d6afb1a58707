package bangbang

import (
	"math"
	"time"
)

// TimeGated is a Controller that refuses to change state until a minimum
// dwell time has passed since the previous transition. Construction counts
// as a transition, so a new controller must also wait out the dwell.
//
// Setting the state the controller is already in is still a transition
// attempt: it is gated, and when it succeeds it restarts the dwell timer.
type TimeGated struct {
	state   State
	dwell   time.Duration
	clock   Clock
	last    time.Time
	handler Handler
}

// NewTimeGated returns a TimeGated starting in initial. A negative dwell is
// treated as zero and a nil clock means SystemClock.
func NewTimeGated(initial State, dwell time.Duration, clk Clock) *TimeGated {
	if dwell < 0 {
		dwell = 0
	}
	if clk == nil {
		clk = SystemClock{}
	}
	return &TimeGated{
		state: initial,
		dwell: dwell,
		clock: clk,
		last:  clk.Now(),
	}
}

// OnChange registers h to run once the dwell gate has passed and before the
// new state is committed. If h fails, the state and dwell timer are left
// untouched.
func (g *TimeGated) OnChange(h Handler) {
	g.handler = h
}

// State returns the current state.
func (g *TimeGated) State() State {
	return g.state
}

// Dwell returns the configured minimum dwell time.
func (g *TimeGated) Dwell() time.Duration {
	return g.dwell
}

// LastTransition returns the instant of the last successful Set, or of
// construction if there has been none.
func (g *TimeGated) LastTransition() time.Time {
	return g.last
}

// Remaining returns how long until a Set would be permitted. Zero means now.
func (g *TimeGated) Remaining() time.Duration {
	return RemainingDwell(g.clock.Now().Sub(g.last), g.dwell)
}

// RemainingDwell returns how long until elapsed reaches dwell. It is zero
// only when a Set would pass. A negative elapsed (the clock moved backwards)
// adds the time the clock needs to catch up, saturating at the largest
// Duration.
func RemainingDwell(elapsed, dwell time.Duration) time.Duration {
	if elapsed >= 0 && elapsed >= dwell {
		return 0
	}
	if elapsed < 0 && dwell > math.MaxInt64+elapsed {
		return math.MaxInt64
	}
	return dwell - elapsed
}

// Set moves to s if at least the dwell time has elapsed since the last
// transition. Otherwise it returns a *TransitionError of kind KindRejected.
// A clock reading earlier than the last transition is always rejected.
func (g *TimeGated) Set(s State) error {
	now := g.clock.Now()
	elapsed := now.Sub(g.last)

	// elapsed == dwell is allowed
	if elapsed < 0 || elapsed < g.dwell {
		return &TransitionError{
			Kind:     KindRejected,
			From:     g.state,
			To:       s,
			Elapsed:  elapsed,
			Required: g.dwell,
		}
	}

	if g.handler != nil {
		if err := g.handler(g.state, s); err != nil {
			return handlerError(g.state, s, err)
		}
	}

	g.state = s
	g.last = now
	return nil
}
