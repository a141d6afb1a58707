package bangbang

import (
	"log"
	"time"
)

// Transition records a successful state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Observer is notified after each successful transition.
type Observer interface {
	Transitioned(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

// Transitioned calls f.
func (f ObserverFunc) Transitioned(t Transition) {
	f(t)
}

// Observers notifies each member in order.
type Observers []Observer

// Transitioned forwards t to every non-nil observer.
func (obs Observers) Transitioned(t Transition) {
	for _, o := range obs {
		if o != nil {
			o.Transitioned(t)
		}
	}
}

// Observed wraps a Controller and reports successful transitions.
type Observed struct {
	inner    Controller
	clock    Clock
	observer Observer
}

// Observe wraps c so obs sees every successful Set, stamped with clk. A nil
// clock means SystemClock.
func Observe(c Controller, clk Clock, obs Observer) *Observed {
	if clk == nil {
		clk = SystemClock{}
	}
	return &Observed{inner: c, clock: clk, observer: obs}
}

// State returns the wrapped controller's state.
func (o *Observed) State() State {
	return o.inner.State()
}

// Set forwards to the wrapped controller. The observer is not called when Set
// fails.
func (o *Observed) Set(s State) error {
	from := o.inner.State()
	if err := o.inner.Set(s); err != nil {
		return err
	}
	if o.observer != nil {
		o.observer.Transitioned(Transition{From: from, To: o.inner.State(), At: o.clock.Now()})
	}
	return nil
}

// Unwrap returns the wrapped controller.
func (o *Observed) Unwrap() Controller {
	return o.inner
}

// LogObserver logs each transition to logger, or to the standard logger if
// logger is nil.
func LogObserver(logger *log.Logger) Observer {
	if logger == nil {
		logger = log.Default()
	}
	return ObserverFunc(func(t Transition) {
		logger.Printf("event: %s -> %s", t.From, t.To)
	})
}
