package bangbang

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels matched by errors.Is against a *TransitionError.
var (
	ErrTransitionRejected = errors.New("bangbang: transition rejected")
	ErrHandlerFailed      = errors.New("bangbang: state change handler failed")
	ErrUnexpected         = errors.New("bangbang: state change failed unexpectedly")
)

// Kind classifies a failed transition.
type Kind int

const (
	// KindRejected means a timing policy refused the transition for now.
	KindRejected Kind = iota
	// KindHandlerFailed means a state change handler returned an error.
	KindHandlerFailed
	// KindUnexpected covers any other implementation failure.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindHandlerFailed:
		return "handler_failed"
	default:
		return "unexpected"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindRejected:
		return ErrTransitionRejected
	case KindHandlerFailed:
		return ErrHandlerFailed
	default:
		return ErrUnexpected
	}
}

// TransitionError describes a Set that did not change state.
type TransitionError struct {
	Kind Kind
	From State
	To   State

	// Elapsed and Required are set for KindRejected. Elapsed may be negative
	// if the clock moved backwards.
	Elapsed  time.Duration
	Required time.Duration

	// Err is the underlying cause for KindHandlerFailed and KindUnexpected.
	Err error
}

// Remaining is how much longer the caller must wait before retrying.
func (e *TransitionError) Remaining() time.Duration {
	if e.Kind != KindRejected {
		return 0
	}
	return RemainingDwell(e.Elapsed, e.Required)
}

func (e *TransitionError) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("%v: %s -> %s after %v, dwell %v (retry in %v)",
			ErrTransitionRejected, e.From, e.To, e.Elapsed, e.Required, e.Remaining())
	default:
		if e.Err == nil {
			return fmt.Sprintf("%v: %s -> %s", e.Kind.sentinel(), e.From, e.To)
		}
		return fmt.Sprintf("%v: %s -> %s: %v", e.Kind.sentinel(), e.From, e.To, e.Err)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *TransitionError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// IsRejected reports whether err is a timing rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrTransitionRejected)
}
