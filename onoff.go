package bangbang

import "errors"

// Handler is called before a state change is committed. Returning an error
// vetoes the change.
type Handler func(from, to State) error

// OnOff is an unconstrained on/off controller with optional handlers that
// run on each change. B is on and A is off.
type OnOff struct {
	on        bool
	handleOn  Handler
	handleOff Handler
}

// NewOnOff creates an OnOff starting on or off. Either handler may be nil.
// Construction does not call any handler.
func NewOnOff(on bool, handleOn, handleOff Handler) *OnOff {
	return &OnOff{
		on:        on,
		handleOn:  handleOn,
		handleOff: handleOff,
	}
}

// State returns B when on and A when off.
func (o *OnOff) State() State {
	return FromBool(o.on)
}

// Set runs the handler for s (on for B, off for A) and then stores s. A
// handler error leaves the state unchanged. Handlers run even when s is the
// current state.
func (o *OnOff) Set(s State) error {
	h := o.handleOff
	if s == On {
		h = o.handleOn
	}
	from := o.State()
	if h != nil {
		if err := h(from, s); err != nil {
			return handlerError(from, s, err)
		}
	}
	o.on = s.Bool()
	return nil
}

// IsOn reports whether the controller is on.
func (o *OnOff) IsOn() bool {
	return o.on
}

// IsOff reports whether the controller is off.
func (o *OnOff) IsOff() bool {
	return !o.on
}

// handlerError wraps a handler failure, passing an existing
// *TransitionError from the handler through untouched.
func handlerError(from, to State, err error) error {
	var te *TransitionError
	if errors.As(err, &te) {
		return te
	}
	return &TransitionError{Kind: KindHandlerFailed, From: from, To: to, Err: err}
}
