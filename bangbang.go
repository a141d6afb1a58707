// Package bangbang models a two-state ("bang-bang") controller: something that
// is always in exactly one of two states and moves between them only when
// told to. A thermostat driving a furnace relay is the usual example.
//
// The package only models the switching mechanism. Deciding when to flip is
// left to the caller. Controllers are plain values with no internal locking
// and no goroutines; callers sharing one across goroutines must serialize
// access themselves.
package bangbang

// Controller is implemented by every two-state controller.
type Controller interface {
	// State returns the current state. It has no side effects.
	State() State

	// Set moves the controller to s. Implementations without transition
	// constraints always return nil. Constrained implementations return a
	// *TransitionError when the change is not permitted right now.
	Set(s State) error
}

// Bang toggles c to the state it is not currently in. Any error from Set is
// returned unchanged.
func Bang(c Controller) error {
	return c.Set(c.State().Other())
}
