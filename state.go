package bangbang

import (
	"fmt"
	"strings"
)

// State is one of the two mutually exclusive controller states.
// The underlying bool makes a third value unrepresentable.
type State bool

const (
	A State = false
	B State = true
)

// On/off naming for the common relay case.
const (
	Off = A
	On  = B
)

// FromBool maps false to A and true to B.
func FromBool(b bool) State {
	return State(b)
}

// Bool reports whether s is B.
func (s State) Bool() bool {
	return bool(s)
}

// Other returns the state that s is not.
func (s State) Other() State {
	return !s
}

func (s State) String() string {
	if s == B {
		return "B"
	}
	return "A"
}

// MarshalText encodes s as "A" or "B".
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts A, B, ON and OFF in any case.
func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseState parses a state name. ON is B and OFF is A.
func ParseState(v string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "A", "OFF":
		return A, nil
	case "B", "ON":
		return B, nil
	}
	return A, fmt.Errorf("bangbang: invalid state %q", v)
}
