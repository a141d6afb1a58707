package bangbang

// Reference is a Controller with no transition constraints.
type Reference struct {
	state State
}

// NewReference returns a Reference starting in initial.
func NewReference(initial State) *Reference {
	return &Reference{state: initial}
}

// State returns the stored state.
func (r *Reference) State() State {
	return r.state
}

// Set stores s. It never fails.
func (r *Reference) Set(s State) error {
	r.state = s
	return nil
}
