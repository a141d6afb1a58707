package bangbang

import "testing"

func TestReferenceInitialState(t *testing.T) {
	for _, s := range []State{A, B} {
		if got := NewReference(s).State(); got != s {
			t.Errorf("NewReference(%s).State() = %s", s, got)
		}
	}
}

func TestReferenceSetNeverFails(t *testing.T) {
	r := NewReference(A)
	sequence := []State{B, B, A, A, B, A, B, B}

	for i, s := range sequence {
		if err := r.Set(s); err != nil {
			t.Fatalf("step %d: Set(%s) failed: %v", i, s, err)
		}
		if r.State() != s {
			t.Errorf("step %d: expected %s, got %s", i, s, r.State())
		}
		if i%2 == 0 {
			if err := Bang(r); err != nil {
				t.Fatalf("step %d: Bang failed: %v", i, err)
			}
		}
	}
}
