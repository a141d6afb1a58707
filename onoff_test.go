package bangbang

import (
	"errors"
	"testing"
)

func TestOnOffCanStartOn(t *testing.T) {
	o := NewOnOff(true, nil, nil)
	if !o.IsOn() || o.IsOff() {
		t.Fatal("expected controller to start on")
	}
	if o.State() != On {
		t.Errorf("expected state B, got %s", o.State())
	}

	for i, wantOn := range []bool{false, true, false} {
		if err := Bang(o); err != nil {
			t.Fatalf("bang %d: unexpected error: %v", i, err)
		}
		if o.IsOn() != wantOn || o.IsOff() == wantOn {
			t.Errorf("bang %d: expected on=%v, got on=%v", i, wantOn, o.IsOn())
		}
	}
}

func TestOnOffCanStartOff(t *testing.T) {
	o := NewOnOff(false, nil, nil)
	if o.IsOn() || !o.IsOff() {
		t.Fatal("expected controller to start off")
	}

	for i, wantOn := range []bool{true, false, true} {
		if err := Bang(o); err != nil {
			t.Fatalf("bang %d: unexpected error: %v", i, err)
		}
		if o.IsOn() != wantOn {
			t.Errorf("bang %d: expected on=%v, got on=%v", i, wantOn, o.IsOn())
		}
	}
}

func TestOnOffCallsHandlers(t *testing.T) {
	var onCalls, offCalls int
	handleOn := func(from, to State) error {
		onCalls++
		return nil
	}
	handleOff := func(from, to State) error {
		offCalls++
		return nil
	}

	// Construction does not run handlers.
	NewOnOff(false, handleOn, handleOff)
	if onCalls != 0 || offCalls != 0 {
		t.Fatalf("handlers called on construction: on=%d off=%d", onCalls, offCalls)
	}

	o := NewOnOff(true, handleOn, handleOff)
	if err := Bang(o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if onCalls != 0 || offCalls != 1 {
		t.Errorf("expected only off handler, got on=%d off=%d", onCalls, offCalls)
	}

	o = NewOnOff(false, handleOn, handleOff)
	Bang(o)
	Bang(o)
	if onCalls != 1 || offCalls != 2 {
		t.Errorf("expected on=1 off=2, got on=%d off=%d", onCalls, offCalls)
	}

	// Same-state Set still runs the handler.
	if err := o.Set(Off); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offCalls != 3 {
		t.Errorf("expected same-state Set to call off handler, got off=%d", offCalls)
	}
}

func TestOnOffHandlerFailureKeepsState(t *testing.T) {
	boom := errors.New("contactor welded")
	handleOn := func(from, to State) error { return boom }
	handleOff := func(from, to State) error { return nil }

	o := NewOnOff(true, handleOn, handleOff)

	if err := Bang(o); err != nil {
		t.Fatalf("off transition should succeed: %v", err)
	}
	if !o.IsOff() {
		t.Fatal("expected off after successful bang")
	}

	err := Bang(o)
	if err == nil {
		t.Fatal("expected on transition to fail")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected handler error to be wrapped, got %v", err)
	}
	if !errors.Is(err, ErrHandlerFailed) {
		t.Errorf("expected ErrHandlerFailed, got %v", err)
	}

	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if te.Kind != KindHandlerFailed || te.From != Off || te.To != On {
		t.Errorf("unexpected error details: %+v", te)
	}
	if !o.IsOff() {
		t.Error("state should be unchanged after handler failure")
	}
}

func TestOnOffHandlerTransitionErrorPassesThrough(t *testing.T) {
	custom := &TransitionError{Kind: KindUnexpected, From: Off, To: On, Err: errors.New("code 7")}
	o := NewOnOff(false, func(from, to State) error { return custom }, nil)

	err := o.Set(On)
	if err != custom {
		t.Errorf("expected handler's *TransitionError unchanged, got %v", err)
	}
	if !errors.Is(err, ErrUnexpected) {
		t.Errorf("expected ErrUnexpected, got %v", err)
	}
}
