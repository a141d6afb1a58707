package bangbang

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestObservedNotifiesOnSuccess(t *testing.T) {
	clk := NewFakeClock(t0)
	var got []Transition
	o := Observe(NewReference(A), clk, ObserverFunc(func(tr Transition) {
		got = append(got, tr)
	}))

	if err := Bang(o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clk.Advance(time.Second)
	if err := o.Set(B); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(got))
	}
	if got[0].From != A || got[0].To != B || !got[0].At.Equal(t0) {
		t.Errorf("unexpected first transition: %+v", got[0])
	}
	if got[1].From != B || got[1].To != B || !got[1].At.Equal(t0.Add(time.Second)) {
		t.Errorf("unexpected second transition: %+v", got[1])
	}
}

func TestObservedSilentOnFailure(t *testing.T) {
	clk := NewFakeClock(t0)
	called := false
	o := Observe(NewTimeGated(A, time.Minute, clk), clk, ObserverFunc(func(Transition) {
		called = true
	}))

	if err := Bang(o); !IsRejected(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if called {
		t.Error("observer called for failed transition")
	}
	if o.State() != A {
		t.Errorf("expected A, got %s", o.State())
	}
	if _, ok := o.Unwrap().(*TimeGated); !ok {
		t.Errorf("Unwrap returned %T", o.Unwrap())
	}
}

func TestObserversFanOut(t *testing.T) {
	var a, b int
	obs := Observers{
		ObserverFunc(func(Transition) { a++ }),
		nil,
		ObserverFunc(func(Transition) { b++ }),
	}
	o := Observe(NewReference(A), NewFakeClock(t0), obs)
	Bang(o)
	Bang(o)

	if a != 2 || b != 2 {
		t.Errorf("expected both observers called twice, got a=%d b=%d", a, b)
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	o := Observe(NewReference(A), NewFakeClock(t0), LogObserver(logger))

	if err := Bang(o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "event: A -> B" {
		t.Errorf("unexpected log line: %q", got)
	}
}
