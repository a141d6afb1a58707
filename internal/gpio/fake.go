package gpio

import "sync"

// FakeOutput is a test double that records every level written.
type FakeOutput struct {
	mu sync.Mutex

	// Level is the current logical level.
	Level bool

	// Writes records each level passed to Write, in order.
	Writes []bool

	// WriteError, if set, is returned by Write and the level is not changed.
	WriteError error

	// ReadError, if set, is returned by Read.
	ReadError error

	// Stuck, if set, makes writes succeed without changing Level.
	Stuck bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates a FakeOutput at the given initial level.
func NewFakeOutput(initial bool) *FakeOutput {
	return &FakeOutput{Level: initial}
}

// Write records the level.
func (f *FakeOutput) Write(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	if !f.Stuck {
		f.Level = on
	}
	f.Writes = append(f.Writes, on)
	return nil
}

// Read returns the current level.
func (f *FakeOutput) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Level, nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// SetWriteError sets the error returned by subsequent writes.
func (f *FakeOutput) SetWriteError(err error) {
	f.mu.Lock()
	f.WriteError = err
	f.mu.Unlock()
}

// SetReadError sets the error returned by subsequent reads.
func (f *FakeOutput) SetReadError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// WriteCount returns how many writes succeeded.
func (f *FakeOutput) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// Reset clears recorded writes and errors.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	f.Writes = nil
	f.WriteError = nil
	f.ReadError = nil
	f.Stuck = false
	f.Closed = false
	f.mu.Unlock()
}
