package bangbang

import "time"

// Clock reads the current instant. Only differences between readings are
// used, so any monotonic source works.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads time.Now, whose monotonic reading keeps elapsed time
// correct across wall clock adjustments.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
