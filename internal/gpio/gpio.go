// Package gpio drives the relay output line with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/bangbang"
)

// Output drives a single logical output line.
type Output interface {
	// Write sets the logical level. Active-low wiring is handled by the
	// implementation, so true always means "relay energised".
	Write(on bool) error

	// Read returns the logical level last driven onto the line.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)

// Handler returns a state change handler that drives out to the target
// state and reads the line back. B (on) energises the line. A failed read or
// a line that did not follow the write vetoes the transition.
func Handler(out Output) bangbang.Handler {
	return func(from, to bangbang.State) error {
		want := to.Bool()
		if err := out.Write(want); err != nil {
			return fmt.Errorf("drive output %s: %w", to, err)
		}
		got, err := out.Read()
		if err != nil {
			return fmt.Errorf("read back output %s: %w", to, err)
		}
		if got != want {
			return fmt.Errorf("read back output %s: line is %v, want %v", to, got, want)
		}
		return nil
	}
}
