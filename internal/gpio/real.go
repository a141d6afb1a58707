//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives a line on actual hardware using the Linux GPIO
// character device.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutput requests pin on chip as an output set to the initial level.
// With activeLow, a logical "on" drives the pin low.
func NewRealOutput(chipName string, pin int, activeLow, initial bool) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.WithConsumer("bangbang-relay"),
		gpiocdev.AsOutput(level(initial)),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := chip.RequestLine(pin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}

	return &RealOutput{chip: chip, line: line}, nil
}

// Write sets the logical level of the line.
func (r *RealOutput) Write(on bool) error {
	if err := r.line.SetValue(level(on)); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Read returns the logical level of the line.
func (r *RealOutput) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// The line is returned to input with pull-down (the Pi boot default) first so
// the relay drops out and the pin is in a known state across reboots.
func (r *RealOutput) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
