// Package gpio drives pins through either the pinctrl utility or the
// Linux GPIO character device.
package gpio

import (
	"context"
	"errors"
	"os/exec"
)

// Backend errors.
var (
	// ErrModeUnsupported is returned when a backend cannot set pin direction.
	ErrModeUnsupported = errors.New("set_mode requires the pinctrl backend")
	// ErrUnknownState is returned when a pin level cannot be parsed.
	ErrUnknownState = errors.New("pin state could not be determined")
)

// Backend abstracts single-pin reads and writes.
type Backend interface {
	// Name identifies the backend ("pinctrl" or "gpiocdev").
	Name() string

	// Write drives a pin high (true) or low (false).
	Write(ctx context.Context, pin int, value bool) error

	// Read samples a pin level. pullUp enables the internal pull-up
	// where the backend supports it.
	Read(ctx context.Context, pin int, pullUp bool) (bool, error)

	// SetMode sets pin direction without changing its level.
	// Backends without direction control return ErrModeUnsupported.
	SetMode(ctx context.Context, pin int, mode Mode) error
}

// Mode is a pin direction.
type Mode string

const (
	ModeInput  Mode = "input"
	ModeOutput Mode = "output"
)

// PinctrlAvailable reports whether the pinctrl utility is on PATH.
func PinctrlAvailable() bool {
	_, err := exec.LookPath("pinctrl")
	return err == nil
}

// Detect returns the preferred backend for this host: pinctrl when the
// utility exists, otherwise the character device on the given chip.
func Detect(chip string) Backend {
	if PinctrlAvailable() {
		return NewPinctrl()
	}
	return NewCdev(chip)
}
