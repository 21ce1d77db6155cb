package gpio

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Cdev drives pins through the Linux GPIO character device.
type Cdev struct {
	chip string
}

// NewCdev creates a character-device Backend on the given chip
// (e.g. "gpiochip0").
func NewCdev(chip string) *Cdev {
	if chip == "" {
		chip = "gpiochip0"
	}
	return &Cdev{chip: chip}
}

// Name implements Backend.
func (c *Cdev) Name() string { return "gpiocdev" }

// Write implements Backend. The line is requested, driven and released;
// on Raspberry Pi hardware the pin keeps its level after release.
func (c *Cdev) Write(ctx context.Context, pin int, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v := 0
	if value {
		v = 1
	}
	line, err := gpiocdev.RequestLine(c.chip, pin, gpiocdev.AsOutput(v))
	if err != nil {
		return fmt.Errorf("request %s line %d: %w", c.chip, pin, err)
	}
	return line.Close()
}

// Read implements Backend.
func (c *Cdev) Read(ctx context.Context, pin int, pullUp bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	if pullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	line, err := gpiocdev.RequestLine(c.chip, pin, opts...)
	if err != nil {
		return false, fmt.Errorf("request %s line %d: %w", c.chip, pin, err)
	}
	defer line.Close()

	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read %s line %d: %w", c.chip, pin, err)
	}
	return v != 0, nil
}

// SetMode implements Backend. Direction changes without driving a level
// are not expressible through the character device request model.
func (c *Cdev) SetMode(context.Context, int, Mode) error {
	return ErrModeUnsupported
}
