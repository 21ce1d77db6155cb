package gpio

import (
	"context"
	"fmt"
	"time"
)

// WaitResult reports the outcome of WaitFor.
type WaitResult struct {
	// Reached is true when the pin hit the desired state before timeout.
	Reached bool
	// Elapsed is how long the wait took.
	Elapsed time.Duration
}

// WaitFor polls a pin until it reaches the desired state or the timeout
// expires. Polling blocks the caller for up to the full timeout.
func WaitFor(ctx context.Context, b Backend, pin int, pullUp, state bool, timeout, poll time.Duration) (WaitResult, error) {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	start := time.Now()
	deadline := start.Add(timeout)

	for time.Now().Before(deadline) {
		v, err := b.Read(ctx, pin, pullUp)
		if err != nil {
			return WaitResult{Elapsed: time.Since(start)}, err
		}
		if v == state {
			return WaitResult{Reached: true, Elapsed: time.Since(start)}, nil
		}

		select {
		case <-ctx.Done():
			return WaitResult{Elapsed: time.Since(start)}, ctx.Err()
		case <-time.After(poll):
		}
	}

	return WaitResult{Elapsed: time.Since(start)}, nil
}

// Blink toggles a pin high/low the given number of times. It returns the
// number of completed cycles; on a write failure that count is partial.
func Blink(ctx context.Context, b Backend, pin, times int, on, off time.Duration) (int, error) {
	for i := 0; i < times; i++ {
		if err := b.Write(ctx, pin, true); err != nil {
			return i, err
		}
		if err := sleepCtx(ctx, on); err != nil {
			return i, err
		}
		if err := b.Write(ctx, pin, false); err != nil {
			return i, err
		}
		if i < times-1 {
			if err := sleepCtx(ctx, off); err != nil {
				return i + 1, err
			}
		}
	}
	return times, nil
}

// Pulse drives a pin to the on level for the given duration, then back
// to the off level.
func Pulse(ctx context.Context, b Backend, pin int, on, off bool, duration time.Duration) error {
	if err := b.Write(ctx, pin, on); err != nil {
		return err
	}
	if err := sleepCtx(ctx, duration); err != nil {
		return err
	}
	return b.Write(ctx, pin, off)
}

// PWMBurst emits a software PWM signal on a pin for the settle window.
// Both backends leave the pin at the level of the final edge, so a duty
// of 0 or 1 simply holds the pin low or high.
func PWMBurst(ctx context.Context, b Backend, pin int, duty, frequency float64, settle time.Duration) error {
	if duty < 0.0 || duty > 1.0 {
		return fmt.Errorf("duty_cycle must be 0.0-1.0, got %v", duty)
	}
	if frequency <= 0 {
		frequency = 100.0
	}

	if duty == 0.0 || duty == 1.0 {
		if err := b.Write(ctx, pin, duty == 1.0); err != nil {
			return err
		}
		return sleepCtx(ctx, settle)
	}

	period := time.Duration(float64(time.Second) / frequency)
	high := time.Duration(float64(period) * duty)
	low := period - high
	deadline := time.Now().Add(settle)

	for time.Now().Before(deadline) {
		if err := b.Write(ctx, pin, true); err != nil {
			return err
		}
		if err := sleepCtx(ctx, high); err != nil {
			return err
		}
		if err := b.Write(ctx, pin, false); err != nil {
			return err
		}
		if err := sleepCtx(ctx, low); err != nil {
			return err
		}
	}
	return nil
}

// ServoDuty maps an angle in degrees to a 50 Hz duty cycle for a
// standard servo: 0 degrees = 1 ms pulse (5%), 180 degrees = 2 ms (10%).
func ServoDuty(angle float64) float64 {
	return (angle/180.0)*0.05 + 0.05
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
