package gpio

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// memBackend is an in-memory pin backend for exercising the helpers.
type memBackend struct {
	levels   map[int]bool
	writes   []bool
	reads    int
	writeErr error
	// flipAfter makes Read report the target state after N samples.
	flipAfter int
}

func newMemBackend() *memBackend {
	return &memBackend{levels: make(map[int]bool)}
}

func (m *memBackend) Name() string { return "mem" }

func (m *memBackend) Write(_ context.Context, pin int, value bool) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.levels[pin] = value
	m.writes = append(m.writes, value)
	return nil
}

func (m *memBackend) Read(_ context.Context, pin int, _ bool) (bool, error) {
	m.reads++
	if m.flipAfter > 0 && m.reads >= m.flipAfter {
		return true, nil
	}
	return m.levels[pin], nil
}

func (m *memBackend) SetMode(context.Context, int, Mode) error {
	return ErrModeUnsupported
}

func TestWaitForImmediate(t *testing.T) {
	b := newMemBackend()
	b.levels[4] = true

	res, err := WaitFor(context.Background(), b, 4, false, true, time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if !res.Reached {
		t.Fatal("expected state reached")
	}
}

func TestWaitForEventualFlip(t *testing.T) {
	b := newMemBackend()
	b.flipAfter = 3

	res, err := WaitFor(context.Background(), b, 4, false, true, time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if !res.Reached {
		t.Fatal("expected state reached after polls")
	}
	if b.reads < 3 {
		t.Fatalf("expected at least 3 reads, got %d", b.reads)
	}
}

func TestWaitForTimeout(t *testing.T) {
	b := newMemBackend()

	res, err := WaitFor(context.Background(), b, 4, false, true, 20*time.Millisecond, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if res.Reached {
		t.Fatal("expected timeout")
	}
	if res.Elapsed < 20*time.Millisecond {
		t.Fatalf("elapsed %v shorter than timeout", res.Elapsed)
	}
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newMemBackend()
	_, err := WaitFor(ctx, b, 4, false, true, time.Second, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestBlink(t *testing.T) {
	b := newMemBackend()

	cycles, err := Blink(context.Background(), b, 17, 3, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("Blink: %v", err)
	}
	if cycles != 3 {
		t.Fatalf("expected 3 cycles, got %d", cycles)
	}
	// Each cycle writes high then low; the pin ends low.
	if len(b.writes) != 6 {
		t.Fatalf("expected 6 writes, got %d", len(b.writes))
	}
	if b.levels[17] {
		t.Fatal("pin left high after blink")
	}
}

func TestBlinkPartialOnError(t *testing.T) {
	b := newMemBackend()
	b.writeErr = fmt.Errorf("pin busy")

	cycles, err := Blink(context.Background(), b, 17, 3, time.Millisecond, time.Millisecond)
	if err == nil {
		t.Fatal("expected write error")
	}
	if cycles != 0 {
		t.Fatalf("expected 0 completed cycles, got %d", cycles)
	}
}

func TestPulse(t *testing.T) {
	b := newMemBackend()

	if err := Pulse(context.Background(), b, 17, true, false, time.Millisecond); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	if len(b.writes) != 2 || !b.writes[0] || b.writes[1] {
		t.Fatalf("unexpected writes: %v", b.writes)
	}
}

func TestPulseActiveLow(t *testing.T) {
	b := newMemBackend()

	// Active-low wiring pulses low then returns high.
	if err := Pulse(context.Background(), b, 17, false, true, time.Millisecond); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	if !b.levels[17] {
		t.Fatal("expected pin to rest high")
	}
}

func TestPWMBurstValidatesDuty(t *testing.T) {
	b := newMemBackend()

	for _, duty := range []float64{-0.1, 1.5} {
		err := PWMBurst(context.Background(), b, 18, duty, 100, time.Millisecond)
		if err == nil {
			t.Fatalf("expected validation error for duty %v", duty)
		}
	}
}

func TestPWMBurstExtremes(t *testing.T) {
	b := newMemBackend()

	if err := PWMBurst(context.Background(), b, 18, 1.0, 100, time.Millisecond); err != nil {
		t.Fatalf("PWMBurst full: %v", err)
	}
	if !b.levels[18] {
		t.Fatal("duty 1.0 should hold the pin high")
	}

	if err := PWMBurst(context.Background(), b, 18, 0.0, 100, time.Millisecond); err != nil {
		t.Fatalf("PWMBurst zero: %v", err)
	}
	if b.levels[18] {
		t.Fatal("duty 0.0 should hold the pin low")
	}
}

func TestPWMBurstToggles(t *testing.T) {
	b := newMemBackend()

	if err := PWMBurst(context.Background(), b, 18, 0.5, 1000, 10*time.Millisecond); err != nil {
		t.Fatalf("PWMBurst: %v", err)
	}
	if len(b.writes) < 4 {
		t.Fatalf("expected several edges, got %d writes", len(b.writes))
	}
}

func TestServoDuty(t *testing.T) {
	cases := []struct {
		angle float64
		want  float64
	}{
		{0, 0.05},
		{90, 0.075},
		{180, 0.10},
	}
	for _, tc := range cases {
		got := ServoDuty(tc.angle)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("ServoDuty(%v) = %v, want %v", tc.angle, got, tc.want)
		}
	}
}
