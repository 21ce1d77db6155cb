package gpio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runner executes a pinctrl invocation. Swapped out in tests.
type runner func(ctx context.Context, args ...string) (stdout, stderr []byte, err error)

// Pinctrl shells out to the Raspberry Pi pinctrl utility.
type Pinctrl struct {
	run runner
}

// NewPinctrl creates a pinctrl-backed Backend.
func NewPinctrl() *Pinctrl {
	return &Pinctrl{run: runPinctrl}
}

func runPinctrl(ctx context.Context, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "pinctrl", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Name implements Backend.
func (p *Pinctrl) Name() string { return "pinctrl" }

// Write implements Backend.
func (p *Pinctrl) Write(ctx context.Context, pin int, value bool) error {
	level := "dl"
	if value {
		level = "dh"
	}
	_, stderr, err := p.run(ctx, "set", strconv.Itoa(pin), "op", level)
	if err != nil {
		return pinctrlError("set", pin, stderr, err)
	}
	return nil
}

// Read implements Backend. The pull-up flag is ignored: pinctrl reports
// the level as configured, it does not rewire bias on a read.
func (p *Pinctrl) Read(ctx context.Context, pin int, _ bool) (bool, error) {
	stdout, stderr, err := p.run(ctx, "get", strconv.Itoa(pin))
	if err != nil {
		return false, pinctrlError("get", pin, stderr, err)
	}
	return parsePinctrlLevel(string(stdout))
}

// SetMode implements Backend.
func (p *Pinctrl) SetMode(ctx context.Context, pin int, mode Mode) error {
	flag := "op"
	if mode == ModeInput {
		flag = "ip"
	}
	_, stderr, err := p.run(ctx, "set", strconv.Itoa(pin), flag)
	if err != nil {
		return pinctrlError("set", pin, stderr, err)
	}
	return nil
}

// parsePinctrlLevel extracts hi/lo from pinctrl get output, e.g.
// "17: op -- pd | hi // GPIO17 = output".
func parsePinctrlLevel(raw string) (bool, error) {
	_, after, found := strings.Cut(raw, "|")
	if !found {
		return false, fmt.Errorf("%w: %q", ErrUnknownState, strings.TrimSpace(raw))
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return false, fmt.Errorf("%w: %q", ErrUnknownState, strings.TrimSpace(raw))
	}
	switch strings.ToLower(fields[0]) {
	case "hi":
		return true, nil
	case "lo":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownState, strings.TrimSpace(raw))
}

func pinctrlError(op string, pin int, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return fmt.Errorf("pinctrl %s %d: %w", op, pin, err)
	}
	return fmt.Errorf("pinctrl %s %d: %s", op, pin, msg)
}
