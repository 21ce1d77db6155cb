package executor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/openclaw/gpioskill/internal/gpio"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/openclaw/gpioskill/internal/store"
)

// pwmSettle is how long software PWM keeps emitting after a set;
// servoSettle gives a standard servo time to reach its position.
const (
	pwmSettle   = 50 * time.Millisecond
	servoSettle = 500 * time.Millisecond
)

func (e *Executor) resolveDevice(payload map[string]any) (string, int, store.Device, sequence.Result) {
	id, ok := identifier(payload)
	if !ok {
		return "", 0, store.Device{}, sequence.Failure(
			stringArg(payload, "command", "this command") + " requires: device (name or pin number)")
	}
	pin, dev, err := e.registry.Resolve(id)
	if err != nil {
		return "", 0, store.Device{}, sequence.Failure(err.Error())
	}
	return id, pin, dev, nil
}

func (e *Executor) writePin(ctx context.Context, id string, pin int, dev store.Device, value bool) sequence.Result {
	if err := e.backend.Write(ctx, pin, value); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":     true,
		"pin":         pin,
		"value":       value,
		"backend":     e.backend.Name(),
		"device":      id,
		"description": dev.Description,
	}
}

func (e *Executor) activate(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, dev, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}
	return e.writePin(ctx, id, pin, dev, !dev.ActiveLow)
}

func (e *Executor) deactivate(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, dev, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}
	return e.writePin(ctx, id, pin, dev, dev.ActiveLow)
}

func (e *Executor) toggle(ctx context.Context, payload map[string]any) sequence.Result {
	current := e.read(ctx, payload)
	if !current.Success() {
		return current
	}
	if on, _ := current["value"].(bool); on {
		return e.deactivate(ctx, payload)
	}
	return e.activate(ctx, payload)
}

func (e *Executor) read(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, dev, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}

	value, err := e.backend.Read(ctx, pin, dev.PullUp)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":     true,
		"pin":         pin,
		"value":       value,
		"backend":     e.backend.Name(),
		"device":      id,
		"description": dev.Description,
	}
}

func (e *Executor) readAll(ctx context.Context) sequence.Result {
	inputs, err := e.registry.Inputs()
	if err != nil {
		return sequence.Failure(err.Error())
	}

	readings := make(map[string]any)
	errors := make(map[string]any)
	for name, dev := range inputs {
		value, err := e.backend.Read(ctx, dev.Pin, dev.PullUp)
		if err != nil {
			errors[name] = err.Error()
			continue
		}
		readings[name] = map[string]any{
			"value":       value,
			"pin":         dev.Pin,
			"description": dev.Description,
		}
	}

	result := sequence.Result{"success": true, "readings": readings}
	if len(errors) > 0 {
		result["errors"] = errors
	}
	return result
}

func (e *Executor) setLevel(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, dev, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}
	if _, ok := payload["level"]; !ok {
		return sequence.Failure("set requires: device (name or pin number), level (0.0-1.0)")
	}
	level, err := floatArg(payload, "level", 0)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	frequency := dev.Frequency
	if frequency <= 0 {
		frequency = 100.0
	}
	if err := gpio.PWMBurst(ctx, e.backend, pin, level, frequency, pwmSettle); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":     true,
		"pin":         pin,
		"duty_cycle":  level,
		"frequency":   frequency,
		"backend":     e.backend.Name(),
		"device":      id,
		"description": dev.Description,
	}
}

func (e *Executor) setAngle(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, _, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}
	if _, ok := payload["angle"]; !ok {
		return sequence.Failure("set_angle requires: device, angle (0-180)")
	}
	angle, err := floatArg(payload, "angle", 0)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	if angle < 0 || angle > 180 {
		return sequence.Failure("angle must be 0-180 degrees")
	}

	duty := gpio.ServoDuty(angle)
	if err := gpio.PWMBurst(ctx, e.backend, pin, duty, 50.0, servoSettle); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":    true,
		"pin":        pin,
		"angle":      angle,
		"duty_cycle": math.Round(duty*10000) / 10000,
		"backend":    e.backend.Name(),
		"device":     id,
	}
}

func (e *Executor) blink(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, _, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}

	times, err := intArg(payload, "times", 3)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	onMs, err := intArg(payload, "on_ms", 500)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	offMs, err := intArg(payload, "off_ms", 500)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	completed, err := gpio.Blink(ctx, e.backend, pin, times,
		time.Duration(onMs)*time.Millisecond, time.Duration(offMs)*time.Millisecond)
	if err != nil {
		return sequence.Result{
			"success":          false,
			"error":            err.Error(),
			"completed_cycles": completed,
		}
	}
	return sequence.Result{
		"success": true,
		"pin":     pin,
		"device":  id,
		"times":   times,
		"on_ms":   onMs,
		"off_ms":  offMs,
	}
}

func (e *Executor) pulse(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, dev, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}
	durationMs, err := intArg(payload, "duration_ms", 1000)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	on := !dev.ActiveLow
	if err := gpio.Pulse(ctx, e.backend, pin, on, !on, time.Duration(durationMs)*time.Millisecond); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":     true,
		"pin":         pin,
		"device":      id,
		"duration_ms": durationMs,
	}
}

func (e *Executor) waitFor(ctx context.Context, payload map[string]any) sequence.Result {
	id, pin, dev, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}

	state := boolArg(payload, "state", true)
	timeoutS, err := floatArg(payload, "timeout_s", 30)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	pollMs, err := intArg(payload, "poll_ms", 100)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	timeout := time.Duration(timeoutS * float64(time.Second))
	wait, err := gpio.WaitFor(ctx, e.backend, pin, dev.PullUp, state,
		timeout, time.Duration(pollMs)*time.Millisecond)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	if !wait.Reached {
		level := "LOW"
		if state {
			level = "HIGH"
		}
		return sequence.Result{
			"success":   false,
			"timed_out": true,
			"pin":       pin,
			"device":    id,
			"timeout_s": timeoutS,
			"error":     fmt.Sprintf("Timed out after %vs - pin never reached %s", timeoutS, level),
		}
	}
	return sequence.Result{
		"success":     true,
		"pin":         pin,
		"device":      id,
		"value":       state,
		"elapsed_s":   math.Round(wait.Elapsed.Seconds()*1000) / 1000,
		"description": dev.Description,
	}
}

func (e *Executor) setMode(ctx context.Context, payload map[string]any) sequence.Result {
	mode := stringArg(payload, "mode", "")
	if mode != string(gpio.ModeInput) && mode != string(gpio.ModeOutput) {
		return sequence.Failure("set_mode requires: device, mode ('input' or 'output')")
	}

	id, pin, _, fail := e.resolveDevice(payload)
	if fail != nil {
		return fail
	}

	if err := e.backend.SetMode(ctx, pin, gpio.Mode(mode)); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success": true,
		"pin":     pin,
		"mode":    mode,
		"backend": e.backend.Name(),
		"device":  id,
	}
}
