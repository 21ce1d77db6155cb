// Package executor turns a single resolved command payload into a
// device action and a structured result.
//
// Every failure is reported inside the result under "success"/"error";
// Execute never returns an error and never panics.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/openclaw/gpioskill/internal/config"
	"github.com/openclaw/gpioskill/internal/device"
	"github.com/openclaw/gpioskill/internal/gpio"
	"github.com/openclaw/gpioskill/internal/logging"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/rs/zerolog"
)

// validCommands lists every command the executor accepts, for the
// unknown-command error message.
var validCommands = []string{
	"activate", "deactivate", "toggle", "read", "read_all", "set",
	"blink", "pulse", "wait_for", "set_angle", "set_mode",
	"dht_read", "lcd_print", "lcd_clear",
	"serial_write", "serial_read", "serial_readline",
	"rename", "register", "unregister", "list_devices", "list_backends",
}

// Executor dispatches command payloads to the hardware backends.
type Executor struct {
	registry *device.Registry
	backend  gpio.Backend
	cfg      *config.Config
	logger   zerolog.Logger
}

// New creates an executor over the given registry and pin backend.
func New(registry *device.Registry, backend gpio.Backend, cfg *config.Config) *Executor {
	return &Executor{
		registry: registry,
		backend:  backend,
		cfg:      cfg,
		logger:   logging.Component("executor"),
	}
}

// Execute implements sequence.Executor.
func (e *Executor) Execute(ctx context.Context, payload map[string]any) sequence.Result {
	cmd := stringArg(payload, "command", "")
	e.logger.Debug().Str("command", cmd).Msg("dispatching command")

	switch cmd {
	case "activate":
		return e.activate(ctx, payload)
	case "deactivate":
		return e.deactivate(ctx, payload)
	case "toggle":
		return e.toggle(ctx, payload)
	case "read":
		return e.read(ctx, payload)
	case "read_all":
		return e.readAll(ctx)
	case "set":
		return e.setLevel(ctx, payload)
	case "blink":
		return e.blink(ctx, payload)
	case "pulse":
		return e.pulse(ctx, payload)
	case "wait_for":
		return e.waitFor(ctx, payload)
	case "set_angle":
		return e.setAngle(ctx, payload)
	case "set_mode":
		return e.setMode(ctx, payload)
	case "dht_read":
		return sequence.Failure("dht_read is not supported: DHT bit-bang timing needs a kernel driver")
	case "lcd_print":
		return e.lcdPrint(payload)
	case "lcd_clear":
		return e.lcdClear(payload)
	case "serial_write":
		return e.serialWrite(payload)
	case "serial_read":
		return e.serialRead(payload)
	case "serial_readline":
		return e.serialReadLine(payload)
	case "rename":
		return e.rename(payload)
	case "register":
		return e.register(payload)
	case "unregister":
		return e.unregister(payload)
	case "list_devices":
		return e.listDevices()
	case "list_backends":
		return e.listBackends()
	}

	return sequence.Failure(fmt.Sprintf(
		"Unknown command: '%s'. Valid: %s", cmd, strings.Join(validCommands, ", ")))
}

// identifier returns the device/pin identifier from a payload, checking
// "device" then "pin".
func identifier(payload map[string]any) (string, bool) {
	for _, key := range []string{"device", "pin"} {
		if v, ok := payload[key]; ok && v != nil {
			s := strings.TrimSpace(coerceString(v))
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Payloads arrive as decoded JSON or YAML, so numbers may be float64,
// int or even quoted strings. The helpers below coerce loosely, the way
// the skill always has.

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func stringArg(payload map[string]any, key, def string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return def
	}
	return coerceString(v)
}

func floatArg(payload map[string]any, key string, def float64) (float64, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", key, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func intArg(payload map[string]any, key string, def int) (int, error) {
	f, err := floatArg(payload, key, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func boolArg(payload map[string]any, key string, def bool) bool {
	v, ok := payload[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "high", "on":
			return true
		default:
			return false
		}
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return def
	}
}

func failuref(format string, args ...any) sequence.Result {
	return sequence.Failure(fmt.Sprintf(format, args...))
}
