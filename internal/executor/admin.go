package executor

import (
	"github.com/openclaw/gpioskill/internal/gpio"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/openclaw/gpioskill/internal/store"
)

func (e *Executor) register(payload map[string]any) sequence.Result {
	name := stringArg(payload, "name", "")
	if name == "" || payload["pin"] == nil {
		return sequence.Failure("register requires: name, pin. Optional: type, description")
	}
	pin, err := intArg(payload, "pin", 0)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	devType := stringArg(payload, "type", "output")
	description := stringArg(payload, "description", "")
	frequency, err := floatArg(payload, "frequency", 0)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	dev := store.Device{
		Pin:         pin,
		Type:        devType,
		Description: description,
		ActiveLow:   boolArg(payload, "active_low", false),
		PullUp:      boolArg(payload, "pull_up", false),
		Frequency:   frequency,
	}
	if err := e.registry.Register(name, dev); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":     true,
		"registered":  name,
		"pin":         pin,
		"type":        devType,
		"description": description,
	}
}

func (e *Executor) unregister(payload map[string]any) sequence.Result {
	target := stringArg(payload, "name", "")
	if target == "" {
		target, _ = identifier(payload)
	}
	if target == "" {
		return sequence.Failure("unregister requires: name or pin")
	}

	removed, err := e.registry.Unregister(target)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{"success": true, "unregistered": removed}
}

func (e *Executor) rename(payload map[string]any) sequence.Result {
	old, _ := identifier(payload)
	if old == "" {
		old = stringArg(payload, "old", "")
	}
	newName := stringArg(payload, "new_name", "")
	if newName == "" {
		newName = stringArg(payload, "name", "")
	}
	if old == "" || newName == "" {
		return sequence.Failure("rename requires: device (current name or pin number), new_name")
	}

	dev, err := e.registry.Rename(old, newName)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":     true,
		"renamed_to":  newName,
		"pin":         dev.Pin,
		"description": dev.Description,
	}
}

func (e *Executor) listDevices() sequence.Result {
	infos, err := e.registry.List()
	if err != nil {
		return sequence.Failure(err.Error())
	}

	devices := make([]any, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, map[string]any{
			"name":        info.Name,
			"pin":         info.Pin,
			"type":        info.Type,
			"description": info.Description,
		})
	}
	return sequence.Result{"success": true, "devices": devices}
}

func (e *Executor) listBackends() sequence.Result {
	pinctrl := gpio.PinctrlAvailable()
	recommended := "gpiocdev"
	if pinctrl {
		recommended = "pinctrl"
	}
	return sequence.Result{
		"success":             true,
		"pinctrl_available":   pinctrl,
		"gpiocdev_available":  true,
		"active_backend":      e.backend.Name(),
		"recommended_backend": recommended,
	}
}
