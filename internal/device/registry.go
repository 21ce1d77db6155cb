// Package device maps registered names and BCM pin numbers to pin settings.
package device

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/openclaw/gpioskill/internal/store"
)

// Registry errors.
var (
	// ErrNameRequired is returned when a registration has no name.
	ErrNameRequired = errors.New("device name is required")
	// ErrNotFound is returned when an identifier matches no registration.
	ErrNotFound = errors.New("device not found")
)

// ValidTypes are the accepted device type values.
var ValidTypes = []string{"output", "relay", "input", "sensor", "pwm", "servo"}

// ResolveError describes an identifier that is neither a name nor a pin.
type ResolveError struct {
	Identifier string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("'%s' is not a registered name and not a pin number; use list_devices to see registered names", e.Identifier)
}

// Info is a device joined with its registered name.
type Info struct {
	Name        string `json:"name"`
	Pin         int    `json:"pin"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Registry resolves identifiers against the persisted device document.
type Registry struct {
	store store.Store
}

// NewRegistry creates a registry over the given store.
func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// Resolve maps a name or BCM pin number to (pin, device settings).
// An unregistered numeric pin resolves to a synthetic output device.
func (r *Registry) Resolve(identifier string) (int, store.Device, error) {
	doc, err := r.store.Load()
	if err != nil {
		return 0, store.Device{}, err
	}
	return resolveIn(doc, identifier)
}

func resolveIn(doc *store.Document, identifier string) (int, store.Device, error) {
	if d, ok := doc.Devices[identifier]; ok {
		return d.Pin, d, nil
	}

	pin, err := strconv.Atoi(strings.TrimSpace(identifier))
	if err != nil {
		return 0, store.Device{}, &ResolveError{Identifier: identifier}
	}

	for _, d := range doc.Devices {
		if d.Pin == pin {
			return pin, d, nil
		}
	}

	return pin, store.Device{
		Pin:         pin,
		Type:        "output",
		Description: fmt.Sprintf("Pin %d (not registered)", pin),
	}, nil
}

// Register stores a device under a name, overwriting any previous entry.
func (r *Registry) Register(name string, dev store.Device) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if !validType(dev.Type) {
		return fmt.Errorf("type must be one of: %s", strings.Join(ValidTypes, ", "))
	}

	doc, err := r.store.Load()
	if err != nil {
		return err
	}
	doc.Devices[name] = dev
	return r.store.Replace(doc)
}

// Unregister removes a device by name or pin number.
// It returns the removed name, or ErrNotFound.
func (r *Registry) Unregister(identifier string) (string, error) {
	doc, err := r.store.Load()
	if err != nil {
		return "", err
	}

	if _, ok := doc.Devices[identifier]; ok {
		delete(doc.Devices, identifier)
		return identifier, r.store.Replace(doc)
	}

	if pin, err := strconv.Atoi(strings.TrimSpace(identifier)); err == nil {
		for name, d := range doc.Devices {
			if d.Pin == pin {
				delete(doc.Devices, name)
				return name, r.store.Replace(doc)
			}
		}
	}

	return "", fmt.Errorf("'%s': %w", identifier, ErrNotFound)
}

// Rename moves a device registration to a new name, keeping its settings.
// The identifier may be a current name or a pin number.
func (r *Registry) Rename(identifier, newName string) (store.Device, error) {
	if strings.TrimSpace(newName) == "" {
		return store.Device{}, ErrNameRequired
	}

	doc, err := r.store.Load()
	if err != nil {
		return store.Device{}, err
	}

	pin, dev, err := resolveIn(doc, identifier)
	if err != nil {
		return store.Device{}, err
	}

	if existing, ok := doc.Devices[newName]; ok && existing.Pin != pin {
		return store.Device{}, fmt.Errorf("'%s' is already used by pin %d", newName, existing.Pin)
	}

	if _, ok := doc.Devices[identifier]; ok {
		delete(doc.Devices, identifier)
	} else {
		for name, d := range doc.Devices {
			if d.Pin == pin {
				delete(doc.Devices, name)
				break
			}
		}
	}

	dev.Pin = pin
	doc.Devices[newName] = dev
	return dev, r.store.Replace(doc)
}

// List returns all registered devices sorted by name.
func (r *Registry) List() ([]Info, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(doc.Devices))
	for name, d := range doc.Devices {
		infos = append(infos, Info{
			Name:        name,
			Pin:         d.Pin,
			Type:        d.Type,
			Description: d.Description,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Inputs returns every registered input or sensor device, sorted by name.
func (r *Registry) Inputs() (map[string]store.Device, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	inputs := make(map[string]store.Device)
	for name, d := range doc.Devices {
		if d.Type == "input" || d.Type == "sensor" {
			inputs[name] = d
		}
	}
	return inputs, nil
}

func validType(t string) bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}
