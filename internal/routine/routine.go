// Package routine persists named step lists and runs them by name.
package routine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/openclaw/gpioskill/internal/logging"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/openclaw/gpioskill/internal/store"
	"github.com/rs/zerolog"
)

// Store errors.
var (
	// ErrNameRequired is returned when a routine has no name.
	ErrNameRequired = errors.New("routine name is required")
	// ErrNoSteps is returned when a routine has no steps.
	ErrNoSteps = errors.New("routine must have at least one step")
)

// NotFoundError reports a missing routine along with the names that do
// exist, to aid correction.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("routine '%s' not found", e.Name)
}

// Info summarizes a stored routine.
type Info struct {
	Name        string `json:"name"`
	Steps       int    `json:"steps"`
	Description string `json:"description"`
}

// Store saves, loads, deletes and runs named routines against the
// configuration store.
type Store struct {
	cfg    store.Store
	ctl    *sequence.Controller
	logger zerolog.Logger
}

// NewStore creates a routine store. The controller is only needed for
// RunByName and may be nil otherwise.
func NewStore(cfg store.Store, ctl *sequence.Controller) *Store {
	return &Store{
		cfg:    cfg,
		ctl:    ctl,
		logger: logging.Component("routine"),
	}
}

// Save upserts a routine, fully replacing any prior entry of that name.
func (s *Store) Save(name string, steps []map[string]any, description string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if len(steps) == 0 {
		return ErrNoSteps
	}

	doc, err := s.cfg.Load()
	if err != nil {
		return err
	}
	doc.Routines[name] = store.Routine{
		Description: description,
		Steps:       steps,
	}
	if err := s.cfg.Replace(doc); err != nil {
		return err
	}

	s.logger.Info().Str("routine", name).Int("steps", len(steps)).Msg("routine saved")
	return nil
}

// Load returns a stored routine, or a NotFoundError naming the known
// routines.
func (s *Store) Load(name string) (store.Routine, error) {
	doc, err := s.cfg.Load()
	if err != nil {
		return store.Routine{}, err
	}

	r, ok := doc.Routines[name]
	if !ok {
		return store.Routine{}, &NotFoundError{Name: name, Available: routineNames(doc)}
	}
	return r, nil
}

// Delete removes a routine or returns a NotFoundError.
func (s *Store) Delete(name string) error {
	doc, err := s.cfg.Load()
	if err != nil {
		return err
	}

	if _, ok := doc.Routines[name]; !ok {
		return &NotFoundError{Name: name, Available: routineNames(doc)}
	}
	delete(doc.Routines, name)
	if err := s.cfg.Replace(doc); err != nil {
		return err
	}

	s.logger.Info().Str("routine", name).Msg("routine deleted")
	return nil
}

// List returns all routines sorted by name.
func (s *Store) List() ([]Info, error) {
	doc, err := s.cfg.Load()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(doc.Routines))
	for name, r := range doc.Routines {
		infos = append(infos, Info{
			Name:        name,
			Steps:       len(r.Steps),
			Description: r.Description,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// RunByName loads a routine and executes it with a fresh context.
// The run result carries the routine name.
func (s *Store) RunByName(ctx context.Context, name string) (*sequence.RunResult, error) {
	r, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	run := s.ctl.Run(ctx, r.Steps)
	run.Routine = name
	return run, nil
}

func routineNames(doc *store.Document) []string {
	names := make([]string, 0, len(doc.Routines))
	for name := range doc.Routines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
