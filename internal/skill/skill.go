// Package skill wires the device skill together and routes top-level
// command payloads.
package skill

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openclaw/gpioskill/internal/config"
	"github.com/openclaw/gpioskill/internal/device"
	"github.com/openclaw/gpioskill/internal/executor"
	"github.com/openclaw/gpioskill/internal/gpio"
	"github.com/openclaw/gpioskill/internal/history"
	"github.com/openclaw/gpioskill/internal/logging"
	"github.com/openclaw/gpioskill/internal/routine"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/openclaw/gpioskill/internal/store"
	"github.com/rs/zerolog"
)

// Skill is the assembled device skill.
type Skill struct {
	cfg      *config.Config
	exec     *executor.Executor
	ctl      *sequence.Controller
	routines *routine.Store
	recorder *history.Recorder
	hist     *history.DB
	logger   zerolog.Logger
}

// New assembles the skill from configuration: file store, device
// registry, detected pin backend, executor, sequence controller,
// routine store and (when configured) run history.
func New(cfg *config.Config) (*Skill, error) {
	fileStore := store.NewFileStore(cfg.DeviceFile)
	registry := device.NewRegistry(fileStore)
	backend := gpio.Detect(cfg.GPIOChip)
	exec := executor.New(registry, backend, cfg)
	ctl := sequence.NewController(exec)

	s := &Skill{
		cfg:      cfg,
		exec:     exec,
		ctl:      ctl,
		routines: routine.NewStore(fileStore, ctl),
		logger:   logging.Component("skill"),
	}

	if cfg.HistoryDB != "" {
		hist, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return nil, err
		}
		s.hist = hist
	}
	s.recorder = history.NewRecorder(s.hist)

	return s, nil
}

// Close releases held resources.
func (s *Skill) Close() error {
	if s.hist != nil {
		return s.hist.Close()
	}
	return nil
}

// Routines exposes the routine store for the CLI subcommands.
func (s *Skill) Routines() *routine.Store {
	return s.routines
}

// History exposes the history DB; nil when recording is disabled.
func (s *Skill) History() *history.DB {
	return s.hist
}

// Executor exposes the hardware dispatcher.
func (s *Skill) Executor() *executor.Executor {
	return s.exec
}

// Dispatch routes one top-level command payload and returns a
// JSON-serializable result. Sequence and routine commands are handled
// here; everything else goes to the hardware executor.
func (s *Skill) Dispatch(ctx context.Context, payload map[string]any) any {
	if payload == nil {
		return sequence.Failure("empty payload")
	}

	cmd, _ := payload["command"].(string)
	s.logger.Debug().Str("command", cmd).Msg("dispatch")
	switch cmd {
	case "sequence":
		steps, fail := stepsArg(payload, "sequence requires: steps (non-empty list of command payloads)")
		if fail != nil {
			return fail
		}
		return s.RunSequence(ctx, steps)

	case "run_routine":
		name, _ := payload["name"].(string)
		if name == "" {
			return sequence.Failure("run_routine requires: name")
		}
		return s.RunRoutine(ctx, name)

	case "save_routine":
		name, _ := payload["name"].(string)
		steps, fail := stepsArg(payload, "save_routine requires: name, steps")
		if name == "" || fail != nil {
			return sequence.Failure("save_routine requires: name, steps")
		}
		description, _ := payload["description"].(string)
		if err := s.routines.Save(name, steps, description); err != nil {
			return sequence.Failure(err.Error())
		}
		s.recorder.RoutineSaved(ctx, name, len(steps))
		return sequence.Result{"success": true, "saved_routine": name, "steps": len(steps)}

	case "delete_routine":
		name, _ := payload["name"].(string)
		if name == "" {
			return sequence.Failure("delete_routine requires: name")
		}
		if err := s.routines.Delete(name); err != nil {
			return sequence.Failure(err.Error())
		}
		s.recorder.RoutineDeleted(ctx, name)
		return sequence.Result{"success": true, "deleted_routine": name}

	case "list_routines":
		infos, err := s.routines.List()
		if err != nil {
			return sequence.Failure(err.Error())
		}
		routines := make([]any, 0, len(infos))
		for _, info := range infos {
			routines = append(routines, map[string]any{
				"name":        info.Name,
				"steps":       info.Steps,
				"description": info.Description,
			})
		}
		return sequence.Result{"success": true, "routines": routines}
	}

	return s.exec.Execute(ctx, payload)
}

// RunSequence executes an inline step list with history recording.
func (s *Skill) RunSequence(ctx context.Context, steps []map[string]any) *sequence.RunResult {
	runID := uuid.New().String()
	s.recorder.RunStarted(ctx, runID, "", len(steps))

	run := s.ctl.Run(ctx, steps)

	s.recorder.RunFinished(ctx, runID, run)
	return run
}

// RunRoutine runs a stored routine by name. A missing routine is
// reported as a result carrying the known routine names.
func (s *Skill) RunRoutine(ctx context.Context, name string) any {
	r, err := s.routines.Load(name)
	if err != nil {
		var notFound *routine.NotFoundError
		if errors.As(err, &notFound) {
			return sequence.Result{
				"success":            false,
				"error":              fmt.Sprintf("Routine '%s' not found.", name),
				"available_routines": notFound.Available,
			}
		}
		return sequence.Failure(err.Error())
	}

	runID := uuid.New().String()
	s.recorder.RunStarted(ctx, runID, name, len(r.Steps))

	run := s.ctl.Run(ctx, r.Steps)
	run.Routine = name

	s.recorder.RunFinished(ctx, runID, run)
	return run
}

// Succeeded reports whether a dispatch result carries a true success
// flag, for the process exit code.
func Succeeded(result any) bool {
	switch r := result.(type) {
	case *sequence.RunResult:
		return r.Success
	case sequence.RunResult:
		return r.Success
	case sequence.Result:
		return r.Success()
	case map[string]any:
		ok, _ := r["success"].(bool)
		return ok
	default:
		return false
	}
}

// stepsArg extracts a non-empty list of step mappings from a payload.
func stepsArg(payload map[string]any, errMsg string) ([]map[string]any, sequence.Result) {
	raw, ok := payload["steps"].([]any)
	if !ok || len(raw) == 0 {
		return nil, sequence.Failure(errMsg)
	}

	steps := make([]map[string]any, 0, len(raw))
	for i, elem := range raw {
		step, ok := elem.(map[string]any)
		if !ok {
			return nil, sequence.Failure(fmt.Sprintf("step %d is not a command payload mapping", i))
		}
		steps = append(steps, step)
	}
	return steps, nil
}
