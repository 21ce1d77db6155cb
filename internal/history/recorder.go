package history

import (
	"context"
	"encoding/json"

	"github.com/openclaw/gpioskill/internal/logging"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/rs/zerolog"
)

// RunStartedPayload is the payload for run.started events.
type RunStartedPayload struct {
	Routine   string `json:"routine,omitempty"`
	StepCount int    `json:"step_count"`
}

// RunFinishedPayload is the payload for run.finished events.
type RunFinishedPayload struct {
	Routine       string `json:"routine,omitempty"`
	Success       bool   `json:"success"`
	StepsRun      int    `json:"steps_run"`
	StoppedAtStep *int   `json:"stopped_at_step,omitempty"`
	Error         string `json:"error,omitempty"`
}

// StepCompletedPayload is the payload for step.completed events.
type StepCompletedPayload struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RoutineChangedPayload is the payload for routine.saved/deleted events.
type RoutineChangedPayload struct {
	Steps int `json:"steps,omitempty"`
}

// Recorder writes run history events, swallowing failures with a warn
// log. A nil Recorder is valid and records nothing.
type Recorder struct {
	db     *DB
	logger zerolog.Logger
}

// NewRecorder wraps a history DB. db may be nil to disable recording.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{
		db:     db,
		logger: logging.Component("history"),
	}
}

// RunStarted records the beginning of a run.
func (r *Recorder) RunStarted(ctx context.Context, runID, routineName string, stepCount int) {
	r.append(ctx, EventTypeRunStarted, EntityTypeRun, runID, RunStartedPayload{
		Routine:   routineName,
		StepCount: stepCount,
	})
}

// RunFinished records a run's aggregate outcome, including one
// step.completed event per action-step log entry.
func (r *Recorder) RunFinished(ctx context.Context, runID string, run *sequence.RunResult) {
	if r == nil || r.db == nil || run == nil {
		return
	}

	for _, entry := range run.Results {
		if t, _ := entry["_type"].(string); t == "condition" {
			continue
		}
		index, _ := entry["_step"].(int)
		name, _ := entry["_name"].(string)
		success, _ := entry["success"].(bool)
		errMsg, _ := entry["error"].(string)
		r.append(ctx, EventTypeStepCompleted, EntityTypeRun, runID, StepCompletedPayload{
			Index:   index,
			Name:    name,
			Success: success,
			Error:   errMsg,
		})
	}

	r.append(ctx, EventTypeRunFinished, EntityTypeRun, runID, RunFinishedPayload{
		Routine:       run.Routine,
		Success:       run.Success,
		StepsRun:      len(run.Results),
		StoppedAtStep: run.StoppedAtStep,
		Error:         run.Error,
	})
}

// RoutineSaved records a routine save or overwrite.
func (r *Recorder) RoutineSaved(ctx context.Context, name string, steps int) {
	r.append(ctx, EventTypeRoutineSaved, EntityTypeRoutine, name, RoutineChangedPayload{Steps: steps})
}

// RoutineDeleted records a routine deletion.
func (r *Recorder) RoutineDeleted(ctx context.Context, name string) {
	r.append(ctx, EventTypeRoutineDeleted, EntityTypeRoutine, name, nil)
}

func (r *Recorder) append(ctx context.Context, eventType EventType, entityType EntityType, entityID string, payload any) {
	if r == nil || r.db == nil {
		return
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			r.logger.Warn().Err(err).Str("type", string(eventType)).Msg("marshal history payload failed")
			return
		}
		raw = data
	}

	err := r.db.Append(ctx, &Event{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("type", string(eventType)).Msg("record history event failed")
	}
}
