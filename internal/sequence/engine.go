package sequence

import (
	"context"
	"fmt"

	"github.com/openclaw/gpioskill/internal/logging"
	"github.com/rs/zerolog"
)

// Executor performs one resolved step payload and reports its outcome.
// Implementations must return failures as results, never panic.
type Executor interface {
	Execute(ctx context.Context, payload map[string]any) Result
}

// engine-only fields stripped from payloads before execution.
var reservedFields = map[string]bool{
	"as":       true,
	"on_error": true,
	"if":       true,
	"then":     true,
	"else":     true,
}

// Controller drives a step list strictly in order, one step at a time.
type Controller struct {
	exec   Executor
	logger zerolog.Logger
}

// NewController creates a controller over the given executor.
func NewController(exec Executor) *Controller {
	return &Controller{
		exec:   exec,
		logger: logging.Component("sequence"),
	}
}

// Run executes the steps against a fresh context. A step failing
// without "on_error": "continue" aborts the run; every step attempted
// up to and including the aborting one stays in the result log.
func (c *Controller) Run(ctx context.Context, steps []map[string]any) *RunResult {
	runCtx := make(Context, len(steps))
	run := &RunResult{Success: true, Results: make([]LogEntry, 0, len(steps))}

	for i, raw := range steps {
		step := raw

		if condValue, conditional := raw["if"]; conditional {
			condText := conditionText(condValue)
			met := Evaluate(condText, runCtx)

			branchKey := "else"
			if met {
				branchKey = "then"
			}
			branch, _ := raw[branchKey].(map[string]any)

			taken := branchKey
			if branch == nil {
				taken = "none"
			}
			run.Results = append(run.Results, LogEntry{
				"_step":         i,
				"_type":         "condition",
				"condition":     condText,
				"condition_met": met,
				"branch_taken":  taken,
			})
			c.logger.Debug().
				Int("step", i).
				Str("condition", condText).
				Bool("met", met).
				Str("branch", taken).
				Msg("condition evaluated")

			if branch == nil {
				continue
			}
			step = branch
		}

		// Control fields come from the unresolved mapping; only the
		// remaining payload is subject to template substitution.
		name, _ := step["as"].(string)
		if name == "" {
			name = fmt.Sprintf("step_%d", i)
		}
		onError, _ := step["on_error"].(string)

		payload := make(map[string]any, len(step))
		for k, v := range step {
			if !reservedFields[k] {
				payload[k] = v
			}
		}
		resolved, _ := Resolve(payload, runCtx).(map[string]any)

		result := c.exec.Execute(ctx, resolved)
		if result == nil {
			result = Failure("executor returned no result")
		}

		runCtx[name] = result

		entry := make(LogEntry, len(result)+2)
		for k, v := range result {
			entry[k] = v
		}
		entry["_step"] = i
		entry["_name"] = name
		run.Results = append(run.Results, entry)

		if !result.Success() && onError != "continue" {
			stopped := i
			run.Success = false
			run.StoppedAtStep = &stopped
			run.Error = fmt.Sprintf("Step %d ('%s') failed: %s", i, name, result.ErrorMessage())
			c.logger.Warn().
				Int("step", i).
				Str("name", name).
				Str("error", result.ErrorMessage()).
				Msg("sequence aborted")
			return run
		}
	}

	run.StepsRun = len(run.Results)
	return run
}

func conditionText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return stringify(v)
}
