// Package sequence executes ordered step lists with template resolution,
// conditional branching and per-step failure policy.
package sequence

// Result is the structured outcome of one executed step. It is an open
// key-value record; the engine only interprets "success" and "error".
type Result map[string]any

// Success reports whether the result's success flag is set.
func (r Result) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// ErrorMessage returns the result's error string, if any.
func (r Result) ErrorMessage() string {
	msg, _ := r["error"].(string)
	return msg
}

// Failure builds a failed result with the given error message.
func Failure(msg string) Result {
	return Result{"success": false, "error": msg}
}

// Context accumulates named step results over one run. It is
// single-writer and append-only; keys are step names.
type Context map[string]Result

// LogEntry is one item of a run's ordered output log. Action entries
// carry the step result plus "_step" and "_name"; condition entries
// carry "_type", "condition", "condition_met" and "branch_taken".
type LogEntry map[string]any

// RunResult is the aggregate outcome of executing a step list.
type RunResult struct {
	Success       bool       `json:"success"`
	StepsRun      int        `json:"steps_run,omitempty"`
	StoppedAtStep *int       `json:"stopped_at_step,omitempty"`
	Error         string     `json:"error,omitempty"`
	Results       []LogEntry `json:"results"`
	Routine       string     `json:"routine,omitempty"`
}
