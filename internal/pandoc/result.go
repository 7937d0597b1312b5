package pandoc

import "time"

// State tracks a build through its lifecycle. A build moves from NotStarted
// to Running when the conversion process is spawned, and ends in exactly one
// of the terminal states. There is no cancelled state: once spawned, the
// process runs to completion or failure.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Terminal reports whether the state is an end state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Result is the outcome of one build operation.
type Result struct {
	BuildID  string        `json:"build_id"`
	Format   string        `json:"format"`
	State    State         `json:"state"`
	Output   string        `json:"output,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	// Err carries the spawn error when the tool never started; conversion
	// failures are represented by State and ExitCode alone.
	Err error `json:"-"`
}
