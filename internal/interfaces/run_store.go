package interfaces

import (
	"errors"

	"github.com/ternarybob/reperio/internal/models"
)

// ErrRunNotFound is returned when a run id is unknown to the store.
var ErrRunNotFound = errors.New("run not found")

// RunStore tracks run lifecycle state. Each run exclusively mutates its own
// entry; Get returns a snapshot so polled reads of a terminal run are
// idempotent. Terminal states are absorbing: Complete/Fail on an already
// terminal run are no-ops.
type RunStore interface {
	// Create registers a new run in the queued state and returns it.
	Create() (*models.RunState, error)

	// Get returns a snapshot of the run, or ErrRunNotFound.
	Get(runID string) (*models.RunState, error)

	// AppendLog appends a progress line to the run's log. Unknown ids are
	// ignored.
	AppendLog(runID, line string)

	// SetRunning transitions the run from queued to running.
	SetRunning(runID string) error

	// Complete marks the run completed with the given result.
	Complete(runID string, result *models.RunResult) error

	// Fail marks the run failed with the given error message.
	Fail(runID string, errMsg string) error
}
