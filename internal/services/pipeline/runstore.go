package pipeline

import (
	"sync"
	"time"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// MemoryRunStore is an in-process run registry. Runs are never evicted
// within the process lifetime. Terminal states are absorbing: once a run is
// completed or failed, further mutation is ignored.
type MemoryRunStore struct {
	mu   sync.Mutex
	runs map[string]*models.RunState
}

var _ interfaces.RunStore = (*MemoryRunStore)(nil)

// NewMemoryRunStore creates an empty run registry.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs: make(map[string]*models.RunState),
	}
}

// Create registers a new run in the queued state.
func (s *MemoryRunStore) Create() (*models.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	run := &models.RunState{
		RunID:     common.NewRunID(),
		Status:    models.RunStatusQueued,
		Logs:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.runs[run.RunID] = run

	return snapshot(run), nil
}

// Get returns a snapshot of the run so callers never observe concurrent
// log appends mid-read.
func (s *MemoryRunStore) Get(runID string) (*models.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, interfaces.ErrRunNotFound
	}
	return snapshot(run), nil
}

// AppendLog appends a progress line. Unknown ids and terminal runs are
// ignored.
func (s *MemoryRunStore) AppendLog(runID, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok || run.Status.IsTerminal() {
		return
	}
	run.Logs = append(run.Logs, line)
	run.UpdatedAt = time.Now()
}

// SetRunning transitions a queued run to running.
func (s *MemoryRunStore) SetRunning(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return interfaces.ErrRunNotFound
	}
	if run.Status.IsTerminal() {
		return nil
	}
	run.Status = models.RunStatusRunning
	run.UpdatedAt = time.Now()
	return nil
}

// Complete marks the run completed with its result. No-op on terminal runs.
func (s *MemoryRunStore) Complete(runID string, result *models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return interfaces.ErrRunNotFound
	}
	if run.Status.IsTerminal() {
		return nil
	}
	run.Status = models.RunStatusCompleted
	run.Result = result
	run.Error = ""
	run.UpdatedAt = time.Now()
	return nil
}

// Fail marks the run failed with the error message captured verbatim.
// No-op on terminal runs.
func (s *MemoryRunStore) Fail(runID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return interfaces.ErrRunNotFound
	}
	if run.Status.IsTerminal() {
		return nil
	}
	run.Status = models.RunStatusFailed
	run.Error = errMsg
	run.Result = nil
	run.UpdatedAt = time.Now()
	return nil
}

func snapshot(run *models.RunState) *models.RunState {
	clone := *run
	clone.Logs = append([]string(nil), run.Logs...)
	return &clone
}
