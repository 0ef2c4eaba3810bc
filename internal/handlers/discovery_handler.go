package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// RunStarter starts a pipeline run and returns its id.
type RunStarter interface {
	StartRun(req models.RunRequest) (string, error)
}

// DiscoveryHandler exposes the run lifecycle: start a run, poll its status.
type DiscoveryHandler struct {
	orchestrator RunStarter
	runs         interfaces.RunStore
	validate     *validator.Validate
	logger       arbor.ILogger
}

// NewDiscoveryHandler creates a discovery run handler.
func NewDiscoveryHandler(orchestrator RunStarter, runs interfaces.RunStore, logger arbor.ILogger) *DiscoveryHandler {
	return &DiscoveryHandler{
		orchestrator: orchestrator,
		runs:         runs,
		validate:     validator.New(),
		logger:       logger,
	}
}

// RunHandler starts a discovery run.
// POST /api/discovery/run
func (h *DiscoveryHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.RunRequest
	// Defaults applied before decode so absent fields keep them.
	req.AllowExternalBrands = true

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	runID, err := h.orchestrator.StartRun(req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to start run")
		WriteError(w, http.StatusInternalServerError, "Failed to start run")
		return
	}

	h.logger.Info().Str("run_id", runID).Str("category", req.Category).Msg("Run started")
	WriteJSON(w, http.StatusOK, map[string]string{"run_id": runID})
}

// StatusHandler returns the current state of a run.
// GET /api/discovery/run/{id}
func (h *DiscoveryHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/discovery/run/")
	runID = strings.Trim(runID, "/")
	if runID == "" {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	state, err := h.runs.Get(runID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}

	WriteJSON(w, http.StatusOK, state)
}
