// Package handler provides the HTTP handlers for the hook's ingestion and
// query endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sevigo/constraint-warden/internal/core"
)

// HookHandler processes incoming webhook postings from the model server.
type HookHandler struct {
	dispatcher core.Dispatcher
	logger     *slog.Logger
}

// NewHookHandler creates a new ingestion handler.
func NewHookHandler(dispatcher core.Dispatcher, logger *slog.Logger) *HookHandler {
	return &HookHandler{dispatcher: dispatcher, logger: logger}
}

// Handle accepts an event posting. Ingestion is fire-and-forget at the
// transport level: the response is 200 whatever the queuing outcome, and the
// job's fate is observed only via polling.
func (h *HookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var event core.CommitEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Warn("ignoring malformed event payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Debug("hook triggered", "event", event.Event, "project", event.ProjectID())

	if jobID, ok := h.dispatcher.Submit(r.Context(), event); ok {
		h.logger.Info("verification job accepted", "job", jobID, "commit", event.Data.CommitHash)
	}

	w.WriteHeader(http.StatusOK)
}
