package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/storage"
)

// StatusResponse is the badge-facing projection of a status record.
type StatusResponse struct {
	Exists           bool `json:"exists"`
	IsRunning        bool `json:"isRunning"`
	IsQueued         bool `json:"isQueued"`
	MetaInconsistent bool `json:"metaInconsistent"`
	HasViolation     bool `json:"hasViolation"`
}

// QueryHandler serves status, result and dispatcher introspection queries.
type QueryHandler struct {
	dispatcher core.Dispatcher
	store      storage.Store
	logger     *slog.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(dispatcher core.Dispatcher, store storage.Store, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{dispatcher: dispatcher, store: store, logger: logger}
}

// Status reports the flags for one commit. A missing record is not an error:
// the response is exists=false with all flags cleared.
func (q *QueryHandler) Status(w http.ResponseWriter, r *http.Request) {
	projectID, commit := pathKey(r)

	var resp StatusResponse
	rec, err := q.store.Get(r.Context(), projectID, commit)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// zero response
	case err != nil:
		q.logger.Error("status lookup failed", "project", projectID, "commit", commit, "error", err)
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
		return
	default:
		resp = StatusResponse{
			Exists:           true,
			IsRunning:        rec.IsRunning,
			IsQueued:         rec.IsQueued,
			MetaInconsistent: rec.MetaInconsistent,
			HasViolation:     rec.HasViolation,
		}
	}

	writeJSON(w, q.logger, resp)
}

// Result returns the full stored record for one commit, or 404.
func (q *QueryHandler) Result(w http.ResponseWriter, r *http.Request) {
	projectID, commit := pathKey(r)

	rec, err := q.store.Get(r.Context(), projectID, commit)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		q.logger.Error("result lookup failed", "project", projectID, "commit", commit, "error", err)
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, q.logger, rec)
}

// Aggregate reports the dispatcher's pending queue, running set and bounded
// attempt history.
func (q *QueryHandler) Aggregate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, q.logger, q.dispatcher.Snapshot())
}

func pathKey(r *http.Request) (projectID, commit string) {
	projectID = core.JoinProjectID(chi.URLParam(r, "owner"), chi.URLParam(r, "project"))
	commit = chi.URLParam(r, "commitHash")
	return projectID, commit
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
