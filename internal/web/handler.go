package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskdash/internal/client"
	"github.com/phrazzld/taskdash/internal/dashboard"
	"github.com/phrazzld/taskdash/internal/platform/logger"
	"github.com/phrazzld/taskdash/internal/push"
	"github.com/phrazzld/taskdash/internal/redact"
	"github.com/phrazzld/taskdash/internal/task"
)

// maxListLimit caps ?limit= on the task listing.
const maxListLimit = 500

// Dashboard is the view of the controller the handlers need.
type Dashboard interface {
	Tasks(limit int) []task.Task
	LookupTask(ctx context.Context, id string) (task.Task, error)
	Stats() task.Stats
	BackendStats(ctx context.Context) (task.BackendStats, error)
	BackendHealth(ctx context.Context) error
	PushStatus() push.Status
	SubmitTask(ctx context.Context, req task.SubmitRequest) (task.Record, error)
	CancelTask(ctx context.Context, id string) error
}

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Tasks []task.Task `json:"tasks"`
	Count int         `json:"count"`
	Known int         `json:"known"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Backend       string `json:"backend"`
	PushConnected bool   `json:"push_connected"`
}

// Handler serves the status surface.
type Handler struct {
	dashboard Dashboard
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a Handler backed by d.
func NewHandler(d Dashboard, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: d,
		validator: validator.New(),
		logger:    logger.With("component", "web_handler"),
	}
}

// Health reports that the surface is up, whether the backend answers its
// own health check and whether the push channel is open. An unreachable
// backend degrades the status but still answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Backend:       "ok",
		PushConnected: h.dashboard.PushStatus().Connected,
	}
	if err := h.dashboard.BackendHealth(r.Context()); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Warn("backend health check failed",
			"error", redact.Error(err))
		resp.Status = "degraded"
		resp.Backend = "unreachable"
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// ListTasks returns the display view, newest first.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			RespondWithError(w, r, http.StatusBadRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", maxListLimit))
			return
		}
		limit = n
	}

	tasks := h.dashboard.Tasks(limit)
	if tasks == nil {
		tasks = []task.Task{}
	}
	RespondWithJSON(w, http.StatusOK, TaskListResponse{
		Tasks: tasks,
		Count: len(tasks),
		Known: h.dashboard.Stats().Total,
	})
}

// GetTask returns one task, asking the backend when the local view does
// not know the id.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.dashboard.LookupTask(r.Context(), id)
	if err != nil {
		h.respondWithBackendError(w, r, "lookup", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, t)
}

// Stats returns counts over every known task.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.dashboard.Stats())
}

// BackendStats returns the backend's own per-status counts.
func (h *Handler) BackendStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.BackendStats(r.Context())
	if err != nil {
		h.respondWithBackendError(w, r, "stats", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}

// Connection returns the push channel state.
func (h *Handler) Connection(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.dashboard.PushStatus())
}

// SubmitTask validates the body and forwards it to the backend.
func (h *Handler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req task.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithErrorAndLog(w, r, h.logger, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithErrorAndLog(w, r, h.logger, http.StatusBadRequest, "Invalid request: "+validationMessage(err), err)
		return
	}

	rec, err := h.dashboard.SubmitTask(r.Context(), req)
	if err != nil {
		h.respondWithBackendError(w, r, "submit", err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, rec)
}

// CancelTask forwards a cancel request. The response does not wait for the
// cancellation to take effect.
func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.dashboard.CancelTask(r.Context(), id); err != nil {
		h.respondWithBackendError(w, r, "cancel", err)
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "cancel requested",
		"task_id": id,
	})
}

func (h *Handler) respondWithBackendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var reqErr *client.RequestError
	switch {
	case errors.Is(err, dashboard.ErrInvalidRequest):
		RespondWithErrorAndLog(w, r, h.logger, http.StatusBadRequest, "Invalid request", err)
	case errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound:
		RespondWithErrorAndLog(w, r, h.logger, http.StatusNotFound, "Task not found", err)
	case errors.As(err, &reqErr) && reqErr.StatusCode < http.StatusInternalServerError:
		msg := fmt.Sprintf("Backend rejected %s (http %d)", op, reqErr.StatusCode)
		if reqErr.Body != "" {
			msg += ": " + reqErr.Body
		}
		RespondWithErrorAndLog(w, r, h.logger, http.StatusUnprocessableEntity, msg, err)
	default:
		RespondWithErrorAndLog(w, r, h.logger, http.StatusBadGateway, "Backend unavailable", err)
	}
}

// validationMessage names the first failing field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return "validation failed"
}
