package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/store"
)

// TaskHandler handles task requests. Every operation is scoped to the
// authenticated user; another user's task is reported as not found.
type TaskHandler struct {
	tasks  service.TaskService
	log    logger.Component
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		log:    logger.NewComponent(log, "task_handler"),
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	completed := req.Completed != nil && *req.Completed
	task, err := h.tasks.CreateTask(r.Context(), userID, req.Description, completed)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /tasks?completed=&sortBy=&limit=&skip=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query, err := parseTaskQuery(userID, r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	h.log.From(r.Context()).Debug("listed tasks",
		slog.Int("count", len(tasks)),
		slog.Int("limit", query.Limit),
		slog.Int("skip", query.Skip))
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.userAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id}. Keys outside the allow-list reject
// the whole request before anything is written.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.userAndTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), userID, taskID, domain.TaskUpdate{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.userAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.DeleteTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// userAndTaskID extracts the caller and the {id} path parameter, writing
// the error response itself when either is unusable.
func (h *TaskHandler) userAndTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := getPathUUID(r, "id", store.ErrTaskNotFound)
	if err != nil {
		h.log.From(r.Context()).Debug("malformed task id")
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, taskID, true
}
