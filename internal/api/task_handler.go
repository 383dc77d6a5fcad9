package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/medivue-api/internal/api/shared"
	"github.com/phrazzld/medivue-api/internal/domain"
	"github.com/phrazzld/medivue-api/internal/platform/logger"
	"github.com/phrazzld/medivue-api/internal/service"
)

// dueDateLayout is the wire format for due dates in responses.
const dueDateLayout = "2006-01-02"

// TagResponse represents the response data for a tag
type TagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskResponse represents the response data for a task
type TaskResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Priority    int           `json:"priority"`
	DueDate     string        `json:"due_date"`
	Completed   bool          `json:"completed"`
	Tags        []TagResponse `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// DeleteTaskResponse confirms a successful delete.
type DeleteTaskResponse struct {
	Detail string `json:"detail"`
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var params service.CreateTaskParams
	if err := shared.DecodeJSON(r, &params); err != nil {
		log.Warn("failed to decode create task request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), params)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /tasks requests.
// Supported query parameters: skip, limit, completed, priority, tags
// (comma-separated names; a task must carry every one to match).
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	params, fields := parseListParams(r)
	if len(fields) > 0 {
		log.Debug("invalid list query parameters", slog.Int("field_errors", len(fields)))
		shared.RespondWithValidationError(w, r, fields)
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), params)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	responses := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = taskToResponse(task)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetTask handles GET /tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathTaskID(w, r, log)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id} requests.
// Only fields present in the body change; a present tags field replaces the
// task's entire tag set.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathTaskID(w, r, log)
	if !ok {
		return
	}

	var params service.UpdateTaskParams
	if err := shared.DecodeJSON(r, &params); err != nil {
		log.Warn("failed to decode update task request",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), id, params)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	log.Debug("task updated", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathTaskID(w, r, log)
	if !ok {
		return
	}

	if _, err := h.taskService.DeleteTask(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	log.Debug("task deleted", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteTaskResponse{
		Detail: "Task deleted successfully",
	})
}

// pathTaskID extracts and parses the {id} path parameter, writing the error
// response itself when the parameter is missing or malformed.
func (h *TaskHandler) pathTaskID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		log.Warn("task ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid task ID format", slog.String("task_id", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return uuid.Nil, false
	}

	return id, true
}

// respondServiceError translates a service-layer error into the right HTTP
// response shape: structured 422 for validation failures, mapped status and
// sanitized message for everything else.
func (h *TaskHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		shared.RespondWithValidationError(w, r, verr.Fields)
		return
	}

	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}

// parseListParams reads the list query parameters, accumulating a message
// per unparsable value instead of stopping at the first.
func parseListParams(r *http.Request) (service.ListTasksParams, map[string]string) {
	query := r.URL.Query()
	fields := map[string]string{}

	params := service.ListTasksParams{
		Tags: query.Get("tags"),
	}

	if raw := query.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			fields["skip"] = "skip must be an integer"
		} else {
			params.Skip = skip
		}
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			fields["limit"] = "limit must be an integer"
		} else {
			params.Limit = limit
		}
	}

	if raw := query.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			fields["completed"] = "completed must be a boolean"
		} else {
			params.Completed = &completed
		}
	}

	if raw := query.Get("priority"); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil {
			fields["priority"] = "priority must be an integer"
		} else {
			params.Priority = &priority
		}
	}

	if len(fields) > 0 {
		return service.ListTasksParams{}, fields
	}
	return params, nil
}

// taskToResponse transforms a domain task into its response shape.
func taskToResponse(task *domain.Task) TaskResponse {
	tags := make([]TagResponse, len(task.Tags))
	for i, tag := range task.Tags {
		tags[i] = TagResponse{
			ID:   tag.ID.String(),
			Name: tag.Name,
		}
	}

	return TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		DueDate:     task.DueDate.Format(dueDateLayout),
		Completed:   task.Completed,
		Tags:        tags,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
