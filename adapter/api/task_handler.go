package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// TaskHandler handles task list, task and occurrence requests.
type TaskHandler struct {
	createTaskList    *commands.CreateTaskListHandler
	updateTaskList    *commands.UpdateTaskListHandler
	addListMember     *commands.AddListMemberHandler
	removeListMember  *commands.RemoveListMemberHandler
	createTask        *commands.CreateTaskHandler
	updateTask        *commands.UpdateTaskHandler
	updateRecurrence  *commands.UpdateRecurrenceHandler
	toggleOccurrence  *commands.ToggleOccurrenceHandler
	listTaskLists     *queries.ListTaskListsHandler
	getTask           *queries.GetTaskHandler
	listOccurrences   *queries.ListOccurrencesHandler
	previewRecurrence *queries.PreviewRecurrenceHandler
	exportCalendar    *queries.ExportCalendarHandler
	userID            uuid.UUID
	logger            *slog.Logger
}

// TaskHandlerConfig holds dependencies for the task handler.
type TaskHandlerConfig struct {
	CreateTaskList    *commands.CreateTaskListHandler
	UpdateTaskList    *commands.UpdateTaskListHandler
	AddListMember     *commands.AddListMemberHandler
	RemoveListMember  *commands.RemoveListMemberHandler
	CreateTask        *commands.CreateTaskHandler
	UpdateTask        *commands.UpdateTaskHandler
	UpdateRecurrence  *commands.UpdateRecurrenceHandler
	ToggleOccurrence  *commands.ToggleOccurrenceHandler
	ListTaskLists     *queries.ListTaskListsHandler
	GetTask           *queries.GetTaskHandler
	ListOccurrences   *queries.ListOccurrencesHandler
	PreviewRecurrence *queries.PreviewRecurrenceHandler
	ExportCalendar    *queries.ExportCalendarHandler
	// UserID is the acting user for every request.
	UserID uuid.UUID
	Logger *slog.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(cfg TaskHandlerConfig) *TaskHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TaskHandler{
		createTaskList:    cfg.CreateTaskList,
		updateTaskList:    cfg.UpdateTaskList,
		addListMember:     cfg.AddListMember,
		removeListMember:  cfg.RemoveListMember,
		createTask:        cfg.CreateTask,
		updateTask:        cfg.UpdateTask,
		updateRecurrence:  cfg.UpdateRecurrence,
		toggleOccurrence:  cfg.ToggleOccurrence,
		listTaskLists:     cfg.ListTaskLists,
		getTask:           cfg.GetTask,
		listOccurrences:   cfg.ListOccurrences,
		previewRecurrence: cfg.PreviewRecurrence,
		exportCalendar:    cfg.ExportCalendar,
		userID:            cfg.UserID,
		logger:            cfg.Logger,
	}
}

// CreateTaskListRequest is the body of POST /api/v1/lists.
type CreateTaskListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateTaskListRequest is the body of PATCH /api/v1/lists/{listID}.
// Omitted fields are left unchanged.
type UpdateTaskListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AddListMemberRequest is the body of POST /api/v1/lists/{listID}/members.
type AddListMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// CreateTaskRequest is the body of POST /api/v1/tasks.
type CreateTaskRequest struct {
	ListID      uuid.UUID            `json:"list_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	DueDate     string               `json:"due_date"`
	Recurrence  *recurrence.RuleSpec `json:"recurrence"`
}

// UpdateTaskRequest is the body of PATCH /api/v1/tasks/{taskID}.
// Omitted fields are left unchanged.
type UpdateTaskRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	DueDate      *string `json:"due_date"`
	ClearDueDate bool    `json:"clear_due_date"`
}

// UpdateRecurrenceRequest is the body of PUT /api/v1/tasks/{taskID}/recurrence.
// A null recurrence makes the task one-off.
type UpdateRecurrenceRequest struct {
	Recurrence *recurrence.RuleSpec `json:"recurrence"`
}

// PreviewRuleRequest is the body of POST /api/v1/rules/preview.
type PreviewRuleRequest struct {
	Recurrence recurrence.RuleSpec `json:"recurrence"`
	Anchor     string              `json:"anchor"`
	Count      int                 `json:"count"`
}

// ListTaskLists handles GET /api/v1/lists
func (h *TaskHandler) ListTaskLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.listTaskLists.Handle(r.Context(), queries.ListTaskListsQuery{UserID: h.userID})
	if err != nil {
		h.fail(w, "failed to list task lists", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// CreateTaskList handles POST /api/v1/lists
func (h *TaskHandler) CreateTaskList(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskListRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.createTaskList.Handle(r.Context(), commands.CreateTaskListCommand{
		UserID:      h.userID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, "failed to create task list", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": result.ListID})
}

// UpdateTaskList handles PATCH /api/v1/lists/{listID}
func (h *TaskHandler) UpdateTaskList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUIDParam(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}
	var req UpdateTaskListRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err = h.updateTaskList.Handle(r.Context(), commands.UpdateTaskListCommand{
		UserID:      h.userID,
		ListID:      listID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, "failed to update task list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": listID})
}

// AddListMember handles POST /api/v1/lists/{listID}/members
func (h *TaskHandler) AddListMember(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUIDParam(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}
	var req AddListMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	role := tasklist.Role(req.Role)
	if role == "" {
		role = tasklist.RoleMember
	}
	err = h.addListMember.Handle(r.Context(), commands.AddListMemberCommand{
		UserID:   h.userID,
		ListID:   listID,
		MemberID: req.UserID,
		Role:     role,
	})
	if err != nil {
		h.fail(w, "failed to add member", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": req.UserID, "role": role})
}

// RemoveListMember handles DELETE /api/v1/lists/{listID}/members/{userID}
func (h *TaskHandler) RemoveListMember(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUIDParam(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}
	memberID, err := parseUUIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.removeListMember.Handle(r.Context(), commands.RemoveListMemberCommand{
		UserID:   h.userID,
		ListID:   listID,
		MemberID: memberID,
	})
	if err != nil {
		h.fail(w, "failed to remove member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTask handles POST /api/v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.createTask.Handle(r.Context(), commands.CreateTaskCommand{
		UserID:      h.userID,
		ListID:      req.ListID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		h.fail(w, "failed to create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           result.TaskID,
		"materialized": result.Materialized,
		"unproducible": result.Unproducible,
	})
}

// GetTask handles GET /api/v1/tasks/{taskID}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseUUIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	dto, err := h.getTask.Handle(r.Context(), queries.GetTaskQuery{
		TaskID:   taskID,
		Upcoming: parseIntParam(r, "upcoming", 0),
	})
	if err != nil {
		h.fail(w, "failed to get task", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpdateTask handles PATCH /api/v1/tasks/{taskID}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseUUIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}
	var req UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := commands.UpdateTaskCommand{
		UserID:       h.userID,
		TaskID:       taskID,
		Title:        req.Title,
		Description:  req.Description,
		ClearDueDate: req.ClearDueDate,
	}
	if req.DueDate != nil {
		if cmd.DueDate, err = parseDate(*req.DueDate); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.updateTask.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(w, "failed to update task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           result.TaskID,
		"due_changed":  result.DueChanged,
		"removed":      result.Removed,
		"materialized": result.Materialized,
	})
}

// UpdateRecurrence handles PUT /api/v1/tasks/{taskID}/recurrence
func (h *TaskHandler) UpdateRecurrence(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseUUIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}
	var req UpdateRecurrenceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.updateRecurrence.Handle(r.Context(), commands.UpdateRecurrenceCommand{
		UserID:     h.userID,
		TaskID:     taskID,
		Recurrence: req.Recurrence,
	})
	if err != nil {
		h.fail(w, "failed to update recurrence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"description":  result.Description,
		"removed":      result.Removed,
		"materialized": result.Materialized,
	})
}

// ListOccurrences handles GET /api/v1/occurrences
func (h *TaskHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	query := queries.ListOccurrencesQuery{
		IncludeCompleted: parseBoolParam(r, "include_completed", false),
	}
	if list := r.URL.Query().Get("list"); list != "" {
		id, err := uuid.Parse(list)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid list ID")
			return
		}
		query.ListID = &id
	}
	if taskParam := r.URL.Query().Get("task"); taskParam != "" {
		id, err := uuid.Parse(taskParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid task ID")
			return
		}
		query.TaskID = &id
	}
	today, err := parseDate(r.URL.Query().Get("today"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if today != nil {
		query.Today = *today
	}

	buckets, err := h.listOccurrences.Handle(r.Context(), query)
	if err != nil {
		h.fail(w, "failed to list occurrences", err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// ToggleOccurrence handles POST /api/v1/occurrences/{occurrenceID}/toggle
func (h *TaskHandler) ToggleOccurrence(w http.ResponseWriter, r *http.Request) {
	occurrenceID, err := parseUUIDParam(r, "occurrenceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid occurrence ID")
		return
	}

	result, err := h.toggleOccurrence.Handle(r.Context(), commands.ToggleOccurrenceCommand{
		UserID:       h.userID,
		OccurrenceID: occurrenceID,
	})
	if err != nil {
		h.fail(w, "failed to toggle occurrence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           result.OccurrenceID,
		"task_id":      result.TaskID,
		"due_date":     result.DueDate.Format(time.DateOnly),
		"completed":    result.Completed,
		"completed_at": result.CompletedAt,
	})
}

// PreviewRule handles POST /api/v1/rules/preview
func (h *TaskHandler) PreviewRule(w http.ResponseWriter, r *http.Request) {
	var req PreviewRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	anchor, err := parseDate(req.Anchor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := queries.PreviewRecurrenceQuery{Recurrence: req.Recurrence, Count: req.Count}
	if anchor != nil {
		query.Anchor = *anchor
	}
	preview, err := h.previewRecurrence.Handle(r.Context(), query)
	if err != nil {
		h.fail(w, "failed to preview rule", err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ExportCalendar handles GET /api/v1/lists/{listID}/calendar.ics
func (h *TaskHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUIDParam(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}

	var buf bytes.Buffer
	err = h.exportCalendar.Handle(r.Context(), queries.ExportCalendarQuery{ListID: listID, UserID: h.userID}, &buf)
	if err != nil {
		h.fail(w, "failed to export calendar", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", listID.String()+".ics"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write calendar", "error", err)
	}
}

// fail logs unexpected errors and writes the mapped response.
func (h *TaskHandler) fail(w http.ResponseWriter, msg string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	writeAPIError(w, apiErr)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseIntParam(r *http.Request, name string, defaultValue int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return defaultValue
	}
	return v
}
