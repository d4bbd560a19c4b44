// Package api provides the HTTP API for task lists, tasks and occurrences.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
)

// CorrelationIDHeader carries the caller's correlation id.
const CorrelationIDHeader = "X-Correlation-ID"

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *TaskHandler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server. health may be nil.
func NewServer(cfg ServerConfig, handler *TaskHandler, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: handler,
		health:  health,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/lists", s.handler.ListTaskLists)
	s.mux.HandleFunc("POST /api/v1/lists", s.handler.CreateTaskList)
	s.mux.HandleFunc("PATCH /api/v1/lists/{listID}", s.handler.UpdateTaskList)
	s.mux.HandleFunc("POST /api/v1/lists/{listID}/members", s.handler.AddListMember)
	s.mux.HandleFunc("DELETE /api/v1/lists/{listID}/members/{userID}", s.handler.RemoveListMember)
	s.mux.HandleFunc("GET /api/v1/lists/{listID}/calendar.ics", s.handler.ExportCalendar)

	s.mux.HandleFunc("POST /api/v1/tasks", s.handler.CreateTask)
	s.mux.HandleFunc("GET /api/v1/tasks/{taskID}", s.handler.GetTask)
	s.mux.HandleFunc("PATCH /api/v1/tasks/{taskID}", s.handler.UpdateTask)
	s.mux.HandleFunc("PUT /api/v1/tasks/{taskID}/recurrence", s.handler.UpdateRecurrence)

	s.mux.HandleFunc("GET /api/v1/occurrences", s.handler.ListOccurrences)
	s.mux.HandleFunc("POST /api/v1/occurrences/{occurrenceID}/toggle", s.handler.ToggleOccurrence)

	s.mux.HandleFunc("POST /api/v1/rules/preview", s.handler.PreviewRule)
}

// Handler returns the routed handler wrapped in the request middleware.
// MountCalDAV serves h for every path under prefix, which must end in a
// slash, and points /.well-known/caldav at it.
func (s *Server) MountCalDAV(prefix string, h http.Handler) {
	s.mux.Handle(prefix, h)
	s.mux.Handle("/.well-known/caldav", http.RedirectHandler(prefix, http.StatusMovedPermanently))
}

func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

// withRequestContext tags the request with correlation and request ids and
// logs its duration.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get(CorrelationIDHeader))
		w.Header().Set(CorrelationIDHeader, observability.CorrelationIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := observability.StartTimer(s.logger, "http.request")
		next.ServeHTTP(rec, r.WithContext(ctx))

		var err error
		if rec.status >= http.StatusInternalServerError {
			err = fmt.Errorf("status %d", rec.status)
		}
		timer.Stop(err, "method", r.Method, "path", r.URL.Path, "status", rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.Check(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// writeAPIError writes e as the response body.
func writeAPIError(w http.ResponseWriter, e *APIError) {
	writeJSON(w, e.Status, e)
}

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common API errors
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Resource not found",
	}
	ErrForbidden = &APIError{
		Status:  http.StatusForbidden,
		Code:    "forbidden",
		Message: "Not a member of this list",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)

// toAPIError maps a domain error to its HTTP shape.
func toAPIError(err error) *APIError {
	switch {
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, task.ErrOccurrenceNotFound),
		errors.Is(err, tasklist.ErrTaskListNotFound):
		return &APIError{Status: http.StatusNotFound, Code: ErrNotFound.Code, Message: err.Error()}
	case errors.Is(err, tasklist.ErrNotMember):
		return ErrForbidden
	case errors.Is(err, tasklist.ErrNotPermitted):
		return &APIError{Status: http.StatusForbidden, Code: ErrForbidden.Code, Message: err.Error()}
	case errors.Is(err, task.ErrAlreadyCompleted),
		errors.Is(err, task.ErrNotCompleted),
		errors.Is(err, tasklist.ErrAlreadyMember),
		errors.Is(err, tasklist.ErrLastOwner):
		return &APIError{Status: http.StatusConflict, Code: "conflict", Message: err.Error()}
	case errors.Is(err, recurrence.ErrInvalidRule),
		errors.Is(err, recurrence.ErrUnproducibleRule),
		errors.Is(err, task.ErrEmptyTitle),
		errors.Is(err, task.ErrMissingDueDate),
		errors.Is(err, task.ErrDueDateConflict),
		errors.Is(err, tasklist.ErrEmptyName),
		errors.Is(err, tasklist.ErrInvalidRole):
		return &APIError{Status: http.StatusBadRequest, Code: ErrBadRequest.Code, Message: err.Error()}
	default:
		return ErrInternalServer
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

// parseDate parses YYYY-MM-DD. Empty yields nil.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	d := recurrence.DateOf(t)
	return &d, nil
}

func parseBoolParam(r *http.Request, name string, defaultValue bool) bool {
	switch r.URL.Query().Get(name) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return defaultValue
	}
}
