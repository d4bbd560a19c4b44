package observability

import (
	"log/slog"
	"time"
)

// Timer logs how long an operation took.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
}

// StartTimer starts timing operation. A nil logger only measures.
func StartTimer(logger *slog.Logger, operation string) *Timer {
	return &Timer{operation: operation, start: time.Now(), logger: logger}
}

// Stop logs the duration at debug level, or at error level when err is set.
func (t *Timer) Stop(err error, attrs ...any) time.Duration {
	duration := time.Since(t.start)
	if t.logger == nil {
		return duration
	}
	args := append([]any{"operation", t.operation, "duration_ms", duration.Milliseconds()}, attrs...)
	if err != nil {
		t.logger.Error("operation failed", append(args, "error", err)...)
	} else {
		t.logger.Debug("operation completed", args...)
	}
	return duration
}
