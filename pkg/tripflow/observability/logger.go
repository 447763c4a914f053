// Package observability provides structured logging, metrics, and tracing
// for the tripflow engine and stores.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds workflow context to a logger.
// Returns a new logger with workflow, instance_id, and step fields.
func EnrichLogger(logger *slog.Logger, workflow, instanceID, step string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("workflow", workflow),
		slog.String("instance_id", instanceID),
		slog.String("step", step),
	)
}

// LogWorkflowStart logs the start of a workflow instance.
func LogWorkflowStart(logger *slog.Logger, workflow, instanceID string) {
	if logger == nil {
		return
	}
	logger.Info("workflow instance starting",
		slog.String("workflow", workflow),
		slog.String("instance_id", instanceID),
	)
}

// LogWorkflowComplete logs successful workflow completion.
func LogWorkflowComplete(logger *slog.Logger, workflow, instanceID string, durationMs float64, stepCount int) {
	if logger == nil {
		return
	}
	logger.Info("workflow instance completed",
		slog.String("workflow", workflow),
		slog.String("instance_id", instanceID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps_executed", stepCount),
	)
}

// LogWorkflowFailover logs a workflow redirecting to its failover step.
// The failure detail lives here; the caller of Start only ever observes the
// instance's terminal ERROR status.
func LogWorkflowFailover(logger *slog.Logger, workflow, instanceID, step string, err error) {
	if logger == nil {
		return
	}
	logger.Error("workflow instance failed, running failover",
		slog.String("workflow", workflow),
		slog.String("instance_id", instanceID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

// LogStepStart logs step execution start.
func LogStepStart(logger *slog.Logger, step string) {
	if logger == nil {
		return
	}
	logger.Debug("step starting",
		slog.String("step", step),
	)
}

// LogStepComplete logs successful step completion.
func LogStepComplete(logger *slog.Logger, step string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("step completed",
		slog.String("step", step),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStepRetry logs a transient step failure that will be retried.
func LogStepRetry(logger *slog.Logger, step string, attempt int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("step failed, retrying",
		slog.String("step", step),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
	)
}

// LogPersist logs a durable instance state transition.
func LogPersist(logger *slog.Logger, instanceID, step string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("instance state persisted",
		slog.String("instance_id", instanceID),
		slog.String("step", step),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogPersistError logs a failed instance state transition.
func LogPersistError(logger *slog.Logger, instanceID, step string, err error) {
	if logger == nil {
		return
	}
	logger.Error("instance state persist failed",
		slog.String("instance_id", instanceID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
