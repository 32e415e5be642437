// Package agent defines the worker roles the orchestrator dispatches
// tasks to, and the reporting channel they share. Role implementations
// are deliberately thin: they fill templates and apply string
// heuristics, with the model identifier supplied by the orchestrator's
// selector.
package agent

import (
	"context"

	"go.uber.org/zap"

	"codecrew/internal/message"
)

// Agent executes tasks of the types it advertises.
type Agent interface {
	Name() string
	ExecuteTask(ctx context.Context, task *message.Task) (*message.Result, error)
}

// Reporter forwards status and error messages toward the orchestrator.
// Sends are non-blocking: a full channel drops the update rather than
// stalling the agent.
type Reporter struct {
	statusCh chan<- *message.StatusUpdate
	errorCh  chan<- *message.ErrorMessage
}

// NewReporter wires a reporter to the orchestrator's feedback channels.
// Either channel may be nil.
func NewReporter(statusCh chan<- *message.StatusUpdate, errorCh chan<- *message.ErrorMessage) *Reporter {
	return &Reporter{statusCh: statusCh, errorCh: errorCh}
}

// Status emits a progress update.
func (r *Reporter) Status(update *message.StatusUpdate) {
	if r == nil || r.statusCh == nil {
		return
	}
	select {
	case r.statusCh <- update:
	default:
	}
}

// Error emits an error message.
func (r *Reporter) Error(errMsg *message.ErrorMessage) {
	if r == nil || r.errorCh == nil {
		return
	}
	select {
	case r.errorCh <- errMsg:
	default:
	}
}

// Base carries the identity, reporter, and logger shared by all roles.
type Base struct {
	name     string
	reporter *Reporter
	logger   *zap.Logger
}

// NewBase creates the shared agent core.
func NewBase(name string, reporter *Reporter, logger *zap.Logger) Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Base{name: name, reporter: reporter, logger: logger.Named(name)}
}

// Name returns the agent's role name.
func (b *Base) Name() string { return b.name }

func (b *Base) progress(taskID string, percent int, stage string) {
	b.logger.Debug("status update",
		zap.String("task_id", taskID),
		zap.Int("progress", percent),
		zap.String("stage", stage))
	b.reporter.Status(message.NewStatusUpdate(b.name, taskID, percent, stage))
}

func (b *Base) reportError(taskID, code string, severity message.ErrorSeverity, description string) {
	b.logger.Error("task error",
		zap.String("task_id", taskID),
		zap.String("code", code),
		zap.String("description", description))
	b.reporter.Error(message.NewErrorMessage(b.name, taskID, code, severity, description))
}

// modelFor reads the model the orchestrator attached to the task
// payload, falling back to the supplied default.
func modelFor(task *message.Task, fallback string) string {
	if task.Payload.Model != "" {
		return task.Payload.Model
	}
	return fallback
}
