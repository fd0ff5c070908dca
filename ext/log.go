package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/durable-go/durable"
)

// Compile-time interface checks.
var (
	_ Extension         = (*LogExtension)(nil)
	_ WorkflowStarted   = (*LogExtension)(nil)
	_ WorkflowCompleted = (*LogExtension)(nil)
	_ WorkflowFailed    = (*LogExtension)(nil)
	_ WorkflowReset     = (*LogExtension)(nil)
	_ StepCompleted     = (*LogExtension)(nil)
	_ StepFailed        = (*LogExtension)(nil)
	_ StepReplayed      = (*LogExtension)(nil)
	_ Shutdown          = (*LogExtension)(nil)
)

// LogExtension writes a structured log line for every lifecycle event.
// It is useful as an execution trail during development and as a template
// for custom extensions.
type LogExtension struct {
	logger *slog.Logger
}

// NewLogExtension creates a LogExtension writing through the given logger.
// A nil logger falls back to slog.Default.
func NewLogExtension(logger *slog.Logger) *LogExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExtension{logger: logger}
}

// Name implements Extension.
func (e *LogExtension) Name() string { return "log" }

// OnWorkflowStarted implements WorkflowStarted.
func (e *LogExtension) OnWorkflowStarted(_ context.Context, r *durable.RunInfo) error {
	e.logger.Info("workflow started",
		slog.String("workflow_id", r.WorkflowID),
		slog.String("run_id", r.ID.String()),
	)
	return nil
}

// OnWorkflowCompleted implements WorkflowCompleted.
func (e *LogExtension) OnWorkflowCompleted(_ context.Context, r *durable.RunInfo, elapsed time.Duration) error {
	e.logger.Info("workflow completed",
		slog.String("workflow_id", r.WorkflowID),
		slog.String("run_id", r.ID.String()),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// OnWorkflowFailed implements WorkflowFailed.
func (e *LogExtension) OnWorkflowFailed(_ context.Context, r *durable.RunInfo, err error) error {
	e.logger.Error("workflow failed",
		slog.String("workflow_id", r.WorkflowID),
		slog.String("run_id", r.ID.String()),
		slog.String("error", err.Error()),
	)
	return nil
}

// OnWorkflowReset implements WorkflowReset.
func (e *LogExtension) OnWorkflowReset(_ context.Context, workflowID string, removed int) error {
	e.logger.Info("workflow reset",
		slog.String("workflow_id", workflowID),
		slog.Int("steps_removed", removed),
	)
	return nil
}

// OnStepCompleted implements StepCompleted.
func (e *LogExtension) OnStepCompleted(_ context.Context, s *durable.StepInfo, elapsed time.Duration) error {
	e.logger.Info("step completed",
		slog.String("workflow_id", s.WorkflowID),
		slog.String("step_key", s.StepKey),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// OnStepFailed implements StepFailed.
func (e *LogExtension) OnStepFailed(_ context.Context, s *durable.StepInfo, err error) error {
	e.logger.Error("step failed",
		slog.String("workflow_id", s.WorkflowID),
		slog.String("step_key", s.StepKey),
		slog.String("error", err.Error()),
	)
	return nil
}

// OnStepReplayed implements StepReplayed.
func (e *LogExtension) OnStepReplayed(_ context.Context, s *durable.StepInfo) error {
	e.logger.Debug("step replayed from checkpoint",
		slog.String("workflow_id", s.WorkflowID),
		slog.String("step_key", s.StepKey),
	)
	return nil
}

// OnShutdown implements Shutdown.
func (e *LogExtension) OnShutdown(_ context.Context) error {
	e.logger.Info("engine shutting down")
	return nil
}
