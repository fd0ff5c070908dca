package ext

import (
	"context"
	"time"

	"github.com/durable-go/durable"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Workflow lifecycle hooks
// ──────────────────────────────────────────────────

// WorkflowStarted is called when a workflow invocation begins.
type WorkflowStarted interface {
	OnWorkflowStarted(ctx context.Context, r *durable.RunInfo) error
}

// WorkflowCompleted is called after a workflow invocation finishes successfully.
type WorkflowCompleted interface {
	OnWorkflowCompleted(ctx context.Context, r *durable.RunInfo, elapsed time.Duration) error
}

// WorkflowFailed is called when a workflow invocation returns an error.
type WorkflowFailed interface {
	OnWorkflowFailed(ctx context.Context, r *durable.RunInfo, err error) error
}

// WorkflowReset is called after a workflow's checkpoints are cleared.
// removed is the number of step records deleted.
type WorkflowReset interface {
	OnWorkflowReset(ctx context.Context, workflowID string, removed int) error
}

// ──────────────────────────────────────────────────
// Step lifecycle hooks
// ──────────────────────────────────────────────────

// StepCompleted is called after a step body executes successfully and its
// checkpoint is written. Replayed steps do not fire this hook.
type StepCompleted interface {
	OnStepCompleted(ctx context.Context, s *durable.StepInfo, elapsed time.Duration) error
}

// StepFailed is called when a step body returns an error.
type StepFailed interface {
	OnStepFailed(ctx context.Context, s *durable.StepInfo, err error) error
}

// StepReplayed is called when a step is skipped because a completed
// checkpoint already exists for its key.
type StepReplayed interface {
	OnStepReplayed(ctx context.Context, s *durable.StepInfo) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called when the engine closes.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
