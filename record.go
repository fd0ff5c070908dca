package durable

import (
	"time"

	"github.com/durable-go/durable/id"
)

// Status is the persisted outcome of a step. A step with no record is
// implicitly not started; only terminal outcomes are written.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// StepRecord is the unit of persisted state: one attempt outcome for one
// derived step key within one workflow.
type StepRecord struct {
	// WorkflowID identifies one logical workflow instance. It is chosen by
	// the caller and must be stable across restarts of the same logical run.
	WorkflowID string

	// StepKey is derived as "<logicalID>_<sequence>" and is unique within
	// a WorkflowID. A later write for the same key overwrites the earlier
	// one (last-write-wins upsert).
	StepKey string

	// Status is COMPLETED or FAILED.
	Status Status

	// Output holds the encoded result envelope when Status is COMPLETED
	// and is nil when Status is FAILED.
	Output []byte

	// CreatedAt is when the record was last written. Ledger listings
	// order by it, oldest write first.
	CreatedAt time.Time
}

// RunInfo describes one in-flight invocation of a workflow function. It is
// minted by the engine for logging and extension hooks and is never
// persisted; the ledger holds step records only.
type RunInfo struct {
	ID         id.RunID
	WorkflowID string
	StartedAt  time.Time
}

// StepInfo describes the step about to execute. It is the descriptor passed
// through the middleware chain; replayed steps never reach middleware.
type StepInfo struct {
	WorkflowID string
	RunID      id.RunID
	LogicalID  string
	StepKey    string

	// Retry is true when a FAILED record exists for this key, meaning a
	// previous invocation already attempted this step.
	Retry bool
}
