package durable

import "context"

// Store is the step ledger contract. Implementations must support many
// concurrent readers, serialize writes (one writer at a time), and bound
// how long a writer waits for a lock before failing instead of blocking
// forever. Backends live under store/.
type Store interface {
	// GetStep returns the record for (workflowID, stepKey), or (nil, nil)
	// when no record exists. Absence is not an error.
	GetStep(ctx context.Context, workflowID, stepKey string) (*StepRecord, error)

	// PutStep upserts a record by its compound key, last write wins.
	PutStep(ctx context.Context, rec *StepRecord) error

	// ListSteps returns every record for the workflow, oldest first.
	ListSteps(ctx context.Context, workflowID string) ([]*StepRecord, error)

	// ClearWorkflow deletes every record for the workflow.
	ClearWorkflow(ctx context.Context, workflowID string) error

	// Migrate creates or upgrades the backing schema.
	Migrate(ctx context.Context) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases resources the store owns. Stores constructed over a
	// caller-provided client treat this as a no-op.
	Close() error
}
