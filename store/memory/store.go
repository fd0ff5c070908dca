// Package memory provides a fully in-memory step ledger.
// Safe for concurrent access. Intended for unit testing and development;
// records do not survive the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/durable-go/durable"
)

// Ensure Store implements durable.Store at compile time.
var _ durable.Store = (*Store)(nil)

// Store keeps step records in nested maps keyed by workflow ID, then step
// key. Reads take the read lock; writes take the write lock, so writers are
// serialized and never starve readers for long.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]map[string]*durable.StepRecord
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		workflows: make(map[string]map[string]*durable.StepRecord),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Step ledger
// ──────────────────────────────────────────────────

// GetStep returns the record for (workflowID, stepKey), or (nil, nil) when
// no record exists.
func (m *Store) GetStep(_ context.Context, workflowID, stepKey string) (*durable.StepRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.workflows[workflowID][stepKey]
	if !ok {
		return nil, nil // no record is not an error
	}
	return clone(rec), nil
}

// PutStep upserts a record by its compound key.
func (m *Store) PutStep(_ context.Context, rec *durable.StepRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	steps, ok := m.workflows[rec.WorkflowID]
	if !ok {
		steps = make(map[string]*durable.StepRecord)
		m.workflows[rec.WorkflowID] = steps
	}
	steps[rec.StepKey] = clone(rec)
	return nil
}

// ListSteps returns every record for the workflow, oldest write first.
func (m *Store) ListSteps(_ context.Context, workflowID string) ([]*durable.StepRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	steps := m.workflows[workflowID]
	result := make([]*durable.StepRecord, 0, len(steps))
	for _, rec := range steps {
		result = append(result, clone(rec))
	}

	sort.Slice(result, func(i, k int) bool {
		if result[i].CreatedAt.Equal(result[k].CreatedAt) {
			return result[i].StepKey < result[k].StepKey
		}
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	return result, nil
}

// ClearWorkflow deletes every record for the workflow.
func (m *Store) ClearWorkflow(_ context.Context, workflowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.workflows, workflowID)
	return nil
}

// clone copies a record so callers never share memory with the store.
func clone(rec *durable.StepRecord) *durable.StepRecord {
	cp := *rec
	if rec.Output != nil {
		cp.Output = append([]byte(nil), rec.Output...)
	}
	return &cp
}
