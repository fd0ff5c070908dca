package durable

import (
	"errors"
	"fmt"
)

var (
	// Engine errors.
	ErrNoStore      = errors.New("durable: no store configured")
	ErrEngineClosed = errors.New("durable: engine closed")

	// Store errors.
	ErrStoreClosed = errors.New("durable: store closed")

	// Executor errors.
	ErrExecutorClosed = errors.New("durable: executor already awaited")
)

// StepError wraps an error returned by a user-supplied step function.
// The underlying error is reachable through errors.Is/errors.As; the step
// is recorded as FAILED before the StepError is returned.
type StepError struct {
	WorkflowID string
	StepKey    string
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("durable: workflow %s step %s: %v", e.WorkflowID, e.StepKey, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// PersistenceError reports a ledger read or write that could not complete,
// whether from storage I/O failure or from a closed store. It is fatal to
// the step call that hit it; the engine never retries internally.
type PersistenceError struct {
	Op  string // "get", "put", "list", "clear"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("durable: ledger %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SerializationError reports a failure encoding a step result for storage
// or decoding a cached payload back into the caller's type. On the decode
// path it signals either a corrupted record or a type mismatch between the
// step's declared result type and what was stored.
type SerializationError struct {
	StepKey string
	Err     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("durable: step %s payload: %v", e.StepKey, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
