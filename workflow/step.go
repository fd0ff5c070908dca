package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/durable-go/durable"
	"github.com/durable-go/durable/middleware"
)

// envelope wraps an encoded step result together with the Go type it was
// produced from. The type tag makes a replay into a different type fail
// loudly instead of coercing. A no-result step stores an envelope with an
// empty tag and no data, which keeps its COMPLETED record distinguishable
// from a FAILED record's absent output.
type envelope struct {
	Type string `json:"type" msgpack:"type"`
	Data []byte `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Step executes a unit of work exactly once per derived step key. If the
// ledger holds a COMPLETED record for the key, fn is not invoked and nil
// is returned. A FAILED or absent record means fn runs (through the
// middleware chain); success is recorded as COMPLETED, failure as FAILED
// before the error is returned wrapped in a *durable.StepError.
func (c *Context) Step(logicalID string, fn func(ctx context.Context) error) error {
	key := c.nextKey(logicalID)

	rec, err := c.store.GetStep(c.ctx, c.run.WorkflowID, key)
	if err != nil {
		return &durable.PersistenceError{Op: "get", Err: err}
	}
	if rec != nil && rec.Status == durable.StatusCompleted {
		c.replayed(key)
		return nil
	}

	info := c.stepInfo(logicalID, key, rec)
	start := time.Now()
	stepErr := c.runChain(info, fn)
	elapsed := time.Since(start)

	if stepErr != nil {
		return c.failStep(info, stepErr)
	}

	output, encErr := c.encodeEnvelope(key, "", nil)
	if encErr != nil {
		return encErr
	}
	return c.completeStep(info, output, elapsed)
}

// StepWithResult executes a unit of work that produces a typed value,
// exactly once per derived step key. A COMPLETED record is decoded into T
// and returned without invoking fn; the stored type tag must match T or
// the call fails with a *durable.SerializationError. A FAILED or absent
// record means fn runs through the middleware chain, and the outcome is
// recorded before returning.
//
// This is a package-level function because Go does not allow generic
// methods on non-generic receiver types.
func StepWithResult[T any](c *Context, logicalID string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	key := c.nextKey(logicalID)

	rec, err := c.store.GetStep(c.ctx, c.run.WorkflowID, key)
	if err != nil {
		return zero, &durable.PersistenceError{Op: "get", Err: err}
	}
	if rec != nil && rec.Status == durable.StatusCompleted {
		result, decErr := decodeEnvelope[T](c, key, rec.Output)
		if decErr != nil {
			return zero, decErr
		}
		c.replayed(key)
		return result, nil
	}

	info := c.stepInfo(logicalID, key, rec)
	var result T
	start := time.Now()
	stepErr := c.runChain(info, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	elapsed := time.Since(start)

	if stepErr != nil {
		return zero, c.failStep(info, stepErr)
	}

	output, encErr := c.encodeEnvelope(key, reflect.TypeFor[T]().String(), result)
	if encErr != nil {
		return zero, encErr
	}
	if putErr := c.completeStep(info, output, elapsed); putErr != nil {
		return zero, putErr
	}
	return result, nil
}

// ── Memoization protocol internals ──────────────────────────

// stepInfo builds the descriptor passed to middleware and extensions.
// Retry is set when a FAILED record already exists for the key.
func (c *Context) stepInfo(logicalID, key string, rec *durable.StepRecord) *durable.StepInfo {
	retry := rec != nil && rec.Status == durable.StatusFailed
	if retry {
		c.logger.Debug("retrying failed step",
			slog.String("workflow_id", c.run.WorkflowID),
			slog.String("step_key", key),
		)
	}
	return &durable.StepInfo{
		WorkflowID: c.run.WorkflowID,
		RunID:      c.run.ID,
		LogicalID:  logicalID,
		StepKey:    key,
		Retry:      retry,
	}
}

// runChain executes the step body through the middleware chain. Replayed
// steps never reach this point.
func (c *Context) runChain(info *durable.StepInfo, body middleware.Handler) error {
	if c.chain == nil {
		return body(c.ctx)
	}
	return c.chain(c.ctx, info, body)
}

// replayed logs and emits a cache hit. No ledger write happens and the
// step body is never invoked.
func (c *Context) replayed(key string) {
	c.logger.Debug("replaying completed step",
		slog.String("workflow_id", c.run.WorkflowID),
		slog.String("step_key", key),
	)
	c.exts.EmitStepReplayed(c.ctx, &durable.StepInfo{
		WorkflowID: c.run.WorkflowID,
		RunID:      c.run.ID,
		StepKey:    key,
	})
}

// completeStep upserts the COMPLETED record. The write is the single
// ledger mutation of a successful step call.
func (c *Context) completeStep(info *durable.StepInfo, output []byte, elapsed time.Duration) error {
	rec := &durable.StepRecord{
		WorkflowID: info.WorkflowID,
		StepKey:    info.StepKey,
		Status:     durable.StatusCompleted,
		Output:     output,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.store.PutStep(c.ctx, rec); err != nil {
		return &durable.PersistenceError{Op: "put", Err: err}
	}
	c.exts.EmitStepCompleted(c.ctx, info, elapsed)
	return nil
}

// failStep upserts the FAILED record (nil output) and wraps the step's
// error with its identity. If recording the failure itself fails, the
// persistence error wins and the step error is logged; a ledger that
// cannot be written is fatal to the whole invocation.
func (c *Context) failStep(info *durable.StepInfo, stepErr error) error {
	rec := &durable.StepRecord{
		WorkflowID: info.WorkflowID,
		StepKey:    info.StepKey,
		Status:     durable.StatusFailed,
		CreatedAt:  time.Now().UTC(),
	}
	if putErr := c.store.PutStep(c.ctx, rec); putErr != nil {
		c.logger.Error("failed to record step failure",
			slog.String("workflow_id", info.WorkflowID),
			slog.String("step_key", info.StepKey),
			slog.String("step_error", stepErr.Error()),
			slog.String("error", putErr.Error()),
		)
		return &durable.PersistenceError{Op: "put", Err: putErr}
	}
	c.exts.EmitStepFailed(c.ctx, info, stepErr)
	return &durable.StepError{
		WorkflowID: info.WorkflowID,
		StepKey:    info.StepKey,
		Err:        stepErr,
	}
}

// encodeEnvelope serializes a step result for storage. An empty type tag
// with nil value produces the no-result envelope.
func (c *Context) encodeEnvelope(key, typeTag string, v any) ([]byte, error) {
	env := envelope{Type: typeTag}
	if typeTag != "" {
		data, err := c.codec.Encode(v)
		if err != nil {
			return nil, &durable.SerializationError{StepKey: key, Err: err}
		}
		env.Data = data
	}
	out, err := c.codec.Encode(&env)
	if err != nil {
		return nil, &durable.SerializationError{StepKey: key, Err: err}
	}
	return out, nil
}

// decodeEnvelope deserializes a cached payload back into the caller's
// type, refusing a payload whose recorded type tag differs from T.
func decodeEnvelope[T any](c *Context, key string, payload []byte) (T, error) {
	var zero T
	var env envelope
	if err := c.codec.Decode(payload, &env); err != nil {
		return zero, &durable.SerializationError{StepKey: key, Err: err}
	}
	want := reflect.TypeFor[T]().String()
	if env.Type != want {
		return zero, &durable.SerializationError{
			StepKey: key,
			Err:     fmt.Errorf("recorded type %q does not match requested %q", env.Type, want),
		}
	}
	var result T
	if err := c.codec.Decode(env.Data, &result); err != nil {
		return zero, &durable.SerializationError{StepKey: key, Err: err}
	}
	return result, nil
}
