package workflow

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/durable-go/durable"
	"github.com/durable-go/durable/codec"
	"github.com/durable-go/durable/ext"
	"github.com/durable-go/durable/id"
	"github.com/durable-go/durable/middleware"
	"github.com/durable-go/durable/store/sqlite"
)

// Engine executes workflow functions against a step ledger. It performs
// no scheduling and no implicit retry: the workflow function runs on the
// caller's goroutine and its error returns to the caller. Resumability
// comes from re-invoking the same workflow ID against the same ledger.
type Engine struct {
	store     durable.Store
	ownsStore bool
	codec     codec.Codec
	logger    *slog.Logger
	registry  *ext.Registry
	chain     middleware.Middleware

	// Collected by options, installed by NewEngine.
	mws  []middleware.Middleware
	exts []ext.Extension

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	closed atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCodec sets the codec used for step result payloads. Defaults to
// JSON. Every invocation of a workflow ID must use the codec that wrote
// its records.
func WithCodec(c codec.Codec) Option {
	return func(e *Engine) {
		e.codec = c
	}
}

// WithExtension registers a lifecycle extension with the engine.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) {
		e.exts = append(e.exts, x)
	}
}

// WithMiddleware appends middleware to the step execution chain, inside
// the built-in recover/tracing/metrics/logging stack.
func WithMiddleware(m middleware.Middleware) Option {
	return func(e *Engine) {
		e.mws = append(e.mws, m)
	}
}

// WithTracerProvider sets a custom OTel TracerProvider. When set, the
// tracing middleware uses this provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider. When set, both the
// metrics middleware and the metrics extension use this provider instead
// of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meterProvider = mp
	}
}

// NewEngine creates an engine over an injected step ledger. The caller
// keeps ownership of the store and closes it after the engine.
func NewEngine(store durable.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, durable.ErrNoStore
	}

	eng := &Engine{
		store:  store,
		codec:  &codec.JSON{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.registry = ext.NewRegistry(eng.logger)

	// The metrics extension is always on; it is a no-op until a meter
	// provider is configured globally or via WithMeterProvider.
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/durable-go/durable/ext")
		eng.registry.Register(ext.NewMetricsExtensionWithMeter(meter))
	} else {
		eng.registry.Register(ext.NewMetricsExtension())
	}
	for _, x := range eng.exts {
		eng.registry.Register(x)
	}

	var tracingMw middleware.Middleware
	if eng.tracerProvider != nil {
		tracingMw = middleware.TracingWithTracer(eng.tracerProvider.Tracer("github.com/durable-go/durable"))
	} else {
		tracingMw = middleware.Tracing()
	}
	var metricsMw middleware.Middleware
	if eng.meterProvider != nil {
		metricsMw = middleware.MetricsWithMeter(eng.meterProvider.Meter("github.com/durable-go/durable"))
	} else {
		metricsMw = middleware.Metrics()
	}

	// Built-in stack: recover → tracing → metrics → logging, then
	// user middleware innermost.
	mws := []middleware.Middleware{
		middleware.Recover(eng.logger),
		tracingMw,
		metricsMw,
		middleware.Logging(eng.logger),
	}
	mws = append(mws, eng.mws...)
	eng.chain = middleware.Chain(mws...)

	return eng, nil
}

// Open creates an engine over a SQLite ledger at path, migrating the
// schema on the way up. The engine owns the store and closes it on
// Close. Use NewEngine to supply a different backend.
func Open(path string, opts ...Option) (*Engine, error) {
	st, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(context.Background()); err != nil {
		_ = st.Close()
		return nil, err
	}

	eng, err := NewEngine(st, opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	eng.ownsStore = true
	return eng, nil
}

// Store returns the engine's step ledger.
func (e *Engine) Store() durable.Store { return e.store }

// Execute runs a workflow function against a fresh Context bound to
// workflowID. Steps completed by earlier invocations of the same ID
// replay from the ledger; everything else executes and is recorded. The
// function's error is logged and returned unchanged; the engine never
// retries. Re-invoke with the same ID to resume.
//
// This is a package-level function because Go does not allow generic
// methods on non-generic receiver types.
func Execute[T any](ctx context.Context, eng *Engine, workflowID string, fn func(c *Context) (T, error)) (T, error) {
	var zero T
	if eng.closed.Load() {
		return zero, durable.ErrEngineClosed
	}

	run := &durable.RunInfo{
		ID:         id.NewRunID(),
		WorkflowID: workflowID,
		StartedAt:  time.Now().UTC(),
	}
	c := NewContext(ctx, run, eng.store, eng.codec, eng.chain, eng.registry, eng.logger)

	eng.logger.Info("workflow started",
		slog.String("workflow_id", workflowID),
		slog.String("run_id", run.ID.String()),
	)
	eng.registry.EmitWorkflowStarted(ctx, run)

	start := time.Now()
	out, err := fn(c)
	elapsed := time.Since(start)

	if err != nil {
		eng.logger.Error("workflow failed",
			slog.String("workflow_id", workflowID),
			slog.String("run_id", run.ID.String()),
			slog.String("error", err.Error()),
		)
		eng.registry.EmitWorkflowFailed(ctx, run, err)
		return zero, err
	}

	eng.logger.Info("workflow completed",
		slog.String("workflow_id", workflowID),
		slog.String("run_id", run.ID.String()),
		slog.Duration("elapsed", elapsed),
	)
	eng.registry.EmitWorkflowCompleted(ctx, run, elapsed)
	return out, nil
}

// Run executes a workflow function that produces no result. Same
// semantics as Execute.
func (e *Engine) Run(ctx context.Context, workflowID string, fn func(c *Context) error) error {
	_, err := Execute(ctx, e, workflowID, func(c *Context) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

// Reset deletes every step record for the workflow, so the next
// invocation re-executes from the top.
func (e *Engine) Reset(ctx context.Context, workflowID string) error {
	if e.closed.Load() {
		return durable.ErrEngineClosed
	}

	recs, err := e.store.ListSteps(ctx, workflowID)
	if err != nil {
		return &durable.PersistenceError{Op: "list", Err: err}
	}
	if err := e.store.ClearWorkflow(ctx, workflowID); err != nil {
		return &durable.PersistenceError{Op: "clear", Err: err}
	}

	e.logger.Info("workflow reset",
		slog.String("workflow_id", workflowID),
		slog.Int("steps_removed", len(recs)),
	)
	e.registry.EmitWorkflowReset(ctx, workflowID, len(recs))
	return nil
}

// Steps returns the workflow's step records, oldest write first.
func (e *Engine) Steps(ctx context.Context, workflowID string) ([]*durable.StepRecord, error) {
	if e.closed.Load() {
		return nil, durable.ErrEngineClosed
	}
	recs, err := e.store.ListSteps(ctx, workflowID)
	if err != nil {
		return nil, &durable.PersistenceError{Op: "list", Err: err}
	}
	return recs, nil
}

// Close emits the shutdown hook and, when the engine owns its store
// (the Open path), closes it. Later calls return durable.ErrEngineClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return durable.ErrEngineClosed
	}
	e.registry.EmitShutdown(context.Background())
	if e.ownsStore {
		return e.store.Close()
	}
	return nil
}
