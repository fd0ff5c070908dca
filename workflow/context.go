package workflow

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/durable-go/durable"
	"github.com/durable-go/durable/codec"
	"github.com/durable-go/durable/ext"
	"github.com/durable-go/durable/id"
	"github.com/durable-go/durable/middleware"
)

// Context is the durable execution context passed to workflow functions.
// It owns the per-invocation sequence counter and the memoization
// protocol: each Step call derives a step key, consults the ledger, and
// either replays the recorded result or executes the body and records
// the outcome.
//
// Step identity is positional. The counter starts at zero on every
// invocation and advances by one per Step call, so the key a step
// receives depends on how many Step calls ran before it. The workflow
// function MUST issue the same step calls in the same order on every
// invocation for a given workflow ID; branching on wall-clock time or
// iterating an unordered map before a step call shifts the keys and
// silently breaks replay.
type Context struct {
	ctx    context.Context
	run    *durable.RunInfo
	store  durable.Store
	codec  codec.Codec
	chain  middleware.Middleware
	exts   *ext.Registry
	logger *slog.Logger
	seq    atomic.Int64
}

// NewContext creates a durable execution context bound to one workflow
// invocation. This is called by the engine, not by users.
func NewContext(
	ctx context.Context,
	run *durable.RunInfo,
	store durable.Store,
	c codec.Codec,
	chain middleware.Middleware,
	exts *ext.Registry,
	logger *slog.Logger,
) *Context {
	if c == nil {
		c = &codec.JSON{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if exts == nil {
		exts = ext.NewRegistry(logger)
	}
	return &Context{
		ctx:    ctx,
		run:    run,
		store:  store,
		codec:  c,
		chain:  chain,
		exts:   exts,
		logger: logger,
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context { return c.ctx }

// WorkflowID returns the workflow instance identifier.
func (c *Context) WorkflowID() string { return c.run.WorkflowID }

// RunID returns the identifier of this invocation.
func (c *Context) RunID() id.RunID { return c.run.ID }

// nextKey derives the step key for the next step call. The counter is
// shared by every goroutine using this Context; each call observes a
// distinct value, but which value a given call observes under parallel
// submission depends on scheduling.
func (c *Context) nextKey(logicalID string) string {
	n := c.seq.Add(1) - 1
	return logicalID + "_" + strconv.FormatInt(n, 10)
}
