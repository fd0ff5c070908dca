// Package middleware provides composable middleware for step execution.
// Middleware wraps the executing step synchronously and can modify the
// call (recover from panics, log, trace, meter). Replayed steps never run,
// so they never pass through middleware.
package middleware

import (
	"context"

	"github.com/durable-go/durable"
)

// Handler is the terminal function that executes the step body.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, a descriptor of the step being
// executed, and the next handler to call. Middleware MUST call next to
// continue the chain (unless short-circuiting on error).
type Middleware func(ctx context.Context, s *durable.StepInfo, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(recover, tracing, logging) executes as:
//
//	recover → tracing → logging → step body
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, s *durable.StepInfo, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, s, prev)
			}
		}
		return h(ctx)
	}
}
