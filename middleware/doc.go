// Package middleware provides composable middleware for step execution.
//
// A [Middleware] is a function that wraps a step body. Middleware are
// composed into a chain using [Chain] and applied each time a step
// actually executes. Replayed (memoized) steps bypass the chain entirely,
// so middleware never observes a cache hit.
//
//	// recover → logging → step body
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// # Built-in Middleware
//
//   - [Recover] catches panics in the step body and converts them to errors
//   - [Logging] logs step key, retry flag, duration, and outcome
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-step duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, s *durable.StepInfo, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
