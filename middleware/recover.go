package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/durable-go/durable"
)

// Recover returns middleware that recovers from panics in the step body.
// Panics are converted to errors and logged with a stack trace; the step
// is then recorded as FAILED like any other erroring step.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, s *durable.StepInfo, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("step panicked",
					slog.String("workflow_id", s.WorkflowID),
					slog.String("step_key", s.StepKey),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in step %s: %v", s.StepKey, r)
			}
		}()
		return next(ctx)
	}
}
