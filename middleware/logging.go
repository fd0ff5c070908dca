package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/durable-go/durable"
)

// Logging returns middleware that logs step start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, s *durable.StepInfo, next Handler) error {
		logger.Info("step started",
			slog.String("workflow_id", s.WorkflowID),
			slog.String("step_key", s.StepKey),
			slog.Bool("retry", s.Retry),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("step failed",
				slog.String("workflow_id", s.WorkflowID),
				slog.String("step_key", s.StepKey),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("step completed",
				slog.String("workflow_id", s.WorkflowID),
				slog.String("step_key", s.StepKey),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
