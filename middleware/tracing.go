package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/durable-go/durable"
)

// tracerName is the instrumentation scope name for durable tracing.
const tracerName = "github.com/durable-go/durable"

// Tracing returns middleware that wraps step execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through.
//
// Span attributes include: durable.workflow.id, durable.run.id,
// durable.step.id, durable.step.key, durable.step.retry.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, s *durable.StepInfo, next Handler) error {
		ctx, span := tracer.Start(ctx, "durable.step.execute",
			trace.WithAttributes(
				attribute.String("durable.workflow.id", s.WorkflowID),
				attribute.String("durable.run.id", s.RunID.String()),
				attribute.String("durable.step.id", s.LogicalID),
				attribute.String("durable.step.key", s.StepKey),
				attribute.Bool("durable.step.retry", s.Retry),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
