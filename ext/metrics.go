package ext

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/durable-go/durable"
)

// Compile-time interface checks.
var (
	_ Extension         = (*MetricsExtension)(nil)
	_ WorkflowStarted   = (*MetricsExtension)(nil)
	_ WorkflowCompleted = (*MetricsExtension)(nil)
	_ WorkflowFailed    = (*MetricsExtension)(nil)
	_ WorkflowReset     = (*MetricsExtension)(nil)
	_ StepCompleted     = (*MetricsExtension)(nil)
	_ StepFailed        = (*MetricsExtension)(nil)
	_ StepReplayed      = (*MetricsExtension)(nil)
)

const meterName = "github.com/durable-go/durable/ext"

// MetricsExtension records engine-wide lifecycle counters via OpenTelemetry.
// Register it to track invocation rates, completion counts, failure rates,
// replay counts, and resets.
type MetricsExtension struct {
	workflowStarted   metric.Int64Counter
	workflowCompleted metric.Int64Counter
	workflowFailed    metric.Int64Counter
	workflowResets    metric.Int64Counter
	stepCompleted     metric.Int64Counter
	stepFailed        metric.Int64Counter
	stepReplayed      metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global meter
// provider. Without a configured provider all instruments are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Use this in tests with an sdkmetric.ManualReader.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}
	m.workflowStarted, _ = meter.Int64Counter("durable.workflow.started",
		metric.WithDescription("Workflow invocations begun"),
		metric.WithUnit("{invocation}"))
	m.workflowCompleted, _ = meter.Int64Counter("durable.workflow.completed",
		metric.WithDescription("Workflow invocations finished successfully"),
		metric.WithUnit("{invocation}"))
	m.workflowFailed, _ = meter.Int64Counter("durable.workflow.failed",
		metric.WithDescription("Workflow invocations that returned an error"),
		metric.WithUnit("{invocation}"))
	m.workflowResets, _ = meter.Int64Counter("durable.workflow.resets",
		metric.WithDescription("Workflow checkpoint resets"),
		metric.WithUnit("{reset}"))
	m.stepCompleted, _ = meter.Int64Counter("durable.step.completed",
		metric.WithDescription("Steps executed to completion"),
		metric.WithUnit("{step}"))
	m.stepFailed, _ = meter.Int64Counter("durable.step.failed",
		metric.WithDescription("Steps that returned an error"),
		metric.WithUnit("{step}"))
	m.stepReplayed, _ = meter.Int64Counter("durable.step.replayed",
		metric.WithDescription("Steps skipped via checkpoint replay"),
		metric.WithUnit("{step}"))
	return m
}

// Name implements Extension.
func (m *MetricsExtension) Name() string { return "metrics" }

// OnWorkflowStarted implements WorkflowStarted.
func (m *MetricsExtension) OnWorkflowStarted(ctx context.Context, _ *durable.RunInfo) error {
	m.workflowStarted.Add(ctx, 1)
	return nil
}

// OnWorkflowCompleted implements WorkflowCompleted.
func (m *MetricsExtension) OnWorkflowCompleted(ctx context.Context, _ *durable.RunInfo, _ time.Duration) error {
	m.workflowCompleted.Add(ctx, 1)
	return nil
}

// OnWorkflowFailed implements WorkflowFailed.
func (m *MetricsExtension) OnWorkflowFailed(ctx context.Context, _ *durable.RunInfo, _ error) error {
	m.workflowFailed.Add(ctx, 1)
	return nil
}

// OnWorkflowReset implements WorkflowReset.
func (m *MetricsExtension) OnWorkflowReset(ctx context.Context, _ string, _ int) error {
	m.workflowResets.Add(ctx, 1)
	return nil
}

// OnStepCompleted implements StepCompleted.
func (m *MetricsExtension) OnStepCompleted(ctx context.Context, _ *durable.StepInfo, _ time.Duration) error {
	m.stepCompleted.Add(ctx, 1)
	return nil
}

// OnStepFailed implements StepFailed.
func (m *MetricsExtension) OnStepFailed(ctx context.Context, _ *durable.StepInfo, _ error) error {
	m.stepFailed.Add(ctx, 1)
	return nil
}

// OnStepReplayed implements StepReplayed.
func (m *MetricsExtension) OnStepReplayed(ctx context.Context, _ *durable.StepInfo) error {
	m.stepReplayed.Add(ctx, 1)
	return nil
}
