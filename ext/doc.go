// Package ext defines the extension system for the engine.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, writing audit trails, emitting webhooks.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnStepCompleted(ctx context.Context, s *durable.StepInfo, elapsed time.Duration) error {
//	    log.Printf("step %s completed in %s", s.StepKey, elapsed)
//	    return nil
//	}
//
// # Workflow Lifecycle Hooks
//
//   - [WorkflowStarted]: a workflow invocation began
//   - [WorkflowCompleted]: the invocation finished successfully
//   - [WorkflowFailed]: the invocation returned an error
//   - [WorkflowReset]: the workflow's checkpoints were cleared
//
// # Step Lifecycle Hooks
//
//   - [StepCompleted]: a step executed and its checkpoint was written
//   - [StepFailed]: a step returned an error
//   - [StepReplayed]: a step was skipped via checkpoint replay
//
// # Other Hooks
//
//   - [Shutdown]: the engine is closing
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. Hook errors are logged and
// never propagated to the workflow.
//
// Two extensions ship with the module: [LogExtension] writes a structured
// log trail, and [MetricsExtension] records OpenTelemetry counters.
package ext
