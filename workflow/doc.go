// Package workflow provides durable, resumable execution of multi-step
// functions over a persistent step ledger.
//
// A workflow is ordinary Go code that wraps its side effects in Step
// calls. Each call is memoized: the first execution records its outcome
// in the ledger, and every later invocation of the same workflow ID
// replays the recorded result instead of running the body again. A
// crashed or failed workflow resumes by re-invoking it with the same ID:
// completed steps are skipped and execution continues from the step that
// never finished.
//
// # Running a Workflow
//
//	eng, err := workflow.Open("workflow.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	order, err := workflow.Execute(ctx, eng, "order-1042",
//		func(c *workflow.Context) (Order, error) {
//			id, err := workflow.StepWithResult(c, "reserve-stock", reserveStock)
//			if err != nil {
//				return Order{}, err
//			}
//			if err := c.Step("charge-card", chargeCard); err != nil {
//				return Order{}, err
//			}
//			return loadOrder(id)
//		},
//	)
//
// # Parallel Steps
//
// Independent steps fan out through an Executor. Each unit is memoized
// individually, so a re-invocation replays the units that finished and
// re-runs only the rest:
//
//	ex := workflow.NewExecutor(c)
//	laptop := workflow.Submit(ex, "provision-laptop", provisionLaptop)
//	access := workflow.Submit(ex, "setup-access", setupAccess)
//	if err := ex.Await(); err != nil {
//		return err
//	}
//
// # Step Identity
//
// Step keys are derived from the logical id plus a per-invocation call
// counter. The workflow function must issue the same step calls in the
// same order every invocation; see [Context] for the full contract.
//
// # Key Types
//
//   - [Engine]: runs workflow functions, owns the extension registry
//   - [Context]: per-invocation memoization protocol
//   - [Executor]: bounded fan-out over one Context
//   - [Handle]: eventual result of a submitted unit
package workflow
