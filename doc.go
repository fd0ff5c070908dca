// Package durable provides a single-process durable step execution engine
// for Go. A workflow is an ordinary function; each side-effecting piece of
// work inside it is wrapped in a step. Completed steps are recorded in a
// persistent ledger, so re-running the same workflow after a crash replays
// their results instead of executing them again.
//
// Durable is designed as a library, not a service. Open an engine over a
// ledger store, then express workflows as plain Go code:
//
//	eng, err := workflow.Open("orders.db")
//	if err != nil { ... }
//	defer eng.Close()
//
//	err = eng.Run(ctx, "order-1042", func(c *workflow.Context) error {
//	    total, err := workflow.StepWithResult[float64](c, "charge", chargeCard)
//	    if err != nil {
//	        return err
//	    }
//	    return c.Step("notify", func(ctx context.Context) error {
//	        return sendReceipt(ctx, total)
//	    })
//	})
//
// # Architecture
//
// The engine constructs one workflow.Context per invocation. The Context
// owns the memoization protocol: derive a step key, consult the ledger,
// replay or execute-and-record. The ledger itself is the Store interface in
// this package, with SQLite, Postgres, Redis, Mongo, and in-memory
// implementations under store/.
//
// # Caller contract
//
// Step keys are derived from the logical step id plus a per-invocation
// sequence counter. The set and order of step calls a workflow function
// makes must therefore be deterministic across re-invocations of the same
// workflow id; see workflow.Context for the full contract.
package durable
