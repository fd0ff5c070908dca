package redis

import "fmt"

// Redis key naming conventions for ledger data.
// All keys are prefixed with "durable:" to avoid collisions.

const keyPrefix = "durable:"

// stepHashKey returns the Hash key for one step record:
// durable:step:{workflowID}:{stepKey}
func stepHashKey(workflowID, stepKey string) string {
	return fmt.Sprintf("%sstep:%s:%s", keyPrefix, workflowID, stepKey)
}

// stepIndexKey returns the Set key tracking step keys for a workflow:
// durable:steps:{workflowID}
func stepIndexKey(workflowID string) string {
	return keyPrefix + "steps:" + workflowID
}
