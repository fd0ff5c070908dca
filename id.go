package durable

import "github.com/durable-go/durable/id"

// RunID identifies one workflow invocation. Alias for id.RunID so callers
// that only touch the root package can name the type.
type RunID = id.RunID
