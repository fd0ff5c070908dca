package workflow

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/time/rate"

	"github.com/durable-go/durable"
)

// Executor fans units of work out over one Context. Every unit executes
// as a memoized step on the shared Context, gated by a worker pool of
// fixed width. Await joins all submitted units and surfaces the first
// failure in completion order; the remaining units are not cancelled and
// still record their own outcomes in the ledger.
//
// Which numeric suffix a logical id receives depends on goroutine
// scheduling, so parallel step keys are distinct but not stable across
// runs. Consume parallel results through their handles, not by key.
type Executor struct {
	c       *Context
	workers int
	limiter *rate.Limiter
	sem     chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	err    error
	closed bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkers sets the worker pool width. Defaults to
// runtime.GOMAXPROCS(0). Width affects throughput, never correctness.
func WithWorkers(n int) ExecutorOption {
	return func(ex *Executor) {
		ex.workers = n
	}
}

// WithLimiter rate-limits step starts across the pool. Units wait for a
// token after acquiring a worker slot.
func WithLimiter(l *rate.Limiter) ExecutorOption {
	return func(ex *Executor) {
		ex.limiter = l
	}
}

// NewExecutor creates an executor over the given Context.
func NewExecutor(c *Context, opts ...ExecutorOption) *Executor {
	ex := &Executor{
		c:       c,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(ex)
	}
	if ex.workers < 1 {
		ex.workers = 1
	}
	ex.sem = make(chan struct{}, ex.workers)
	return ex
}

// Handle is the eventual result of one submitted unit.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Get blocks until the unit resolves and returns its result.
func (h *Handle[T]) Get() (T, error) {
	<-h.done
	return h.value, h.err
}

// Submit dispatches a unit of work to the pool and returns immediately.
// The unit executes as StepWithResult on the executor's Context, so a
// previously completed unit replays without running fn. Submitting to an
// executor that has been awaited resolves the handle with
// durable.ErrExecutorClosed.
//
// This is a package-level function because Go does not allow generic
// methods on non-generic receiver types.
func Submit[T any](ex *Executor, logicalID string, fn func(ctx context.Context) (T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	ex.mu.Lock()
	if ex.closed {
		ex.mu.Unlock()
		h.err = durable.ErrExecutorClosed
		close(h.done)
		return h
	}
	ex.wg.Add(1)
	ex.mu.Unlock()

	go func() {
		defer ex.wg.Done()
		defer close(h.done)

		ex.sem <- struct{}{}
		defer func() { <-ex.sem }()

		if ex.limiter != nil {
			if err := ex.limiter.Wait(ex.c.Context()); err != nil {
				h.err = err
				ex.record(err)
				return
			}
		}

		h.value, h.err = StepWithResult(ex.c, logicalID, fn)
		if h.err != nil {
			ex.record(h.err)
		}
	}()

	return h
}

// Await blocks until every submitted unit has finished, then shuts the
// executor down. It returns the first failure observed in completion
// order, or nil when every unit succeeded. Await on an already awaited
// executor returns durable.ErrExecutorClosed.
func (ex *Executor) Await() error {
	ex.mu.Lock()
	if ex.closed {
		ex.mu.Unlock()
		return durable.ErrExecutorClosed
	}
	ex.closed = true
	ex.mu.Unlock()

	ex.wg.Wait()

	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.err
}

// record keeps the first failure in completion order.
func (ex *Executor) record(err error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.err == nil {
		ex.err = err
	}
}
