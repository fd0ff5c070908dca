package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/durable-go/durable"
	"github.com/durable-go/durable/store/memory"
	"github.com/durable-go/durable/workflow"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine creates an engine over a fresh in-memory ledger.
func newTestEngine(t *testing.T, opts ...workflow.Option) (*workflow.Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	opts = append([]workflow.Option{workflow.WithLogger(testLogger())}, opts...)
	eng, err := workflow.NewEngine(st, opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng, st
}

// findStep returns the first record whose key starts with logicalID.
// Parallel suffixes depend on scheduling, so lookups go by prefix.
func findStep(t *testing.T, st durable.Store, workflowID, logicalID string) *durable.StepRecord {
	t.Helper()
	recs, err := st.ListSteps(context.Background(), workflowID)
	if err != nil {
		t.Fatalf("ListSteps() error = %v", err)
	}
	for _, rec := range recs {
		if strings.HasPrefix(rec.StepKey, logicalID+"_") {
			return rec
		}
	}
	return nil
}

// trackingExt counts every lifecycle hook invocation.
type trackingExt struct {
	started      atomic.Int32
	completed    atomic.Int32
	failed       atomic.Int32
	resets       atomic.Int32
	stepDone     atomic.Int32
	stepFailed   atomic.Int32
	stepReplayed atomic.Int32
	shutdowns    atomic.Int32
}

func (x *trackingExt) Name() string { return "tracking" }

func (x *trackingExt) OnWorkflowStarted(context.Context, *durable.RunInfo) error {
	x.started.Add(1)
	return nil
}

func (x *trackingExt) OnWorkflowCompleted(context.Context, *durable.RunInfo, time.Duration) error {
	x.completed.Add(1)
	return nil
}

func (x *trackingExt) OnWorkflowFailed(context.Context, *durable.RunInfo, error) error {
	x.failed.Add(1)
	return nil
}

func (x *trackingExt) OnWorkflowReset(context.Context, string, int) error {
	x.resets.Add(1)
	return nil
}

func (x *trackingExt) OnStepCompleted(context.Context, *durable.StepInfo, time.Duration) error {
	x.stepDone.Add(1)
	return nil
}

func (x *trackingExt) OnStepFailed(context.Context, *durable.StepInfo, error) error {
	x.stepFailed.Add(1)
	return nil
}

func (x *trackingExt) OnStepReplayed(context.Context, *durable.StepInfo) error {
	x.stepReplayed.Add(1)
	return nil
}

func (x *trackingExt) OnShutdown(context.Context) error {
	x.shutdowns.Add(1)
	return nil
}

// errStorage is the failure injected by failingStore.
var errStorage = errors.New("disk offline")

// failingStore wraps a ledger and fails selected operations.
type failingStore struct {
	durable.Store
	failGet bool
	failPut bool
}

func (s *failingStore) GetStep(ctx context.Context, workflowID, stepKey string) (*durable.StepRecord, error) {
	if s.failGet {
		return nil, errStorage
	}
	return s.Store.GetStep(ctx, workflowID, stepKey)
}

func (s *failingStore) PutStep(ctx context.Context, rec *durable.StepRecord) error {
	if s.failPut {
		return errStorage
	}
	return s.Store.PutStep(ctx, rec)
}
