package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/durable-go/durable"
	"github.com/durable-go/durable/store/memory"
	"github.com/durable-go/durable/workflow"
)

func TestStepWithResult_Memoizes(t *testing.T) {
	t.Parallel()
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(c *workflow.Context) (string, error) {
		return workflow.StepWithResult(c, "fetch-quote", func(context.Context) (string, error) {
			calls.Add(1)
			return "72.50 USD", nil
		})
	}

	first, err := workflow.Execute(ctx, eng, "wf-memo", fn)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second, err := workflow.Execute(ctx, eng, "wf-memo", fn)
	if err != nil {
		t.Fatalf("replay Execute() error = %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("step body ran %d times, want 1", got)
	}
	if first != second {
		t.Errorf("replayed value = %q, want %q", second, first)
	}
}

func TestStep_ReplaySkipsBody(t *testing.T) {
	t.Parallel()
	eng, st := newTestEngine(t)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(c *workflow.Context) error {
		return c.Step("notify", func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}

	if err := eng.Run(ctx, "wf-noresult", fn); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := eng.Run(ctx, "wf-noresult", fn); err != nil {
		t.Fatalf("replay Run() error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("step body ran %d times, want 1", got)
	}

	// A completed no-result step still stores an envelope, so its record
	// is distinguishable from a FAILED record's nil output.
	rec, err := st.GetStep(ctx, "wf-noresult", "notify_0")
	if err != nil {
		t.Fatalf("GetStep() error = %v", err)
	}
	if rec == nil {
		t.Fatal("GetStep() = nil, want record")
	}
	if rec.Status != durable.StatusCompleted {
		t.Errorf("Status = %q, want %q", rec.Status, durable.StatusCompleted)
	}
	if len(rec.Output) == 0 {
		t.Error("completed no-result step has empty output envelope")
	}
}

func TestExecute_ResumesAfterFailure(t *testing.T) {
	t.Parallel()
	eng, st := newTestEngine(t)
	ctx := context.Background()

	var s1, s2, s3, s4 atomic.Int32
	errAccess := errors.New("ldap unreachable")

	run := func(failAccess bool) error {
		return eng.Run(ctx, "wf-resume", func(c *workflow.Context) error {
			if err := c.Step("create-record", func(context.Context) error {
				s1.Add(1)
				return nil
			}); err != nil {
				return err
			}
			if err := c.Step("provision-laptop", func(context.Context) error {
				s2.Add(1)
				return nil
			}); err != nil {
				return err
			}
			if err := c.Step("setup-access", func(context.Context) error {
				s3.Add(1)
				if failAccess {
					return errAccess
				}
				return nil
			}); err != nil {
				return err
			}
			return c.Step("send-welcome", func(context.Context) error {
				s4.Add(1)
				return nil
			})
		})
	}

	err := run(true)
	if err == nil {
		t.Fatal("first invocation should fail")
	}
	if !errors.Is(err, errAccess) {
		t.Errorf("errors.Is(err, errAccess) = false, err = %v", err)
	}
	var stepErr *durable.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %v is not a *durable.StepError", err)
	}
	if stepErr.StepKey != "setup-access_2" {
		t.Errorf("StepKey = %q, want %q", stepErr.StepKey, "setup-access_2")
	}
	if got := s4.Load(); got != 0 {
		t.Errorf("step after failure ran %d times, want 0", got)
	}

	rec, getErr := st.GetStep(ctx, "wf-resume", "setup-access_2")
	if getErr != nil {
		t.Fatalf("GetStep() error = %v", getErr)
	}
	if rec == nil || rec.Status != durable.StatusFailed {
		t.Fatalf("failed step record = %+v, want FAILED", rec)
	}
	if rec.Output != nil {
		t.Errorf("FAILED record output = %v, want nil", rec.Output)
	}

	if err := run(false); err != nil {
		t.Fatalf("resume Run() error = %v", err)
	}
	if got := s1.Load(); got != 1 {
		t.Errorf("completed step 1 ran %d times, want 1", got)
	}
	if got := s2.Load(); got != 1 {
		t.Errorf("completed step 2 ran %d times, want 1", got)
	}
	if got := s3.Load(); got != 2 {
		t.Errorf("failed step ran %d times, want 2", got)
	}
	if got := s4.Load(); got != 1 {
		t.Errorf("new step ran %d times, want 1", got)
	}
}

func TestExecute_DeterministicReplay(t *testing.T) {
	t.Parallel()
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(c *workflow.Context) (string, error) {
		record, err := workflow.StepWithResult(c, "create-record", func(context.Context) (string, error) {
			calls.Add(1)
			return "EMP-1042", nil
		})
		if err != nil {
			return "", err
		}
		user, err := workflow.StepWithResult(c, "setup-access", func(context.Context) (string, error) {
			calls.Add(1)
			return "jane.smith", nil
		})
		if err != nil {
			return "", err
		}
		return record + "/" + user, nil
	}

	first, err := workflow.Execute(ctx, eng, "wf-replay", fn)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	before := calls.Load()

	second, err := workflow.Execute(ctx, eng, "wf-replay", fn)
	if err != nil {
		t.Fatalf("replay Execute() error = %v", err)
	}
	if second != first {
		t.Errorf("replayed output = %q, want %q", second, first)
	}
	if got := calls.Load(); got != before {
		t.Errorf("replay invoked %d step bodies, want 0", got-before)
	}
}

func TestStep_SequenceInLoop(t *testing.T) {
	t.Parallel()
	eng, st := newTestEngine(t)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(c *workflow.Context) (string, error) {
		out := ""
		for i := 0; i < 3; i++ {
			part, err := workflow.StepWithResult(c, "iterate", func(context.Context) (string, error) {
				calls.Add(1)
				return fmt.Sprintf("iteration-%d", i), nil
			})
			if err != nil {
				return "", err
			}
			if out != "" {
				out += " "
			}
			out += part
		}
		return out, nil
	}

	got, err := workflow.Execute(ctx, eng, "wf-loop", fn)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "iteration-0 iteration-1 iteration-2"
	if got != want {
		t.Errorf("Execute() = %q, want %q", got, want)
	}

	// Same logical id reused in a loop derives distinct keys.
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("iterate_%d", i)
		rec, getErr := st.GetStep(ctx, "wf-loop", key)
		if getErr != nil {
			t.Fatalf("GetStep(%q) error = %v", key, getErr)
		}
		if rec == nil {
			t.Errorf("no record for %q", key)
		}
	}

	// Replay preserves per-iteration results without running bodies.
	replayed, err := workflow.Execute(ctx, eng, "wf-loop", fn)
	if err != nil {
		t.Fatalf("replay Execute() error = %v", err)
	}
	if replayed != want {
		t.Errorf("replayed = %q, want %q", replayed, want)
	}
	if gotCalls := calls.Load(); gotCalls != 3 {
		t.Errorf("step bodies ran %d times, want 3", gotCalls)
	}
}

func TestStepWithResult_TypeRoundTrip(t *testing.T) {
	t.Parallel()

	type badge struct {
		Number int    `json:"number"`
		Label  string `json:"label"`
	}

	eng, _ := newTestEngine(t)

	t.Run("string", func(t *testing.T) {
		roundTrip(t, eng, "rt-string", "hello")
	})
	t.Run("int", func(t *testing.T) {
		roundTrip(t, eng, "rt-int", 42)
	})
	t.Run("bool", func(t *testing.T) {
		roundTrip(t, eng, "rt-bool", true)
	})
	t.Run("float64", func(t *testing.T) {
		roundTrip(t, eng, "rt-float", 3.14)
	})
	t.Run("struct", func(t *testing.T) {
		roundTrip(t, eng, "rt-struct", badge{Number: 7, Label: "contractor"})
	})
}

// roundTrip runs a single-step workflow twice: the first invocation
// stores the value, the second must decode it back identically.
func roundTrip[T comparable](t *testing.T, eng *workflow.Engine, workflowID string, want T) {
	t.Helper()
	ctx := context.Background()

	fn := func(c *workflow.Context) (T, error) {
		return workflow.StepWithResult(c, "produce", func(context.Context) (T, error) {
			return want, nil
		})
	}

	got, err := workflow.Execute(ctx, eng, workflowID, fn)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != want {
		t.Fatalf("Execute() = %v, want %v", got, want)
	}

	replayed, err := workflow.Execute(ctx, eng, workflowID, fn)
	if err != nil {
		t.Fatalf("replay Execute() error = %v", err)
	}
	if replayed != want {
		t.Errorf("replayed value = %v, want %v", replayed, want)
	}
}

func TestStepWithResult_TypeMismatchFails(t *testing.T) {
	t.Parallel()
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := workflow.Execute(ctx, eng, "wf-mismatch", func(c *workflow.Context) (int, error) {
		return workflow.StepWithResult(c, "count", func(context.Context) (int, error) {
			return 7, nil
		})
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Replaying the same key into a different type must fail loudly.
	_, err = workflow.Execute(ctx, eng, "wf-mismatch", func(c *workflow.Context) (string, error) {
		return workflow.StepWithResult(c, "count", func(context.Context) (string, error) {
			return "seven", nil
		})
	})
	if err == nil {
		t.Fatal("replay into mismatched type should fail")
	}
	var serErr *durable.SerializationError
	if !errors.As(err, &serErr) {
		t.Fatalf("error %v is not a *durable.SerializationError", err)
	}
	if serErr.StepKey != "count_0" {
		t.Errorf("StepKey = %q, want %q", serErr.StepKey, "count_0")
	}
}

func TestStep_PersistenceErrorOnGet(t *testing.T) {
	t.Parallel()
	st := &failingStore{Store: memory.New(), failGet: true}
	eng, err := workflow.NewEngine(st, workflow.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	runErr := eng.Run(context.Background(), "wf-badget", func(c *workflow.Context) error {
		return c.Step("anything", func(context.Context) error { return nil })
	})
	if runErr == nil {
		t.Fatal("Run() should fail when the ledger read fails")
	}
	var perr *durable.PersistenceError
	if !errors.As(runErr, &perr) {
		t.Fatalf("error %v is not a *durable.PersistenceError", runErr)
	}
	if perr.Op != "get" {
		t.Errorf("Op = %q, want %q", perr.Op, "get")
	}
	if !errors.Is(runErr, errStorage) {
		t.Errorf("errors.Is(err, errStorage) = false")
	}
}

func TestStep_PersistenceErrorOnPut(t *testing.T) {
	t.Parallel()
	st := &failingStore{Store: memory.New(), failPut: true}
	eng, err := workflow.NewEngine(st, workflow.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	var calls atomic.Int32
	runErr := eng.Run(context.Background(), "wf-badput", func(c *workflow.Context) error {
		return c.Step("anything", func(context.Context) error {
			calls.Add(1)
			return nil
		})
	})
	if runErr == nil {
		t.Fatal("Run() should fail when the ledger write fails")
	}
	var perr *durable.PersistenceError
	if !errors.As(runErr, &perr) {
		t.Fatalf("error %v is not a *durable.PersistenceError", runErr)
	}
	if perr.Op != "put" {
		t.Errorf("Op = %q, want %q", perr.Op, "put")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("step body ran %d times, want 1", got)
	}
}

func TestStep_PersistenceErrorWinsOverStepError(t *testing.T) {
	t.Parallel()
	st := &failingStore{Store: memory.New(), failPut: true}
	eng, err := workflow.NewEngine(st, workflow.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	errBoom := errors.New("boom")
	runErr := eng.Run(context.Background(), "wf-doublefault", func(c *workflow.Context) error {
		return c.Step("explode", func(context.Context) error { return errBoom })
	})
	if runErr == nil {
		t.Fatal("Run() should fail")
	}

	// Recording the failure failed too; the systemic error surfaces.
	var perr *durable.PersistenceError
	if !errors.As(runErr, &perr) {
		t.Fatalf("error %v is not a *durable.PersistenceError", runErr)
	}
	if errors.Is(runErr, errBoom) {
		t.Error("step error should not be reachable when the FAILED write itself failed")
	}
}
