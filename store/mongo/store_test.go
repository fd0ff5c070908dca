//go:build integration

package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/durable-go/durable"
	"github.com/durable-go/durable/store/mongo"
)

// setupTestStore connects to the MongoDB named by MONGO_URI
// (default mongodb://localhost:27017) and clears the test workflows.
func setupTestStore(t *testing.T) *mongo.Store {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	client, err := mongod.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	s := mongo.New(client.Database("durable_test"))
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Skipf("mongo not reachable at %s: %v", uri, err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, wf := range []string{"wf-1", "wf-2"} {
		if err := s.ClearWorkflow(ctx, wf); err != nil {
			t.Fatalf("clear workflow %s: %v", wf, err)
		}
	}
	return s
}

func newRecord(workflowID, stepKey string, status durable.Status, output []byte) *durable.StepRecord {
	return &durable.StepRecord{
		WorkflowID: workflowID,
		StepKey:    stepKey,
		Status:     status,
		Output:     output,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestStore_GetStepAbsent(t *testing.T) {
	s := setupTestStore(t)

	rec, err := s.GetStep(context.Background(), "wf-1", "step_0")
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record for absent step, got %+v", rec)
	}
}

func TestStore_PutAndGetStep(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.PutStep(ctx, newRecord("wf-1", "charge_0", durable.StatusCompleted, []byte(`{"amount":42}`))); err != nil {
		t.Fatalf("put step: %v", err)
	}

	got, err := s.GetStep(ctx, "wf-1", "charge_0")
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Status != durable.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, durable.StatusCompleted)
	}
	if string(got.Output) != `{"amount":42}` {
		t.Errorf("Output = %s, want %s", got.Output, `{"amount":42}`)
	}
}

func TestStore_PutStepUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.PutStep(ctx, newRecord("wf-1", "charge_0", durable.StatusCompleted, []byte(`"ok"`))); err != nil {
		t.Fatalf("put step: %v", err)
	}
	// Replace with FAILED; the stored output must go away entirely.
	if err := s.PutStep(ctx, newRecord("wf-1", "charge_0", durable.StatusFailed, nil)); err != nil {
		t.Fatalf("overwrite step: %v", err)
	}

	got, err := s.GetStep(ctx, "wf-1", "charge_0")
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if got.Status != durable.StatusFailed {
		t.Errorf("Status = %q, want %q after upsert", got.Status, durable.StatusFailed)
	}
	if got.Output != nil {
		t.Errorf("expected nil output after FAILED overwrite, got %s", got.Output)
	}

	steps, err := s.ListSteps(ctx, "wf-1")
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(steps))
	}
}

func TestStore_ListStepsOrderedByWrite(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	keys := []string{"create_0", "provision_1", "notify_2"}
	for i, key := range keys {
		rec := &durable.StepRecord{
			WorkflowID: "wf-1",
			StepKey:    key,
			Status:     durable.StatusCompleted,
			Output:     []byte(`true`),
			CreatedAt:  base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.PutStep(ctx, rec); err != nil {
			t.Fatalf("put step: %v", err)
		}
	}

	steps, err := s.ListSteps(ctx, "wf-1")
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != len(keys) {
		t.Fatalf("expected %d records, got %d", len(keys), len(steps))
	}
	for i, want := range keys {
		if steps[i].StepKey != want {
			t.Errorf("steps[%d].StepKey = %q, want %q", i, steps[i].StepKey, want)
		}
	}
}

func TestStore_ClearWorkflow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.PutStep(ctx, newRecord("wf-1", "a_0", durable.StatusCompleted, []byte(`1`))); err != nil {
		t.Fatalf("put step: %v", err)
	}
	if err := s.PutStep(ctx, newRecord("wf-2", "a_0", durable.StatusCompleted, []byte(`1`))); err != nil {
		t.Fatalf("put step: %v", err)
	}

	if err := s.ClearWorkflow(ctx, "wf-1"); err != nil {
		t.Fatalf("clear workflow: %v", err)
	}

	steps, err := s.ListSteps(ctx, "wf-1")
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("expected 0 records after clear, got %d", len(steps))
	}

	rec, err := s.GetStep(ctx, "wf-2", "a_0")
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if rec == nil {
		t.Fatal("wf-2 record should survive wf-1 clear")
	}
}
