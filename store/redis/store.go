// Package redis implements the step ledger on Redis for short-lived,
// high-throughput workflows. Step records live in Hashes with a Set per
// workflow indexing its step keys.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/durable-go/durable"
)

// Compile-time interface check.
var _ durable.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements the step ledger backed by Redis.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Migrate is a no-op for Redis (schemaless).
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Step ledger
// ──────────────────────────────────────────────────

// GetStep returns the record for (workflowID, stepKey), or (nil, nil) when
// no record exists.
func (s *Store) GetStep(ctx context.Context, workflowID, stepKey string) (*durable.StepRecord, error) {
	vals, err := s.client.HGetAll(ctx, stepHashKey(workflowID, stepKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("durable/redis: get step: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil // no record is not an error
	}
	return recordFromHash(vals), nil
}

// PutStep upserts a record by its compound key. The old hash is dropped
// first so a record without output never keeps a stale output field.
func (s *Store) PutStep(ctx context.Context, rec *durable.StepRecord) error {
	key := stepHashKey(rec.WorkflowID, rec.StepKey)

	fields := []interface{}{
		"workflow_id", rec.WorkflowID,
		"step_key", rec.StepKey,
		"status", string(rec.Status),
		"created_at", rec.CreatedAt.Format(time.RFC3339Nano),
	}
	if rec.Output != nil {
		fields = append(fields, "output", string(rec.Output))
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields...)
	pipe.SAdd(ctx, stepIndexKey(rec.WorkflowID), rec.StepKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("durable/redis: put step: %w", err)
	}
	return nil
}

// ListSteps returns every record for the workflow, oldest write first.
func (s *Store) ListSteps(ctx context.Context, workflowID string) ([]*durable.StepRecord, error) {
	stepKeys, err := s.client.SMembers(ctx, stepIndexKey(workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("durable/redis: list steps: %w", err)
	}

	records := make([]*durable.StepRecord, 0, len(stepKeys))
	for _, stepKey := range stepKeys {
		vals, getErr := s.client.HGetAll(ctx, stepHashKey(workflowID, stepKey)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		records = append(records, recordFromHash(vals))
	}

	sort.Slice(records, func(i, k int) bool {
		if records[i].CreatedAt.Equal(records[k].CreatedAt) {
			return records[i].StepKey < records[k].StepKey
		}
		return records[i].CreatedAt.Before(records[k].CreatedAt)
	})

	return records, nil
}

// ClearWorkflow deletes every record for the workflow.
func (s *Store) ClearWorkflow(ctx context.Context, workflowID string) error {
	indexKey := stepIndexKey(workflowID)
	stepKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("durable/redis: clear workflow: %w", err)
	}

	keys := make([]string, 0, len(stepKeys)+1)
	for _, stepKey := range stepKeys {
		keys = append(keys, stepHashKey(workflowID, stepKey))
	}
	keys = append(keys, indexKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("durable/redis: clear workflow: %w", err)
	}
	return nil
}

// recordFromHash rebuilds a StepRecord from its Redis hash fields.
func recordFromHash(vals map[string]string) *durable.StepRecord {
	createdAt, _ := time.Parse(time.RFC3339Nano, vals["created_at"])

	rec := &durable.StepRecord{
		WorkflowID: vals["workflow_id"],
		StepKey:    vals["step_key"],
		Status:     durable.Status(vals["status"]),
		CreatedAt:  createdAt,
	}
	if output, ok := vals["output"]; ok {
		rec.Output = []byte(output)
	}
	return rec
}
