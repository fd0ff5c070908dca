// Package mongo implements the step ledger on MongoDB using the official
// driver. Uniqueness of (workflow_id, step_key) is enforced by a compound
// index created in Migrate.
//
//	client, err := mongod.Connect(options.Client().ApplyURI("mongodb://localhost:27017"))
//	if err != nil { ... }
//	s := mongo.New(client.Database("durable"))
//	s.Migrate(ctx)
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/durable-go/durable"
)

// colSteps is the collection holding step records.
const colSteps = "durable_steps"

// Ensure Store implements durable.Store at compile time.
var _ durable.Store = (*Store)(nil)

// Store is a MongoDB step ledger. The caller owns the client lifecycle;
// Store never disconnects it.
type Store struct {
	db     *mongod.Database
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new MongoDB store over the given database handle.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the underlying *mongo.Database for advanced usage.
func (s *Store) Database() *mongod.Database {
	return s.db
}

// Migrate creates the ledger indexes.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []mongod.IndexModel{
		// Upsert identity.
		{
			Keys: bson.D{
				{Key: "workflow_id", Value: 1},
				{Key: "step_key", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// Listing order.
		{
			Keys: bson.D{
				{Key: "workflow_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
	}

	if _, err := s.db.Collection(colSteps).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("durable/mongo: migrate %s indexes: %w", colSteps, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close is a no-op; the caller owns the client lifecycle.
func (s *Store) Close() error {
	return nil
}

// ──────────────────────────────────────────────────
// Step ledger
// ──────────────────────────────────────────────────

// GetStep returns the record for (workflowID, stepKey), or (nil, nil) when
// no record exists.
func (s *Store) GetStep(ctx context.Context, workflowID, stepKey string) (*durable.StepRecord, error) {
	var m stepModel
	err := s.db.Collection(colSteps).FindOne(ctx, bson.M{
		"workflow_id": workflowID,
		"step_key":    stepKey,
	}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, nil // no record is not an error
		}
		return nil, fmt.Errorf("durable/mongo: get step: %w", err)
	}
	return fromStepModel(&m), nil
}

// PutStep upserts a record by its compound key.
func (s *Store) PutStep(ctx context.Context, rec *durable.StepRecord) error {
	filter := bson.M{
		"workflow_id": rec.WorkflowID,
		"step_key":    rec.StepKey,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(colSteps).ReplaceOne(ctx, filter, toStepModel(rec), opts)
	if err != nil {
		return fmt.Errorf("durable/mongo: put step: %w", err)
	}
	return nil
}

// ListSteps returns every record for the workflow, oldest write first.
func (s *Store) ListSteps(ctx context.Context, workflowID string) ([]*durable.StepRecord, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "step_key", Value: 1},
	})
	cursor, err := s.db.Collection(colSteps).Find(ctx, bson.M{"workflow_id": workflowID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("durable/mongo: list steps: %w", err)
	}
	defer cursor.Close(ctx)

	var models []stepModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("durable/mongo: list steps decode: %w", err)
	}

	records := make([]*durable.StepRecord, 0, len(models))
	for i := range models {
		records = append(records, fromStepModel(&models[i]))
	}
	return records, nil
}

// ClearWorkflow deletes every record for the workflow.
func (s *Store) ClearWorkflow(ctx context.Context, workflowID string) error {
	_, err := s.db.Collection(colSteps).DeleteMany(ctx, bson.M{"workflow_id": workflowID})
	if err != nil {
		return fmt.Errorf("durable/mongo: clear workflow: %w", err)
	}
	return nil
}
