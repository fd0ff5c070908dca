package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/durable-go/durable"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ensure Store implements durable.Store at compile time.
var _ durable.Store = (*Store)(nil)

// Store is a SQLite step ledger using the Bun ORM over the sqliteshim
// driver. All queries share a single pooled connection, so in-process
// access is fully serialized; busy_timeout bounds waits on the file lock
// when another process holds it.
type Store struct {
	db     *bun.DB
	ownsDB bool
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

// Open creates or opens a ledger file at path and returns a Store that owns
// the database handle. Close releases it.
func Open(path string, opts ...Option) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("durable/sqlite: open %s: %w", path, err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	// journal_mode persists in the file; busy_timeout sticks to the single
	// pooled connection.
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA synchronous = NORMAL`,
	} {
		if _, pragmaErr := sqldb.Exec(pragma); pragmaErr != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("durable/sqlite: %s: %w", pragma, pragmaErr)
		}
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	s := New(db, opts...)
	s.ownsDB = true
	return s, nil
}

// New creates a Store over an existing *bun.DB. The caller owns the db
// lifecycle; the Store will not close it on Close().
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *bun.DB for advanced usage.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Migrate runs all embedded SQL migration files in order.
func (s *Store) Migrate(ctx context.Context) error {
	// Create migrations tracking table.
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS durable_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("durable/sqlite: create migrations table: %w", err)
	}

	// Read embedded migration files.
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("durable/sqlite: read migrations: %w", err)
	}

	// Sort by filename for deterministic order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		// Check if already applied.
		var applied bool
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM durable_migrations WHERE filename = ?)`,
			entry.Name(),
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("durable/sqlite: check migration %s: %w", entry.Name(), err)
		}
		if applied {
			continue
		}

		// Read and execute migration.
		data, readErr := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if readErr != nil {
			return fmt.Errorf("durable/sqlite: read migration %s: %w", entry.Name(), readErr)
		}

		_, execErr := s.db.ExecContext(ctx, string(data))
		if execErr != nil {
			return fmt.Errorf("durable/sqlite: execute migration %s: %w", entry.Name(), execErr)
		}

		// Record migration.
		_, recErr := s.db.ExecContext(ctx,
			`INSERT INTO durable_migrations (filename) VALUES (?)`,
			entry.Name(),
		)
		if recErr != nil {
			return fmt.Errorf("durable/sqlite: record migration %s: %w", entry.Name(), recErr)
		}

		s.logger.Info("applied migration", "file", entry.Name())
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle when the Store owns it (Open path).
// Stores built over a caller-provided db treat Close as a no-op.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Step ledger
// ──────────────────────────────────────────────────

// GetStep returns the record for (workflowID, stepKey), or (nil, nil) when
// no record exists.
func (s *Store) GetStep(ctx context.Context, workflowID, stepKey string) (*durable.StepRecord, error) {
	m := new(stepModel)
	err := s.db.NewSelect().Model(m).
		Where("workflow_id = ?", workflowID).
		Where("step_key = ?", stepKey).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil // no record is not an error
		}
		return nil, fmt.Errorf("durable/sqlite: get step: %w", err)
	}
	return fromStepModel(m), nil
}

// PutStep upserts a record by its compound key.
func (s *Store) PutStep(ctx context.Context, rec *durable.StepRecord) error {
	m := toStepModel(rec)
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (workflow_id, step_key) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("output = EXCLUDED.output").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("durable/sqlite: put step: %w", err)
	}
	return nil
}

// ListSteps returns every record for the workflow, oldest write first.
func (s *Store) ListSteps(ctx context.Context, workflowID string) ([]*durable.StepRecord, error) {
	var models []stepModel
	err := s.db.NewSelect().Model(&models).
		Where("workflow_id = ?", workflowID).
		OrderExpr("created_at ASC, step_key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("durable/sqlite: list steps: %w", err)
	}

	records := make([]*durable.StepRecord, 0, len(models))
	for i := range models {
		records = append(records, fromStepModel(&models[i]))
	}
	return records, nil
}

// ClearWorkflow deletes every record for the workflow.
func (s *Store) ClearWorkflow(ctx context.Context, workflowID string) error {
	_, err := s.db.NewDelete().Model((*stepModel)(nil)).
		Where("workflow_id = ?", workflowID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("durable/sqlite: clear workflow: %w", err)
	}
	return nil
}
