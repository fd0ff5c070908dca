package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/durable-go/durable"
)

type stepModel struct {
	bun.BaseModel `bun:"table:durable_steps"`

	WorkflowID string    `bun:"workflow_id,pk"`
	StepKey    string    `bun:"step_key,pk"`
	Status     string    `bun:"status,notnull"`
	Output     []byte    `bun:"output"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func toStepModel(rec *durable.StepRecord) *stepModel {
	return &stepModel{
		WorkflowID: rec.WorkflowID,
		StepKey:    rec.StepKey,
		Status:     string(rec.Status),
		Output:     rec.Output,
		CreatedAt:  rec.CreatedAt,
	}
}

func fromStepModel(m *stepModel) *durable.StepRecord {
	return &durable.StepRecord{
		WorkflowID: m.WorkflowID,
		StepKey:    m.StepKey,
		Status:     durable.Status(m.Status),
		Output:     m.Output,
		CreatedAt:  m.CreatedAt,
	}
}

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
