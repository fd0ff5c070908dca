package mongo

import (
	"time"

	"github.com/durable-go/durable"
)

type stepModel struct {
	WorkflowID string    `bson:"workflow_id"`
	StepKey    string    `bson:"step_key"`
	Status     string    `bson:"status"`
	Output     []byte    `bson:"output,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
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
