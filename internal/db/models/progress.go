package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// StepStatus represents the state of a single progress step.
type StepStatus string

// Step status constants
const (
	// StepStatusPending indicates the step has been created but not started
	StepStatusPending StepStatus = "pending"
	// StepStatusRunning indicates the step is executing
	StepStatusRunning StepStatus = "running"
	// StepStatusCompleted indicates the step finished successfully
	StepStatusCompleted StepStatus = "completed"
	// StepStatusFailed indicates the step failed
	StepStatusFailed StepStatus = "failed"
)

// JobProgress is one step of a job's execution. Steps are append-only per
// job and numbered 1..TotalSteps; they are only deleted when the owning job
// is recycled by orphan recovery.
type JobProgress struct {
	gorm.Model
	JobID        uint            `json:"job_id" gorm:"not null;index"`
	StepNumber   int             `json:"step_number" gorm:"not null"`
	StepName     string          `json:"step_name" gorm:"not null"`
	Status       StepStatus      `json:"status" gorm:"not null"`
	Message      string          `json:"message,omitempty" gorm:"type:text"`
	Details      json.RawMessage `json:"details,omitempty" gorm:"type:jsonb"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty" gorm:"type:text"`
}

// BeforeCreate is a GORM hook that runs before creating a progress step
func (p *JobProgress) BeforeCreate(_ *gorm.DB) error {
	if p.Status == "" {
		p.Status = StepStatusPending
	}
	return nil
}
