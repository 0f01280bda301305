package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// ProgressRepository handles database operations for job progress steps
type ProgressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new progress repository instance
func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// CreateStep inserts a new step in pending state.
func (r *ProgressRepository) CreateStep(ctx context.Context, jobID uint, number int, name string) (*models.JobProgress, error) {
	step := &models.JobProgress{
		JobID:      jobID,
		StepNumber: number,
		StepName:   name,
		Status:     models.StepStatusPending,
	}
	if err := r.db.WithContext(ctx).Create(step).Error; err != nil {
		return nil, fmt.Errorf("failed to create progress step: %w", err)
	}
	return step, nil
}

// UpdateStep transitions a step. Entering running stamps StartedAt; entering
// completed or failed stamps CompletedAt. A failed status mirrors the
// message into ErrorMessage.
func (r *ProgressRepository) UpdateStep(ctx context.Context, step *models.JobProgress, status models.StepStatus, message string, details json.RawMessage) error {
	now := time.Now().UTC()

	step.Status = status
	if message != "" {
		step.Message = message
		if status == models.StepStatusFailed {
			step.ErrorMessage = message
		}
	}
	if details != nil {
		step.Details = details
	}

	switch status {
	case models.StepStatusRunning:
		step.StartedAt = &now
	case models.StepStatusCompleted, models.StepStatusFailed:
		step.CompletedAt = &now
	}

	if err := r.db.WithContext(ctx).Save(step).Error; err != nil {
		return fmt.Errorf("failed to update progress step: %w", err)
	}
	return nil
}

// FailActive marks every pending or running step of a job as failed with the
// given message. Used when a worker observes a cancellation.
func (r *ProgressRepository) FailActive(ctx context.Context, jobID uint, message string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.JobProgress{}).
		Where("job_id = ? AND status IN ?", jobID,
			[]models.StepStatus{models.StepStatusPending, models.StepStatusRunning}).
		Updates(map[string]interface{}{
			"status":        models.StepStatusFailed,
			"message":       message,
			"error_message": message,
			"completed_at":  now,
		}).Error
}

// ListByJob returns a job's steps ordered by step number
func (r *ProgressRepository) ListByJob(ctx context.Context, jobID uint) ([]models.JobProgress, error) {
	var steps []models.JobProgress
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("step_number ASC").
		Find(&steps).Error
	return steps, err
}
