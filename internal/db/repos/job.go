// Package repos implements database access for the persisted entities.
package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// ErrJobNotCancellable is returned when cancelling a job that is already in
// a terminal state.
var ErrJobNotCancellable = errors.New("job is not pending or running")

// JobRepository handles database operations for sourcing jobs
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job in the database
func (r *JobRepository) Create(ctx context.Context, job *models.SourcingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// CreateBatch creates a batch of jobs inside one transaction
func (r *JobRepository) CreateBatch(ctx context.Context, jobs []*models.SourcingJob) error {
	if len(jobs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(jobs, 100).Error
	})
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id uint) (*models.SourcingJob, error) {
	var job models.SourcingJob
	err := r.db.WithContext(ctx).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// GetStatus reads only the current status of a job. Used by workers to poll
// for cooperative cancellation without loading the full row.
func (r *JobRepository) GetStatus(ctx context.Context, id uint) (models.JobStatus, error) {
	var status string
	err := r.db.WithContext(ctx).Model(&models.SourcingJob{}).
		Where("id = ?", id).
		Pluck(models.JobStatusField, &status).Error
	if err != nil {
		return "", fmt.Errorf("failed to read job status: %w", err)
	}
	if status == "" {
		return "", gorm.ErrRecordNotFound
	}
	return models.JobStatus(status), nil
}

// Update persists every field of an existing job
func (r *JobRepository) Update(ctx context.Context, job *models.SourcingJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// ClaimPending selects up to limit pending jobs, oldest first, marks them
// running and returns them. The select uses FOR UPDATE SKIP LOCKED on
// postgres so two processes polling concurrently never claim the same job;
// the status transition commits in the same transaction, closing the race.
// Returns an empty slice when limit is zero or nothing is pending.
func (r *JobRepository) ClaimPending(ctx context.Context, limit int) ([]models.SourcingJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	var claimed []models.SourcingJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", models.JobStatusPending).
			Order(models.JobCreatedAtField + " ASC").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		now := time.Now().UTC()
		for i := range claimed {
			claimed[i].Status = models.JobStatusRunning
			if claimed[i].StartedAt == nil {
				claimed[i].StartedAt = &now
			}
			if err := tx.Model(&models.SourcingJob{}).
				Where("id = ?", claimed[i].ID).
				Updates(map[string]interface{}{
					"status":     models.JobStatusRunning,
					"started_at": claimed[i].StartedAt,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	return claimed, nil
}

// RecoverOrphaned resets every job left in running state by a previous
// process back to pending and deletes its progress steps so it re-runs from
// step 1. Jobs in out_of_credits are deliberately left alone; they wait for
// credits to be added.
func (r *JobRepository) RecoverOrphaned(ctx context.Context) (int64, error) {
	var recovered int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orphans []models.SourcingJob
		if err := tx.Where("status = ?", models.JobStatusRunning).Find(&orphans).Error; err != nil {
			return err
		}
		for i := range orphans {
			if err := tx.Model(&models.SourcingJob{}).
				Where("id = ?", orphans[i].ID).
				Updates(map[string]interface{}{
					"status":              models.JobStatusPending,
					"started_at":          nil,
					"current_step":        0,
					"progress_percentage": 0,
				}).Error; err != nil {
				return err
			}
			if err := tx.Where("job_id = ?", orphans[i].ID).
				Delete(&models.JobProgress{}).Error; err != nil {
				return err
			}
		}
		recovered = int64(len(orphans))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recover orphaned jobs: %w", err)
	}
	return recovered, nil
}

// Cancel marks a pending or running job as cancelled. The running worker
// discovers the flip at its next status check; this call never interrupts
// an in-flight step.
func (r *JobRepository) Cancel(ctx context.Context, id uint) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusPending && job.Status != models.JobStatusRunning {
		return fmt.Errorf("%w: status is %s", ErrJobNotCancellable, job.Status)
	}

	now := time.Now().UTC()
	completedAt := job.CompletedAt
	if completedAt == nil {
		completedAt = &now
	}
	return r.db.WithContext(ctx).Model(&models.SourcingJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.JobStatusCancelled,
			"completed_at":  completedAt,
			"error_message": "Cancelled by user",
		}).Error
}

// List returns jobs filtered by optional status and project, newest first
func (r *JobRepository) List(ctx context.Context, status models.JobStatus, projectID uint, opts *models.ListOptions) ([]models.SourcingJob, error) {
	var jobs []models.SourcingJob
	q := r.db.WithContext(ctx).Model(&models.SourcingJob{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if projectID != 0 {
		q = q.Where("project_id = ?", projectID)
	}
	if opts != nil {
		q = q.Limit(opts.Limit).Offset(opts.Offset)
	}
	err := q.Order(models.JobCreatedAtField + " DESC").Find(&jobs).Error
	return jobs, err
}

// CountByStatus counts jobs in the given statuses
func (r *JobRepository) CountByStatus(ctx context.Context, statuses ...models.JobStatus) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.SourcingJob{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Count(&count).Error
	return count, err
}

// CountCompletedSince counts jobs completed at or after the given time
func (r *JobRepository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SourcingJob{}).
		Where("status = ? AND completed_at >= ?", models.JobStatusCompleted, since).
		Count(&count).Error
	return count, err
}
