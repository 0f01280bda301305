package services

import (
	"context"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/db/repos"
)

// Job handles job-related operations for the API surface.
type Job struct {
	repo  *repos.JobRepository
	steps *repos.ProgressRepository
}

// NewJobService creates a new instance of the job service
func NewJobService(repo *repos.JobRepository, steps *repos.ProgressRepository) *Job {
	return &Job{repo: repo, steps: steps}
}

// Create creates a new pending job
func (s *Job) Create(ctx context.Context, job *models.SourcingJob) error {
	return s.repo.Create(ctx, job)
}

// Get retrieves a job by ID
func (s *Job) Get(ctx context.Context, id uint) (*models.SourcingJob, error) {
	return s.repo.GetByID(ctx, id)
}

// GetWithSteps retrieves a job together with its ordered progress steps
func (s *Job) GetWithSteps(ctx context.Context, id uint) (*models.SourcingJob, []models.JobProgress, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.steps.ListByJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return job, steps, nil
}

// List retrieves jobs filtered by optional status and project
func (s *Job) List(ctx context.Context, status models.JobStatus, projectID uint, opts *models.ListOptions) ([]models.SourcingJob, error) {
	return s.repo.List(ctx, status, projectID, opts)
}

// Cancel flips a pending or running job to cancelled. The worker holding
// the job discovers the flip at its next status check.
func (s *Job) Cancel(ctx context.Context, id uint) error {
	return s.repo.Cancel(ctx, id)
}

// JobStats is the summary returned by the stats endpoint.
type JobStats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	CompletedToday int64 `json:"completed_today"`
	Failed         int64 `json:"failed"`
	OutOfCredits   int64 `json:"out_of_credits"`
}

// Stats aggregates job counts for the dashboard
func (s *Job) Stats(ctx context.Context) (*JobStats, error) {
	total, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountByStatus(ctx, models.JobStatusPending, models.JobStatusRunning)
	if err != nil {
		return nil, err
	}
	failed, err := s.repo.CountByStatus(ctx, models.JobStatusFailed)
	if err != nil {
		return nil, err
	}
	outOfCredits, err := s.repo.CountByStatus(ctx, models.JobStatusOutOfCredits)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	completedToday, err := s.repo.CountCompletedSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	return &JobStats{
		Total:          total,
		Active:         active,
		CompletedToday: completedToday,
		Failed:         failed,
		OutOfCredits:   outOfCredits,
	}, nil
}
