package services

import (
	"context"
	"encoding/json"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/db/repos"
)

// Tracker manages step records and the job-level progress percentage.
type Tracker struct {
	jobs  *repos.JobRepository
	steps *repos.ProgressRepository
}

// NewTracker creates a new progress tracker instance
func NewTracker(jobs *repos.JobRepository, steps *repos.ProgressRepository) *Tracker {
	return &Tracker{jobs: jobs, steps: steps}
}

// CreateStep inserts a step in pending state. A step is always created
// before it is transitioned.
func (t *Tracker) CreateStep(ctx context.Context, jobID uint, number int, name string) (*models.JobProgress, error) {
	return t.steps.CreateStep(ctx, jobID, number, name)
}

// UpdateStep transitions a step and stamps its timestamps.
func (t *Tracker) UpdateStep(ctx context.Context, step *models.JobProgress, status models.StepStatus, message string, details json.RawMessage) error {
	return t.steps.UpdateStep(ctx, step, status, message, details)
}

// UpdateJobProgress recomputes the job's percentage from the completed step
// count. Zero total yields zero percent.
func (t *Tracker) UpdateJobProgress(ctx context.Context, job *models.SourcingJob, current, total int) error {
	job.CurrentStep = current
	job.TotalSteps = total
	if total > 0 {
		job.Progress = float64(current) / float64(total) * 100
	} else {
		job.Progress = 0
	}
	return t.jobs.Update(ctx, job)
}

// FailActive marks every non-terminal step of a job as failed. Used when a
// worker observes a cancellation.
func (t *Tracker) FailActive(ctx context.Context, jobID uint, message string) error {
	return t.steps.FailActive(ctx, jobID, message)
}
