package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// JobType identifies which processing routine handles a job.
type JobType string

// Job type constants
const (
	// JobTypeRepositorySourcing fetches repository metadata and contributors
	JobTypeRepositorySourcing JobType = "repository_sourcing"
	// JobTypeSocialEnrichment enriches a single contributor with social data
	JobTypeSocialEnrichment JobType = "social_enrichment"
	// JobTypeStargazerAnalysis sources identities from the stargazer list
	JobTypeStargazerAnalysis JobType = "stargazer_analysis"
	// JobTypeClayPush delivers leads to the configured webhook
	JobTypeClayPush JobType = "clay_push"
)

// JobStatus represents the current state of a sourcing job.
type JobStatus string

// Job status constants
const (
	// JobStatusPending indicates the job is waiting to be claimed
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is held by a worker
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished successfully
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was cancelled by a user
	JobStatusCancelled JobStatus = "cancelled"
	// JobStatusOutOfCredits indicates the job was declined by billing and
	// waits for credits to be replenished
	JobStatusOutOfCredits JobStatus = "out_of_credits"
)

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether the status is final. Terminal jobs are never
// re-claimed.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusOutOfCredits:
		return true
	}
	return false
}

// ParseJobStatus converts a string to a JobStatus
func ParseJobStatus(str string) (JobStatus, error) {
	switch JobStatus(str) {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled, JobStatusOutOfCredits:
		return JobStatus(str), nil
	default:
		return "", fmt.Errorf("invalid job status: %s", str)
	}
}

// ParseJobType converts a string to a JobType
func ParseJobType(str string) (JobType, error) {
	switch JobType(str) {
	case JobTypeRepositorySourcing, JobTypeSocialEnrichment,
		JobTypeStargazerAnalysis, JobTypeClayPush:
		return JobType(str), nil
	default:
		return "", fmt.Errorf("invalid job type: %s", str)
	}
}

// SourcingJob is the unit of asynchronous work. It is claimed from the
// database by the processor; the database row is the only coordination
// point between processes.
type SourcingJob struct {
	gorm.Model
	ProjectID    uint            `json:"project_id" gorm:"index"`
	RepositoryID uint            `json:"repository_id" gorm:"index"`
	JobType      JobType         `json:"job_type" gorm:"not null;index"`
	Status       JobStatus       `json:"status" gorm:"not null;index"`
	TotalSteps   int             `json:"total_steps"`
	CurrentStep  int             `json:"current_step"`
	Progress     float64         `json:"progress_percentage" gorm:"column:progress_percentage"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty" gorm:"type:text"`
	Metadata     json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedBy    uint            `json:"created_by" gorm:"index"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
}

// BeforeCreate is a GORM hook that runs before creating a new job
func (j *SourcingJob) BeforeCreate(_ *gorm.DB) error {
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	if _, err := ParseJobType(string(j.JobType)); err != nil {
		return err
	}
	return nil
}

// EnrichmentPayload is the typed metadata of a social_enrichment job.
type EnrichmentPayload struct {
	ContributorID uint `json:"contributor_id"`
}

// ClayPushPayload is the typed metadata of a clay_push job.
type ClayPushPayload struct {
	LeadIDs   []uint `json:"lead_ids"`
	ProjectID uint   `json:"project_id"`
	OrgID     uint   `json:"org_id,omitempty"`
	PushMode  string `json:"push_mode,omitempty"`
}

// EnrichmentPayload decodes the job metadata for a social_enrichment job.
func (j *SourcingJob) EnrichmentPayload() (EnrichmentPayload, error) {
	var p EnrichmentPayload
	if len(j.Metadata) == 0 {
		return p, fmt.Errorf("job %d has no metadata", j.ID)
	}
	if err := json.Unmarshal(j.Metadata, &p); err != nil {
		return p, fmt.Errorf("invalid enrichment metadata: %w", err)
	}
	return p, nil
}

// ClayPushPayload decodes the job metadata for a clay_push job.
func (j *SourcingJob) ClayPushPayload() (ClayPushPayload, error) {
	var p ClayPushPayload
	if len(j.Metadata) == 0 {
		return p, fmt.Errorf("job %d has no metadata", j.ID)
	}
	if err := json.Unmarshal(j.Metadata, &p); err != nil {
		return p, fmt.Errorf("invalid clay push metadata: %w", err)
	}
	return p, nil
}

// NewEnrichmentJob builds a pending social_enrichment job for one contributor.
func NewEnrichmentJob(projectID, repositoryID, contributorID, createdBy uint) (*SourcingJob, error) {
	meta, err := json.Marshal(EnrichmentPayload{ContributorID: contributorID})
	if err != nil {
		return nil, err
	}
	return &SourcingJob{
		ProjectID:    projectID,
		RepositoryID: repositoryID,
		JobType:      JobTypeSocialEnrichment,
		Status:       JobStatusPending,
		Metadata:     meta,
		CreatedBy:    createdBy,
	}, nil
}

// NewClayPushJob builds a pending clay_push job for a set of leads.
func NewClayPushJob(payload ClayPushPayload, createdBy uint) (*SourcingJob, error) {
	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &SourcingJob{
		ProjectID: payload.ProjectID,
		JobType:   JobTypeClayPush,
		Status:    JobStatusPending,
		Metadata:  meta,
		CreatedBy: createdBy,
	}, nil
}
