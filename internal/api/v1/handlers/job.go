package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/db/repos"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

// JobHandler handles HTTP requests for job operations
type JobHandler struct {
	service *services.Job
}

// NewJobHandler creates a new job handler instance
func NewJobHandler(s *services.Job) *JobHandler {
	return &JobHandler{service: s}
}

// CreateJobRequest is the payload for creating a job.
type CreateJobRequest struct {
	JobType      string          `json:"job_type"`
	ProjectID    uint            `json:"project_id"`
	RepositoryID uint            `json:"repository_id"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedBy    uint            `json:"created_by"`
}

// CreateJob handles the request to create a new pending job
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid request body"))
	}

	jobType, err := models.ParseJobType(req.JobType)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job type"))
	}

	job := &models.SourcingJob{
		ProjectID:    req.ProjectID,
		RepositoryID: req.RepositoryID,
		JobType:      jobType,
		Status:       models.JobStatusPending,
		Metadata:     req.Metadata,
		CreatedBy:    req.CreatedBy,
	}
	if err := h.service.Create(c.Context(), job); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(Response{
		Slug: SuccessSlug,
		Data: job,
	})
}

// GetJob handles the request to get a job with its progress steps
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	job, steps, err := h.service.GetWithSteps(c.Context(), jobID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).
			JSON(errGeneral("job not found"))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: fiber.Map{
			"job":   job,
			"steps": steps,
		},
	})
}

// ListJobs handles the request to list jobs with optional filters
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	var (
		limit  = c.QueryInt("limit", 50)
		offset = c.QueryInt("offset", 0)
	)

	var status models.JobStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseJobStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(errInvalidInput("invalid job status"))
		}
		status = parsed
	}

	projectID := uint(c.QueryInt("project_id", 0))

	jobs, err := h.service.List(c.Context(), status, projectID, &models.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: jobs,
	})
}

// CancelJob handles the request to cancel a pending or running job. The
// worker holding the job observes the new status at its next check.
func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	jobID, err := parseID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	if err := h.service.Cancel(c.Context(), jobID); err != nil {
		if errors.Is(err, repos.ErrJobNotCancellable) {
			return c.Status(fiber.StatusConflict).
				JSON(errGeneral(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: fiber.Map{"status": models.JobStatusCancelled},
	})
}

// GetJobStats handles the request for the job stats summary
func (h *JobHandler) GetJobStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: stats,
	})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
