package services

import (
	"fmt"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

func (s *ProcessorTestSuite) TestRepositorySourcingHappyPath() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)

	s.fetcher.repo = &RepoMetadata{
		FullName:    "acme/api",
		Description: "the api",
		Stars:       321,
		Forks:       12,
		Language:    "Go",
		Topics:      []string{"go", "api"},
	}
	s.fetcher.contributors = profiles(12)
	s.fetcher.bulk = map[string]CommitStats{
		"user0": {TotalCommits: 250, CommitsLast3Months: 30, PullRequests: 12, IsMaintainer: true},
	}

	s.processor.processJob(s.ctx, job.ID)

	done := s.reloadJob(job.ID)
	s.Equal(models.JobStatusCompleted, done.Status)
	s.InDelta(100.0, done.Progress, 1e-9)
	s.Equal(4, done.TotalSteps)
	s.NotNil(done.CompletedAt)
	s.Empty(done.ErrorMessage)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 4)
	for _, step := range steps {
		s.Equal(models.StepStatusCompleted, step.Status)
	}
	s.Equal("Fetched metadata for acme/api", steps[0].Message)
	s.Equal("Found 12 contributors", steps[1].Message)
	s.Equal("Processed 12 contributors", steps[2].Message)
	s.Equal("Queued enrichment for 12 contributors (0 already enriched)", steps[3].Message)

	// The repository snapshot was refreshed.
	refreshed := &models.Repository{}
	s.Require().NoError(s.db.First(refreshed, repo.ID).Error)
	s.Equal(321, refreshed.Stars)
	s.Equal("Go", refreshed.Language)
	s.NotNil(refreshed.LastSourcedAt)

	var contributors int64
	s.NoError(s.db.Model(&models.Contributor{}).Count(&contributors).Error)
	s.Equal(int64(12), contributors)

	var stats []models.ContributorStats
	s.NoError(s.db.Order("id ASC").Find(&stats).Error)
	s.Require().Len(stats, 12)
	s.Equal(250, stats[0].TotalCommits, "bulk stats win when present")
	s.True(stats[0].IsMaintainer)
	s.Equal(11, stats[1].TotalCommits, "missing bulk entry falls back to contribution count")
	for _, row := range stats {
		s.Equal(models.StatsSourceCommit, row.Source)
	}

	var scores int64
	s.NoError(s.db.Model(&models.LeadScore{}).Count(&scores).Error)
	s.Equal(int64(12), scores)

	// One chained enrichment job per contributor.
	queued, err := s.jobRepo.List(s.ctx, models.JobStatusPending, 0, nil)
	s.NoError(err)
	s.Require().Len(queued, 12)
	for _, q := range queued {
		s.Equal(models.JobTypeSocialEnrichment, q.JobType)
		s.Equal(project.ID, q.ProjectID)
		s.Equal(repo.ID, q.RepositoryID)
	}
}

func (s *ProcessorTestSuite) TestRepositorySourcingSkipsEnrichedContributors() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)

	// user0 was enriched by an earlier run.
	existing := s.createContributor(1000, "user0")
	s.Require().NoError(s.scoreRepo.UpsertSocialContext(s.ctx, &models.SocialContext{
		ContributorID: existing.ID,
	}))

	s.fetcher.contributors = profiles(3)

	s.processor.processJob(s.ctx, job.ID)

	s.Equal(models.JobStatusCompleted, s.reloadJob(job.ID).Status)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 4)
	s.Equal("Queued enrichment for 2 contributors (1 already enriched)", steps[3].Message)

	queued, err := s.jobRepo.List(s.ctx, models.JobStatusPending, 0, nil)
	s.NoError(err)
	s.Len(queued, 2)
}

func (s *ProcessorTestSuite) TestRepositorySourcingFetchFailure() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)

	s.fetcher.repoErr = fmt.Errorf("github: 503 Service Unavailable")

	s.processor.processJob(s.ctx, job.ID)

	failed := s.reloadJob(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)
	s.Contains(failed.ErrorMessage, "503 Service Unavailable")
	s.NotNil(failed.CompletedAt)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 1)
	s.Equal(models.StepStatusFailed, steps[0].Status)
	s.Contains(steps[0].ErrorMessage, "503 Service Unavailable")
}

func (s *ProcessorTestSuite) TestRepositorySourcingMissingRepository() {
	project := s.createProject("acme")
	job := s.createSourcingJob(project.ID, 999)

	s.processor.processJob(s.ctx, job.ID)

	failed := s.reloadJob(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)
	s.Contains(failed.ErrorMessage, "repository not found")
}

func (s *ProcessorTestSuite) TestRepositorySourcingCancelledBetweenSteps() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)

	s.fetcher.contributors = profiles(5)
	// Cancel the job while step 2 is executing; the flip is observed at the
	// next status check.
	s.fetcher.onGetContributors = func() {
		s.Require().NoError(s.jobRepo.Cancel(s.ctx, job.ID))
	}

	s.processor.processJob(s.ctx, job.ID)

	cancelled := s.reloadJob(job.ID)
	s.Equal(models.JobStatusCancelled, cancelled.Status)
	s.Equal("Cancelled by user", cancelled.ErrorMessage)

	// No step after the cancellation point was started, and nothing was
	// chained.
	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 2)
	var enrichment int64
	s.NoError(s.db.Model(&models.SourcingJob{}).
		Where("job_type = ?", models.JobTypeSocialEnrichment).
		Count(&enrichment).Error)
	s.Zero(enrichment)
}

func (s *ProcessorTestSuite) TestProcessJobSkipsAlreadyCancelled() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)
	s.Require().NoError(s.jobRepo.Cancel(s.ctx, job.ID))

	s.processor.processJob(s.ctx, job.ID)

	s.Empty(s.jobSteps(job.ID))
	s.Equal(models.JobStatusCancelled, s.reloadJob(job.ID).Status)
}
