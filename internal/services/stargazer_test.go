package services

import (
	"fmt"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

func (s *ProcessorTestSuite) TestStargazerAnalysisHappyPath() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createStargazerJob(project.ID, repo.ID)

	s.fetcher.stargazers = profiles(5)

	s.processor.processJob(s.ctx, job.ID)

	done := s.reloadJob(job.ID)
	s.Equal(models.JobStatusCompleted, done.Status)
	s.InDelta(100.0, done.Progress, 1e-9)
	s.Equal(3, done.TotalSteps)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 3)
	s.Equal("Found 5 stargazers", steps[0].Message)
	s.Equal("Processed 5 stargazers", steps[1].Message)
	s.Equal("Queued enrichment for 5 stargazers", steps[2].Message)

	// Stargazers get zero-activity stats rows tagged with their provenance.
	var stats []models.ContributorStats
	s.NoError(s.db.Find(&stats).Error)
	s.Require().Len(stats, 5)
	for _, row := range stats {
		s.Equal(models.StatsSourceStargazer, row.Source)
		s.Zero(row.TotalCommits)
	}

	var scores int64
	s.NoError(s.db.Model(&models.LeadScore{}).Count(&scores).Error)
	s.Equal(int64(5), scores)

	queued, err := s.jobRepo.List(s.ctx, models.JobStatusPending, 0, nil)
	s.NoError(err)
	s.Len(queued, 5)
}

func (s *ProcessorTestSuite) TestStargazerAnalysisKeepsCommitStats() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createStargazerJob(project.ID, repo.ID)

	// user0 is already known as a committer on this repository.
	existing := s.createContributor(1000, "user0")
	s.Require().NoError(s.contributorRepo.UpsertStats(s.ctx, &models.ContributorStats{
		RepositoryID:  repo.ID,
		ContributorID: existing.ID,
		TotalCommits:  90,
		Source:        models.StatsSourceCommit,
	}))

	s.fetcher.stargazers = profiles(1)

	s.processor.processJob(s.ctx, job.ID)

	s.Equal(models.JobStatusCompleted, s.reloadJob(job.ID).Status)

	stats, err := s.contributorRepo.FirstStats(s.ctx, existing.ID)
	s.NoError(err)
	s.Require().NotNil(stats)
	s.Equal(models.StatsSourceCommit, stats.Source, "commit provenance survives starring")
	s.Equal(90, stats.TotalCommits)
}

func (s *ProcessorTestSuite) TestStargazerAnalysisFetchFailure() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createStargazerJob(project.ID, repo.ID)

	s.fetcher.stargazersErr = fmt.Errorf("github: 403 rate limit exceeded")

	s.processor.processJob(s.ctx, job.ID)

	failed := s.reloadJob(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)
	s.Contains(failed.ErrorMessage, "rate limit exceeded")
}
