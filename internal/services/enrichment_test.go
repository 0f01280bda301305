package services

import (
	"encoding/json"
	"fmt"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

func (s *ProcessorTestSuite) TestSocialEnrichmentHappyPath() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	contributor := s.createContributor(1000, "alice")
	contributor.FullName = "Alice Smith"
	s.Require().NoError(s.db.Save(contributor).Error)
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, contributor.ID))
	s.Require().NoError(s.contributorRepo.UpsertStats(s.ctx, &models.ContributorStats{
		RepositoryID:       repo.ID,
		ContributorID:      contributor.ID,
		TotalCommits:       120,
		CommitsLast3Months: 25,
		IsMaintainer:       true,
	}))

	s.enricher.results = json.RawMessage(`{"organic":[{"link":"https://linkedin.com/in/alice"}]}`)
	s.enricher.profile = ProfileInfo{
		LinkedInURL: "https://linkedin.com/in/alice",
		Position:    "VP of Engineering",
		Company:     "Initech",
	}
	s.classifier.result = Classification{
		Classification: models.ClassificationDecisionMaker,
		Confidence:     0.8,
		Reasoning:      "leadership title",
		Organization:   "Acme Corp",
		Industry:       "Software",
	}

	job := s.createEnrichmentJob(project.ID, repo.ID, contributor.ID)
	s.processor.processJob(s.ctx, job.ID)

	done := s.reloadJob(job.ID)
	s.Equal(models.JobStatusCompleted, done.Status)
	s.InDelta(100.0, done.Progress, 1e-9)
	s.Equal(3, done.TotalSteps)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 3)
	s.Equal("Search completed", steps[0].Message)
	s.Equal("Classified as DECISION_MAKER", steps[1].Message)
	s.Equal("Enrichment completed", steps[2].Message)

	social, err := s.scoreRepo.GetSocialContext(s.ctx, contributor.ID)
	s.NoError(err)
	s.Require().NotNil(social)
	s.Equal("https://linkedin.com/in/alice", social.LinkedInURL)
	s.Equal("VP of Engineering", social.CurrentPosition)
	s.Equal("Director", social.PositionLevel)
	s.Equal("Acme Corp", social.CurrentCompany, "classifier organization wins over profile company")
	s.Equal(models.ClassificationDecisionMaker, social.Classification)
	s.InDelta(0.8, social.ClassificationConfidence, 1e-9)
	s.NotEmpty(social.SearchResults)

	// The contributor is rescored in every project they appear in.
	score, err := s.scoreRepo.GetLeadScore(s.ctx, project.ID, contributor.ID)
	s.NoError(err)
	s.Require().NotNil(score)
	s.Greater(score.PositionScore, 0.0)
}

func (s *ProcessorTestSuite) TestSocialEnrichmentOutOfCredits() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	contributor := s.createContributor(1000, "alice")
	s.grantOrg(1, 7)
	s.Require().NoError(s.db.Create(&models.OrgBilling{OrgID: 7, CreditBalance: 0}).Error)

	job := s.createEnrichmentJob(project.ID, repo.ID, contributor.ID)
	s.processor.processJob(s.ctx, job.ID)

	parked := s.reloadJob(job.ID)
	s.Equal(models.JobStatusOutOfCredits, parked.Status)
	s.Equal("Insufficient credits. Add credits to continue.", parked.ErrorMessage)
	s.NotNil(parked.CompletedAt)

	// The gate runs before any step; nothing was enriched or charged.
	s.Empty(s.jobSteps(job.ID))
	social, err := s.scoreRepo.GetSocialContext(s.ctx, contributor.ID)
	s.NoError(err)
	s.Nil(social)
	var count int64
	s.NoError(s.db.Model(&models.CreditTransaction{}).Count(&count).Error)
	s.Zero(count)
}

func (s *ProcessorTestSuite) TestSocialEnrichmentChargesCredits() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	contributor := s.createContributor(1000, "alice")
	s.grantOrg(1, 7)
	s.Require().NoError(s.db.Create(&models.OrgBilling{OrgID: 7, CreditBalance: 1}).Error)

	job := s.createEnrichmentJob(project.ID, repo.ID, contributor.ID)
	s.processor.processJob(s.ctx, job.ID)

	s.Equal(models.JobStatusCompleted, s.reloadJob(job.ID).Status)

	var billing models.OrgBilling
	s.Require().NoError(s.db.Where("org_id = ?", 7).First(&billing).Error)
	s.InDelta(0.99, billing.CreditBalance, 1e-9)
	s.Equal(int64(1), billing.TotalEnrichments)
}

func (s *ProcessorTestSuite) TestSocialEnrichmentWithoutBillingRowProceeds() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	contributor := s.createContributor(1000, "alice")
	s.grantOrg(1, 7)

	job := s.createEnrichmentJob(project.ID, repo.ID, contributor.ID)
	s.processor.processJob(s.ctx, job.ID)

	s.Equal(models.JobStatusCompleted, s.reloadJob(job.ID).Status)
}

func (s *ProcessorTestSuite) TestSocialEnrichmentSearchFailureDegrades() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	contributor := s.createContributor(1000, "alice")
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, contributor.ID))

	s.enricher.searchErr = fmt.Errorf("search provider unavailable")

	job := s.createEnrichmentJob(project.ID, repo.ID, contributor.ID)
	s.processor.processJob(s.ctx, job.ID)

	// The job completes on empty results; only the search step is failed.
	done := s.reloadJob(job.ID)
	s.Equal(models.JobStatusCompleted, done.Status)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 3)
	s.Equal(models.StepStatusFailed, steps[0].Status)
	s.Contains(steps[0].ErrorMessage, "search provider unavailable")
	s.Equal(models.StepStatusCompleted, steps[1].Status)
	s.Equal(models.StepStatusCompleted, steps[2].Status)

	social, err := s.scoreRepo.GetSocialContext(s.ctx, contributor.ID)
	s.NoError(err)
	s.Require().NotNil(social)
	s.Empty(social.LinkedInURL)
	s.Empty(social.SearchResults)
	s.Equal("Unknown", social.PositionLevel)
}

func (s *ProcessorTestSuite) TestSocialEnrichmentInvalidMetadata() {
	job := &models.SourcingJob{
		JobType:   models.JobTypeSocialEnrichment,
		Status:    models.JobStatusRunning,
		CreatedBy: 1,
	}
	s.Require().NoError(s.jobRepo.Create(s.ctx, job))

	s.processor.processJob(s.ctx, job.ID)

	failed := s.reloadJob(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)
	s.NotEmpty(failed.ErrorMessage)
}
