package services

import (
	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

func (s *ProcessorTestSuite) autoExportFixture(minScore *float64, classifications models.StringList) (*models.Project, *models.Repository, *models.SourcingJob) {
	project := s.createProject("acme")
	project.AutoExportEnabled = true
	project.AutoExportMinScore = minScore
	project.AutoExportClassifications = classifications
	s.Require().NoError(s.db.Save(project).Error)

	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)
	job.Status = models.JobStatusCompleted
	s.Require().NoError(s.jobRepo.Update(s.ctx, job))
	return project, repo, job
}

func (s *ProcessorTestSuite) queuedClayPushJobs() []models.SourcingJob {
	var jobs []models.SourcingJob
	s.Require().NoError(s.db.
		Where("job_type = ? AND status = ?", models.JobTypeClayPush, models.JobStatusPending).
		Find(&jobs).Error)
	return jobs
}

func (s *ProcessorTestSuite) TestAutoExportQueuesPushJob() {
	project, repo, job := s.autoExportFixture(nil, nil)
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	alice := s.createContributor(1, "alice")
	bob := s.createContributor(2, "bob")
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, alice.ID))
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, bob.ID))

	s.processor.checkAutoExport(s.ctx, job)

	queued := s.queuedClayPushJobs()
	s.Require().Len(queued, 1)

	payload, err := queued[0].ClayPushPayload()
	s.Require().NoError(err)
	s.ElementsMatch([]uint{alice.ID, bob.ID}, payload.LeadIDs)
	s.Equal(project.ID, payload.ProjectID)
	s.Equal("auto", payload.PushMode)
}

func (s *ProcessorTestSuite) TestAutoExportDisabledProject() {
	project := s.createProject("acme")
	repo := s.createRepository(project.ID, "acme", "api")
	job := s.createSourcingJob(project.ID, repo.ID)
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, s.createContributor(1, "alice").ID))

	s.processor.checkAutoExport(s.ctx, job)

	s.Empty(s.queuedClayPushJobs())
}

func (s *ProcessorTestSuite) TestAutoExportWithoutWebhookSkips() {
	_, repo, job := s.autoExportFixture(nil, nil)
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, s.createContributor(1, "alice").ID))

	s.processor.checkAutoExport(s.ctx, job)

	s.Empty(s.queuedClayPushJobs())
}

func (s *ProcessorTestSuite) TestAutoExportSkipsAlreadyPushed() {
	project, repo, job := s.autoExportFixture(nil, nil)
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	alice := s.createContributor(1, "alice")
	bob := s.createContributor(2, "bob")
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, alice.ID))
	s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, bob.ID))

	// alice was delivered by an earlier push.
	s.Require().NoError(s.db.Create(&models.ClayPushLog{
		JobID:         99,
		ProjectID:     project.ID,
		ContributorID: alice.ID,
		Status:        models.PushStatusSuccess,
	}).Error)

	s.processor.checkAutoExport(s.ctx, job)

	queued := s.queuedClayPushJobs()
	s.Require().Len(queued, 1)
	payload, err := queued[0].ClayPushPayload()
	s.Require().NoError(err)
	s.Equal([]uint{bob.ID}, payload.LeadIDs)

	// With everyone delivered, a re-check queues nothing.
	s.Require().NoError(s.db.Create(&models.ClayPushLog{
		JobID:         99,
		ProjectID:     project.ID,
		ContributorID: bob.ID,
		Status:        models.PushStatusSuccess,
	}).Error)
	s.processor.checkAutoExport(s.ctx, job)
	s.Len(s.queuedClayPushJobs(), 1)
}

func (s *ProcessorTestSuite) TestAutoExportScoreFilter() {
	minScore := 60.0
	project, repo, job := s.autoExportFixture(&minScore, nil)
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	qualified := s.createContributor(1, "alice")
	unqualified := s.createContributor(2, "bob")
	unscored := s.createContributor(3, "carol")
	for _, c := range []*models.Contributor{qualified, unqualified, unscored} {
		s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, c.ID))
	}
	s.Require().NoError(s.scoreRepo.UpsertLeadScore(s.ctx, &models.LeadScore{
		ProjectID: project.ID, ContributorID: qualified.ID, OverallScore: 75,
	}))
	s.Require().NoError(s.scoreRepo.UpsertLeadScore(s.ctx, &models.LeadScore{
		ProjectID: project.ID, ContributorID: unqualified.ID, OverallScore: 40,
	}))

	s.processor.checkAutoExport(s.ctx, job)

	queued := s.queuedClayPushJobs()
	s.Require().Len(queued, 1)
	payload, err := queued[0].ClayPushPayload()
	s.Require().NoError(err)
	s.Equal([]uint{qualified.ID}, payload.LeadIDs)
}

func (s *ProcessorTestSuite) TestAutoExportClassificationFilter() {
	project, repo, job := s.autoExportFixture(nil, models.StringList{models.ClassificationDecisionMaker})
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	maker := s.createContributor(1, "alice")
	contributor := s.createContributor(2, "bob")
	for _, c := range []*models.Contributor{maker, contributor} {
		s.Require().NoError(s.contributorRepo.EnsureLink(s.ctx, repo.ID, c.ID))
		s.Require().NoError(s.scoreRepo.UpsertLeadScore(s.ctx, &models.LeadScore{
			ProjectID: project.ID, ContributorID: c.ID, OverallScore: 70,
		}))
	}
	s.Require().NoError(s.scoreRepo.UpsertSocialContext(s.ctx, &models.SocialContext{
		ContributorID: maker.ID, Classification: models.ClassificationDecisionMaker,
	}))
	s.Require().NoError(s.scoreRepo.UpsertSocialContext(s.ctx, &models.SocialContext{
		ContributorID: contributor.ID, Classification: models.ClassificationKeyContributor,
	}))

	s.processor.checkAutoExport(s.ctx, job)

	queued := s.queuedClayPushJobs()
	s.Require().Len(queued, 1)
	payload, err := queued[0].ClayPushPayload()
	s.Require().NoError(err)
	s.Equal([]uint{maker.ID}, payload.LeadIDs)
}
