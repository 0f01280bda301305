package services

import (
	"time"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

func (s *ProcessorTestSuite) TestClayPushHappyPath() {
	project := s.createProject("acme")
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	var leadIDs []uint
	for i, username := range []string{"alice", "bob", "carol"} {
		leadIDs = append(leadIDs, s.createContributor(int64(i+1), username).ID)
	}

	job := s.createClayPushJob(models.ClayPushPayload{
		LeadIDs:   leadIDs,
		ProjectID: project.ID,
	})
	s.processor.processJob(s.ctx, job.ID)

	done := s.reloadJob(job.ID)
	s.Equal(models.JobStatusCompleted, done.Status)
	s.InDelta(100.0, done.Progress, 1e-9)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 2)
	s.Equal("Found 3 leads to push", steps[0].Message)
	s.Equal("Pushed 3 leads to Clay", steps[1].Message)

	s.Require().Len(s.pusher.calls, 3)
	s.Equal("alice", s.pusher.calls[0].Lead.Username)
	s.NotEmpty(s.pusher.calls[0].EventID)
	s.NotEqual(s.pusher.calls[0].EventID, s.pusher.calls[1].EventID)

	// Sleeps happen only between consecutive sends, at the default rate.
	s.Require().Len(s.sleeps, 2)
	for _, d := range s.sleeps {
		s.Equal(200*time.Millisecond, d)
	}

	var logs []models.ClayPushLog
	s.NoError(s.db.Find(&logs).Error)
	s.Require().Len(logs, 3)
	for _, entry := range logs {
		s.Equal(models.PushStatusSuccess, entry.Status)
		s.Equal(200, entry.ResponseStatus)
		s.Equal(job.ID, entry.JobID)
		s.Equal(project.ID, entry.ProjectID)
	}
}

func (s *ProcessorTestSuite) TestClayPushPartialFailure() {
	project := s.createProject("acme")
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	var leadIDs []uint
	for i, username := range []string{"alice", "bob"} {
		leadIDs = append(leadIDs, s.createContributor(int64(i+1), username).ID)
	}
	s.pusher.fail = map[string]bool{"bob": true}

	job := s.createClayPushJob(models.ClayPushPayload{
		LeadIDs:   leadIDs,
		ProjectID: project.ID,
	})
	s.processor.processJob(s.ctx, job.ID)

	// A failed delivery is logged, not fatal.
	s.Equal(models.JobStatusCompleted, s.reloadJob(job.ID).Status)

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 2)
	s.Equal("Pushed 1 leads to Clay (1 failed)", steps[1].Message)

	var failed models.ClayPushLog
	s.Require().NoError(s.db.Where("status = ?", models.PushStatusFailed).First(&failed).Error)
	s.Equal(500, failed.ResponseStatus)
	s.Contains(failed.ErrorMessage, "webhook returned 500")
}

func (s *ProcessorTestSuite) TestClayPushCustomRateLimit() {
	project := s.createProject("acme")
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")
	s.setAppSetting(SettingClayRateLimitMS, "50")

	var leadIDs []uint
	for i := 0; i < 2; i++ {
		leadIDs = append(leadIDs, s.createContributor(int64(i+1), profiles(2)[i].Username).ID)
	}

	job := s.createClayPushJob(models.ClayPushPayload{
		LeadIDs:   leadIDs,
		ProjectID: project.ID,
	})
	s.processor.processJob(s.ctx, job.ID)

	s.Require().Len(s.sleeps, 1)
	s.Equal(50*time.Millisecond, s.sleeps[0])
}

func (s *ProcessorTestSuite) TestClayPushWithoutWebhookFails() {
	project := s.createProject("acme")
	lead := s.createContributor(1, "alice")

	job := s.createClayPushJob(models.ClayPushPayload{
		LeadIDs:   []uint{lead.ID},
		ProjectID: project.ID,
	})
	s.processor.processJob(s.ctx, job.ID)

	failed := s.reloadJob(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)
	s.Contains(failed.ErrorMessage, "clay webhook URL not configured")
	s.Empty(s.pusher.calls)
}

func (s *ProcessorTestSuite) TestClayPushNoValidLeads() {
	project := s.createProject("acme")
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	job := s.createClayPushJob(models.ClayPushPayload{
		LeadIDs:   []uint{998, 999},
		ProjectID: project.ID,
	})
	s.processor.processJob(s.ctx, job.ID)

	failed := s.reloadJob(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)
	s.Contains(failed.ErrorMessage, "no valid leads found for the given IDs")

	steps := s.jobSteps(job.ID)
	s.Require().Len(steps, 1)
	s.Equal(models.StepStatusFailed, steps[0].Status)
}

func (s *ProcessorTestSuite) TestClayPushPayloadSections() {
	project := s.createProject("acme")
	s.setAppSetting(SettingClayWebhookURL, "https://clay.example/hook")

	lead := s.createContributor(1, "alice")
	s.Require().NoError(s.scoreRepo.UpsertLeadScore(s.ctx, &models.LeadScore{
		ProjectID:       project.ID,
		ContributorID:   lead.ID,
		OverallScore:    85,
		IsQualifiedLead: true,
		Priority:        "high",
	}))
	s.Require().NoError(s.scoreRepo.UpsertSocialContext(s.ctx, &models.SocialContext{
		ContributorID:  lead.ID,
		LinkedInURL:    "https://linkedin.com/in/alice",
		PositionLevel:  "Director",
		Classification: models.ClassificationDecisionMaker,
	}))
	bare := s.createContributor(2, "bob")

	job := s.createClayPushJob(models.ClayPushPayload{
		LeadIDs:   []uint{lead.ID, bare.ID},
		ProjectID: project.ID,
		PushMode:  "auto",
	})
	s.processor.processJob(s.ctx, job.ID)

	s.Require().Len(s.pusher.calls, 2)

	enriched := s.pusher.calls[0]
	s.Equal("auto", enriched.PushMode)
	s.Equal(project.Name, enriched.Project.Name)
	s.Require().NotNil(enriched.Score)
	s.InDelta(85.0, enriched.Score.Overall, 1e-9)
	s.Equal("high", enriched.Score.Priority)
	s.Require().NotNil(enriched.Profile)
	s.Equal("https://linkedin.com/in/alice", enriched.Profile.LinkedInURL)

	// A lead without score or enrichment still goes out, minus those sections.
	s.Nil(s.pusher.calls[1].Score)
	s.Nil(s.pusher.calls[1].Profile)
}
