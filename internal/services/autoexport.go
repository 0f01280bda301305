package services

import (
	"context"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// checkAutoExport runs once after a sourcing or stargazer job completes.
// When the project opted in and a webhook is configured, it queues a single
// clay_push job for the contributors not yet successfully pushed, filtered
// by the project's score and classification policy. Every failure here is a
// logged warning; auto-export can never fail the job that triggered it.
func (p *Processor) checkAutoExport(ctx context.Context, job *models.SourcingJob) {
	project, err := p.orgs.GetProject(ctx, job.ProjectID)
	if err != nil {
		logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
		return
	}
	if !project.AutoExportEnabled {
		return
	}

	orgID, err := p.orgs.OrgIDForUser(ctx, job.CreatedBy)
	if err != nil {
		logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
		return
	}

	webhookURL := p.settings.Get(ctx, orgID, SettingClayWebhookURL, "")
	if webhookURL == "" {
		logger.Infof("Auto-export skipped for project %s: Clay webhook not configured", project.Name)
		return
	}

	candidates, err := p.contributors.ContributorIDsForProject(ctx, project.ID)
	if err != nil {
		logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	pushed, err := p.pushLogs.SuccessfulContributorIDs(ctx, project.ID)
	if err != nil {
		logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
		return
	}

	var leadIDs []uint
	for _, contributorID := range candidates {
		if pushed[contributorID] {
			continue
		}
		ok, err := p.passesExportFilters(ctx, project, contributorID)
		if err != nil {
			logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
			return
		}
		if ok {
			leadIDs = append(leadIDs, contributorID)
		}
	}
	if len(leadIDs) == 0 {
		logger.Infof("Auto-export: no new leads for project %s", project.Name)
		return
	}

	pushJob, err := models.NewClayPushJob(models.ClayPushPayload{
		LeadIDs:   leadIDs,
		ProjectID: project.ID,
		OrgID:     orgID,
		PushMode:  "auto",
	}, job.CreatedBy)
	if err != nil {
		logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
		return
	}
	if err := p.jobs.Create(ctx, pushJob); err != nil {
		logger.Warnf("Auto-export check failed for job %d: %v", job.ID, err)
		return
	}
	logger.Infof("Auto-export: queued clay_push for %d leads in project %s", len(leadIDs), project.Name)
}

// passesExportFilters applies the project's optional minimum-score and
// classification allow-list to one contributor. With no filters configured
// every contributor passes; with filters, a contributor without a score row
// never passes.
func (p *Processor) passesExportFilters(ctx context.Context, project *models.Project, contributorID uint) (bool, error) {
	if project.AutoExportMinScore == nil && len(project.AutoExportClassifications) == 0 {
		return true, nil
	}

	score, err := p.scores.GetLeadScore(ctx, project.ID, contributorID)
	if err != nil {
		return false, err
	}
	if score == nil {
		return false, nil
	}
	if project.AutoExportMinScore != nil && score.OverallScore < *project.AutoExportMinScore {
		return false, nil
	}
	if len(project.AutoExportClassifications) > 0 {
		social, err := p.scores.GetSocialContext(ctx, contributorID)
		if err != nil {
			return false, err
		}
		if social == nil || !project.AutoExportClassifications.Contains(social.Classification) {
			return false, nil
		}
	}
	return true, nil
}
