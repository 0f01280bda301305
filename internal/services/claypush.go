package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// processClayPush drives a clay_push job: resolve the webhook target and
// rate limit from settings, then deliver one payload per lead, logging every
// attempt. Individual push failures never fail the job; totals are always
// reconcilable against the push log.
func (p *Processor) processClayPush(ctx context.Context, job *models.SourcingJob) error {
	logger.Infof("Processing clay_push job %d", job.ID)

	if err := p.ensureActive(ctx, job.ID); err != nil {
		return err
	}

	payload, err := job.ClayPushPayload()
	if err != nil {
		return err
	}
	if len(payload.LeadIDs) == 0 {
		return fmt.Errorf("no lead IDs specified")
	}
	if payload.ProjectID == 0 {
		return fmt.Errorf("no project ID specified")
	}

	orgID, err := p.orgs.OrgIDForUser(ctx, job.CreatedBy)
	if err != nil {
		logger.Warnf("Failed to resolve org for user %d: %v", job.CreatedBy, err)
	}
	if orgID == 0 {
		orgID = payload.OrgID
	}

	webhookURL := p.settings.Get(ctx, orgID, SettingClayWebhookURL, "")
	if webhookURL == "" {
		return fmt.Errorf("clay webhook URL not configured")
	}
	rateLimit := time.Duration(p.settings.GetInt(ctx, orgID, SettingClayRateLimitMS, 200)) * time.Millisecond

	project, err := p.orgs.GetProject(ctx, payload.ProjectID)
	if err != nil {
		return fmt.Errorf("project not found: %w", err)
	}

	if err := p.initJob(ctx, job, 2); err != nil {
		return err
	}

	// Step 1: resolve the lead set. An empty set is a hard failure, not a
	// silent no-op.
	var leads []models.Contributor
	err = p.runStep(ctx, job, 1, "Preparing leads", func(_ *models.JobProgress) (string, error) {
		leads, err = p.contributors.GetByIDs(ctx, payload.LeadIDs)
		if err != nil {
			return "", err
		}
		if len(leads) == 0 {
			return "", fmt.Errorf("no valid leads found for the given IDs")
		}
		return fmt.Sprintf("Found %d leads to push", len(leads)), nil
	})
	if err != nil {
		return err
	}

	// Step 2: deliver, sleeping only between consecutive sends
	var successes, failures int
	err = p.runStep(ctx, job, 2, "Pushing leads to Clay", func(step *models.JobProgress) (string, error) {
		for i := range leads {
			if i%5 == 0 {
				if err := p.ensureActive(ctx, job.ID); err != nil {
					return "", err
				}
			}

			lead := &leads[i]
			body := p.buildLeadPayload(ctx, lead, project, payload.PushMode)
			ok, httpStatus, pushErr := p.pusher.Push(ctx, webhookURL, body)

			entry := &models.ClayPushLog{
				OrgID:          orgID,
				JobID:          job.ID,
				ContributorID:  lead.ID,
				ProjectID:      project.ID,
				Status:         models.PushStatusSuccess,
				ResponseStatus: httpStatus,
			}
			if ok {
				successes++
			} else {
				failures++
				entry.Status = models.PushStatusFailed
				if pushErr != nil {
					entry.ErrorMessage = pushErr.Error()
				}
				logger.Warnf("Clay push failed for contributor %s: %v", lead.Username, pushErr)
			}
			if err := p.pushLogs.Log(ctx, entry); err != nil {
				return "", err
			}

			if (i+1)%5 == 0 || i == len(leads)-1 {
				if err := p.tracker.UpdateStep(ctx, step, models.StepStatusRunning,
					fmt.Sprintf("Pushed %d/%d leads (%d ok, %d failed)", i+1, len(leads), successes, failures), nil); err != nil {
					return "", err
				}
			}

			if rateLimit > 0 && i < len(leads)-1 {
				p.sleep(rateLimit)
			}
		}

		summary := fmt.Sprintf("Pushed %d leads to Clay", successes)
		if failures > 0 {
			summary += fmt.Sprintf(" (%d failed)", failures)
		}
		return summary, nil
	})
	if err != nil {
		return err
	}

	if err := p.finalizeJob(ctx, job); err != nil {
		return err
	}
	logger.Infof("Completed clay_push job %d: %d ok, %d failed", job.ID, successes, failures)
	return nil
}

// buildLeadPayload assembles the webhook document for one lead, attaching
// score and enrichment data when present. Lookup failures degrade to a
// payload without those sections.
func (p *Processor) buildLeadPayload(ctx context.Context, lead *models.Contributor, project *models.Project, pushMode string) LeadPayload {
	body := LeadPayload{
		EventID:  uuid.NewString(),
		PushMode: pushMode,
		Project:  PayloadProject{ID: project.ID, Name: project.Name},
		Lead: PayloadLead{
			Username:  lead.Username,
			FullName:  lead.FullName,
			Email:     lead.Email,
			Company:   lead.Company,
			Location:  lead.Location,
			GitHubURL: lead.GitHubURL,
			Followers: lead.Followers,
		},
	}

	score, err := p.scores.GetLeadScore(ctx, project.ID, lead.ID)
	if err != nil {
		logger.Warnf("Failed to load score for contributor %d: %v", lead.ID, err)
	} else if score != nil {
		body.Score = &PayloadScore{
			Overall:   score.OverallScore,
			Qualified: score.IsQualifiedLead,
			Priority:  score.Priority,
		}
	}

	social, err := p.scores.GetSocialContext(ctx, lead.ID)
	if err != nil {
		logger.Warnf("Failed to load social context for contributor %d: %v", lead.ID, err)
	} else if social != nil {
		body.Profile = &PayloadProfile{
			LinkedInURL:    social.LinkedInURL,
			Position:       social.CurrentPosition,
			PositionLevel:  social.PositionLevel,
			Classification: social.Classification,
			Industry:       social.Industry,
		}
	}
	return body
}
