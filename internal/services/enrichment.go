package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// processSocialEnrichment drives a social_enrichment job. The billing gate
// runs before any step: a declined deduction parks the job in out_of_credits
// with zero steps and no side effects, so it can be re-queued once credits
// are added.
func (p *Processor) processSocialEnrichment(ctx context.Context, job *models.SourcingJob) error {
	logger.Infof("Processing social enrichment job %d", job.ID)

	if err := p.ensureActive(ctx, job.ID); err != nil {
		return err
	}

	payload, err := job.EnrichmentPayload()
	if err != nil {
		return err
	}
	if payload.ContributorID == 0 {
		return fmt.Errorf("no contributor ID specified")
	}
	contributor, err := p.contributors.GetByID(ctx, payload.ContributorID)
	if err != nil {
		return fmt.Errorf("contributor not found: %w", err)
	}

	orgID, err := p.orgs.OrgIDForUser(ctx, job.CreatedBy)
	if err != nil {
		logger.Warnf("Failed to resolve org for user %d: %v", job.CreatedBy, err)
	}
	if orgID != 0 {
		allowed, balance := p.ledger.Deduct(ctx, orgID, job.ID, contributor.ID)
		if !allowed {
			logger.Warnf("Job %d out of credits (org %d, balance %v)", job.ID, orgID, balance)
			now := time.Now().UTC()
			job.Status = models.JobStatusOutOfCredits
			job.ErrorMessage = "Insufficient credits. Add credits to continue."
			job.CompletedAt = &now
			return p.jobs.Update(ctx, job)
		}
	}

	if err := p.initJob(ctx, job, 3); err != nil {
		return err
	}

	// Step 1: search the public web. A search failure marks the step failed
	// but the job proceeds with empty results.
	var searchResults json.RawMessage
	err = p.runStep(ctx, job, 1, "Searching for social profiles", func(_ *models.JobProgress) (string, error) {
		name := contributor.FullName
		if name == "" {
			name = contributor.Username
		}
		searchResults, err = p.enricher.SearchPerson(ctx, name, contributor.Company, contributor.Username)
		if err != nil {
			return "", err
		}
		return "Search completed", nil
	})
	if err != nil {
		if errors.Is(err, ErrJobCancelled) {
			return err
		}
		searchResults = nil
		if uerr := p.tracker.UpdateJobProgress(ctx, job, 1, job.TotalSteps); uerr != nil {
			return uerr
		}
	}

	// Step 2: extract profile signals, classify, persist the social context
	// and rescore the contributor everywhere they appear.
	err = p.runStep(ctx, job, 2, "Extracting professional information", func(_ *models.JobProgress) (string, error) {
		profile := p.enricher.ExtractProfile(searchResults)
		positionLevel := PositionLevel(profile.Position)

		summary := StatsSummary{}
		stats, err := p.contributors.FirstStats(ctx, contributor.ID)
		if err != nil {
			return "", err
		}
		if stats != nil {
			summary = StatsSummary{
				TotalCommits:       stats.TotalCommits,
				CommitsLast3Months: stats.CommitsLast3Months,
				PullRequests:       stats.PullRequests,
				IsMaintainer:       stats.IsMaintainer,
			}
		}

		classification, err := p.classifier.Classify(ctx, contributor, summary, profile)
		if err != nil {
			return "", err
		}

		company := classification.Organization
		if company == "" {
			company = profile.Company
		}
		if err := p.scores.UpsertSocialContext(ctx, &models.SocialContext{
			ContributorID:            contributor.ID,
			LinkedInURL:              profile.LinkedInURL,
			ProfilePhotoURL:          profile.PhotoURL,
			Headline:                 profile.Headline,
			CurrentCompany:           company,
			CurrentPosition:          profile.Position,
			PositionLevel:            positionLevel,
			Industry:                 classification.Industry,
			Classification:           classification.Classification,
			ClassificationConfidence: classification.Confidence,
			ClassificationReasoning:  classification.Reasoning,
			SearchResults:            searchResults,
		}); err != nil {
			return "", err
		}

		projectIDs, err := p.contributors.ProjectIDsFor(ctx, contributor.ID)
		if err != nil {
			return "", err
		}
		for _, projectID := range projectIDs {
			rows, err := p.contributors.StatsForProject(ctx, projectID, contributor.ID)
			if err != nil {
				return "", err
			}
			if err := p.rescore(ctx, projectID, contributor, summarizeStats(rows)); err != nil {
				return "", err
			}
		}

		return fmt.Sprintf("Classified as %s", classification.Classification), nil
	})
	if err != nil {
		return err
	}

	// Step 3: finalize
	err = p.runStep(ctx, job, 3, "Finalizing", func(_ *models.JobProgress) (string, error) {
		if err := p.finalizeJob(ctx, job); err != nil {
			return "", err
		}
		return "Enrichment completed", nil
	})
	if err != nil {
		return err
	}

	logger.Infof("Completed social enrichment job %d", job.ID)
	return nil
}
