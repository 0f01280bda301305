package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// processStargazerAnalysis drives a stargazer_analysis job. It mirrors
// repository sourcing but sources identities from the stargazer list:
// stargazers have no commit activity, so their stats rows are tagged
// 'stargazer' and they are scored on influence and position alone.
func (p *Processor) processStargazerAnalysis(ctx context.Context, job *models.SourcingJob) error {
	logger.Infof("Processing stargazer analysis job %d", job.ID)

	if err := p.ensureActive(ctx, job.ID); err != nil {
		return err
	}
	repository, err := p.orgs.GetRepository(ctx, job.RepositoryID)
	if err != nil {
		return fmt.Errorf("repository not found: %w", err)
	}

	if err := p.initJob(ctx, job, 3); err != nil {
		return err
	}

	// Step 1: fetch the stargazer list
	var profiles []ContributorProfile
	err = p.runStep(ctx, job, 1, "Fetching stargazers", func(_ *models.JobProgress) (string, error) {
		profiles, err = p.fetcher.GetStargazers(ctx, repository.Owner, repository.RepoName, p.cfg.StargazerLimit)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Found %d stargazers", len(profiles)), nil
	})
	if err != nil {
		return err
	}

	// Step 2: upsert identities and score with a zero-activity profile
	err = p.runStep(ctx, job, 2, "Processing stargazer profiles", func(step *models.JobProgress) (string, error) {
		processed := 0
		for i := range profiles {
			if processed%10 == 0 {
				if err := p.ensureActive(ctx, job.ID); err != nil {
					return "", err
				}
			}

			contributor, err := p.upsertContributor(ctx, &profiles[i])
			if err != nil {
				return "", err
			}
			if err := p.contributors.EnsureLink(ctx, repository.ID, contributor.ID); err != nil {
				return "", err
			}
			if err := p.contributors.TouchStargazerStats(ctx, repository.ID, contributor.ID); err != nil {
				return "", err
			}
			if err := p.rescore(ctx, repository.ProjectID, contributor, StatsSummary{}); err != nil {
				return "", err
			}

			processed++
			if processed%25 == 0 {
				if err := p.tracker.UpdateStep(ctx, step, models.StepStatusRunning,
					fmt.Sprintf("Processed %d/%d stargazers", processed, len(profiles)), nil); err != nil {
					return "", err
				}
			}
		}
		return fmt.Sprintf("Processed %d stargazers", processed), nil
	})
	if err != nil {
		return err
	}

	// Step 3: chain enrichment jobs; failure to queue is not fatal
	err = p.runStep(ctx, job, 3, "Queuing social enrichment", func(_ *models.JobProgress) (string, error) {
		queued, _, err := p.enqueueEnrichment(ctx, repository, job.CreatedBy)
		if err != nil {
			return "", err
		}
		logger.Infof("Queued %d enrichment jobs for stargazers of %s", queued, repository.FullName)
		return fmt.Sprintf("Queued enrichment for %d stargazers", queued), nil
	})
	if err != nil {
		if errors.Is(err, ErrJobCancelled) {
			return err
		}
		logger.Warnf("Failed to queue enrichment jobs: %v", err)
		if uerr := p.tracker.UpdateJobProgress(ctx, job, 3, job.TotalSteps); uerr != nil {
			return uerr
		}
	}

	if err := p.finalizeJob(ctx, job); err != nil {
		return err
	}
	logger.Infof("Completed stargazer analysis job %d", job.ID)

	p.checkAutoExport(ctx, job)
	return nil
}
