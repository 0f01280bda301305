package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// processRepositorySourcing drives a repository_sourcing job: refresh the
// repository snapshot, discover contributors, persist their stats and
// scores, then chain enrichment jobs for the ones not yet enriched.
func (p *Processor) processRepositorySourcing(ctx context.Context, job *models.SourcingJob) error {
	logger.Infof("Processing repository sourcing job %d", job.ID)

	if err := p.ensureActive(ctx, job.ID); err != nil {
		return err
	}
	repository, err := p.orgs.GetRepository(ctx, job.RepositoryID)
	if err != nil {
		return fmt.Errorf("repository not found: %w", err)
	}

	if err := p.initJob(ctx, job, 4); err != nil {
		return err
	}

	// Step 1: refresh repository metadata
	err = p.runStep(ctx, job, 1, "Fetching repository metadata", func(_ *models.JobProgress) (string, error) {
		meta, err := p.fetcher.GetRepository(ctx, repository.Owner, repository.RepoName)
		if err != nil {
			return "", err
		}
		now := time.Now().UTC()
		repository.Description = meta.Description
		repository.Stars = meta.Stars
		repository.Forks = meta.Forks
		repository.OpenIssues = meta.OpenIssues
		repository.Language = meta.Language
		repository.Topics = meta.Topics
		repository.LastSourcedAt = &now
		if err := p.orgs.UpdateRepository(ctx, repository); err != nil {
			return "", err
		}
		return fmt.Sprintf("Fetched metadata for %s", repository.FullName), nil
	})
	if err != nil {
		return err
	}

	// Step 2: fetch the contributor list, optionally with bulk commit stats
	var profiles []ContributorProfile
	bulkStats := map[string]CommitStats{}
	err = p.runStep(ctx, job, 2, "Fetching contributors", func(_ *models.JobProgress) (string, error) {
		profiles, err = p.fetcher.GetContributors(ctx, repository.Owner, repository.RepoName, p.cfg.ContributorLimit)
		if err != nil {
			return "", err
		}
		if p.cfg.UseBulkContributorStats {
			bulkStats, err = p.fetcher.GetBulkCommitStats(ctx, repository.Owner, repository.RepoName)
			if err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("Found %d contributors", len(profiles)), nil
	})
	if err != nil {
		return err
	}

	// Step 3: upsert identities, stats and scores
	err = p.runStep(ctx, job, 3, "Processing contributor statistics", func(step *models.JobProgress) (string, error) {
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

			stats := statsFromBulk(&profiles[i], bulkStats)
			stats.RepositoryID = repository.ID
			stats.ContributorID = contributor.ID
			if err := p.contributors.UpsertStats(ctx, stats); err != nil {
				return "", err
			}

			summary := StatsSummary{
				TotalCommits:       stats.TotalCommits,
				CommitsLast3Months: stats.CommitsLast3Months,
				PullRequests:       stats.PullRequests,
				IssuesOpened:       stats.IssuesOpened,
				IsMaintainer:       stats.IsMaintainer,
			}
			if err := p.rescore(ctx, repository.ProjectID, contributor, summary); err != nil {
				return "", err
			}

			processed++
			if processed%10 == 0 {
				if err := p.tracker.UpdateStep(ctx, step, models.StepStatusRunning,
					fmt.Sprintf("Processed %d/%d contributors", processed, len(profiles)), nil); err != nil {
					return "", err
				}
			}
		}
		return fmt.Sprintf("Processed %d contributors", processed), nil
	})
	if err != nil {
		return err
	}

	// Step 4: chain enrichment jobs. A queueing failure is logged, not fatal;
	// the sourced data is already persisted.
	err = p.runStep(ctx, job, 4, "Queuing social enrichment for contributors", func(_ *models.JobProgress) (string, error) {
		queued, skipped, err := p.enqueueEnrichment(ctx, repository, job.CreatedBy)
		if err != nil {
			return "", err
		}
		logger.Infof("Queued %d enrichment jobs for repo %s", queued, repository.FullName)
		return fmt.Sprintf("Queued enrichment for %d contributors (%d already enriched)", queued, skipped), nil
	})
	if err != nil {
		if errors.Is(err, ErrJobCancelled) {
			return err
		}
		logger.Warnf("Failed to queue enrichment jobs: %v", err)
		if uerr := p.tracker.UpdateJobProgress(ctx, job, 4, job.TotalSteps); uerr != nil {
			return uerr
		}
	}

	if err := p.finalizeJob(ctx, job); err != nil {
		return err
	}
	logger.Infof("Completed repository sourcing job %d", job.ID)

	p.checkAutoExport(ctx, job)
	return nil
}

// upsertContributor merges a fetched profile into the contributor table and
// returns the persisted row.
func (p *Processor) upsertContributor(ctx context.Context, profile *ContributorProfile) (*models.Contributor, error) {
	contributor := &models.Contributor{
		GitHubID:        profile.GitHubID,
		Username:        profile.Username,
		FullName:        profile.FullName,
		Email:           profile.Email,
		Company:         profile.Company,
		Location:        profile.Location,
		Bio:             profile.Bio,
		Blog:            profile.Blog,
		TwitterUsername: profile.TwitterUsername,
		AvatarURL:       profile.AvatarURL,
		GitHubURL:       profile.GitHubURL,
		PublicRepos:     profile.PublicRepos,
		Followers:       profile.Followers,
		Following:       profile.Following,
	}
	if err := p.contributors.Upsert(ctx, contributor); err != nil {
		return nil, err
	}
	return contributor, nil
}

// statsFromBulk builds a stats row for a contributor from the bulk stats
// map, falling back to the contribution count when the map has no entry.
func statsFromBulk(profile *ContributorProfile, bulk map[string]CommitStats) *models.ContributorStats {
	now := time.Now().UTC()
	row := &models.ContributorStats{
		Source:       models.StatsSourceCommit,
		CalculatedAt: now,
	}
	if cs, ok := bulk[profile.Username]; ok {
		row.TotalCommits = cs.TotalCommits
		row.CommitsLast3Months = cs.CommitsLast3Months
		row.CommitsLast6Months = cs.CommitsLast6Months
		row.CommitsLastYear = cs.CommitsLastYear
		row.FirstCommitDate = cs.FirstCommitDate
		row.LastCommitDate = cs.LastCommitDate
		row.PullRequests = cs.PullRequests
		row.IssuesOpened = cs.IssuesOpened
		row.IsMaintainer = cs.IsMaintainer
	} else {
		row.TotalCommits = profile.Contributions
	}
	return row
}

// enqueueEnrichment creates one social_enrichment job per linked contributor
// that has no social context yet. Returns queued and already-enriched counts.
func (p *Processor) enqueueEnrichment(ctx context.Context, repository *models.Repository, createdBy uint) (int, int, error) {
	enriched, err := p.scores.EnrichedContributorIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	linked, err := p.contributors.LinkedContributorIDs(ctx, repository.ID)
	if err != nil {
		return 0, 0, err
	}

	var jobs []*models.SourcingJob
	for _, contributorID := range linked {
		if enriched[contributorID] {
			continue
		}
		enrichJob, err := models.NewEnrichmentJob(repository.ProjectID, repository.ID, contributorID, createdBy)
		if err != nil {
			return 0, 0, err
		}
		jobs = append(jobs, enrichJob)
	}
	if err := p.jobs.CreateBatch(ctx, jobs); err != nil {
		return 0, 0, err
	}
	return len(jobs), len(linked) - len(jobs), nil
}
