package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leadsourcer/leadsourcer/config"
	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/db/repos"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// ErrJobCancelled signals that a job's status was flipped to cancelled by an
// external actor. It is a control-flow signal, not a failure: the terminal
// status is already set by whoever cancelled, the worker only cleans up its
// step rows.
var ErrJobCancelled = errors.New("job cancelled")

const cancelledMessage = "Cancelled by user"

// errorMessageLimit bounds adapter error text persisted on a failed job.
const errorMessageLimit = 500

// Processor claims pending jobs from the store and drives them through their
// per-type state machines. The database row is the only coordination point:
// claiming uses row locks and cancellation is discovered by re-reading status.
type Processor struct {
	cfg          config.Config
	jobs         *repos.JobRepository
	contributors *repos.ContributorRepository
	scores       *repos.ScoreRepository
	pushLogs     *repos.ClayPushRepository
	orgs         *repos.OrgRepository

	tracker  *Tracker
	ledger   *Ledger
	settings *Settings
	scorer   *Scorer

	fetcher    RepoFetcher
	enricher   Enricher
	classifier Classifier
	pusher     Pusher

	// sleep is swapped out in tests to observe rate-limit pauses.
	sleep func(time.Duration)

	mu      sync.Mutex
	running int
}

// ProcessorDeps bundles the collaborators a Processor needs.
type ProcessorDeps struct {
	Jobs         *repos.JobRepository
	Steps        *repos.ProgressRepository
	Contributors *repos.ContributorRepository
	Scores       *repos.ScoreRepository
	PushLogs     *repos.ClayPushRepository
	Orgs         *repos.OrgRepository
	Billing      *repos.BillingRepository

	Fetcher    RepoFetcher
	Enricher   Enricher
	Classifier Classifier
	Pusher     Pusher
}

// NewProcessor creates a new job processor instance
func NewProcessor(cfg config.Config, deps ProcessorDeps) *Processor {
	return &Processor{
		cfg:          cfg,
		jobs:         deps.Jobs,
		contributors: deps.Contributors,
		scores:       deps.Scores,
		pushLogs:     deps.PushLogs,
		orgs:         deps.Orgs,
		tracker:      NewTracker(deps.Jobs, deps.Steps),
		ledger:       NewLedger(deps.Billing, cfg.EnrichmentCreditCost),
		settings:     NewSettingsService(deps.Orgs),
		scorer:       NewScorer(),
		fetcher:      deps.Fetcher,
		enricher:     deps.Enricher,
		classifier:   deps.Classifier,
		pusher:       deps.Pusher,
		sleep:        time.Sleep,
	}
}

// Run is the scheduler loop. It recovers orphans once, then polls: claim up
// to the free concurrency budget, dispatch each claimed job on its own
// goroutine, wait, repeat. Returns when ctx is cancelled, after in-flight
// jobs finish.
func (p *Processor) Run(ctx context.Context) {
	logger.Info("Job processor started")

	if recovered, err := p.jobs.RecoverOrphaned(ctx); err != nil {
		logger.Errorf("Failed to recover orphaned jobs: %v", err)
	} else if recovered > 0 {
		logger.Infof("Recovered %d orphaned running jobs", recovered)
	}

	interval := time.Duration(p.cfg.CheckIntervalSeconds) * time.Second
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			logger.Info("Job processor received shutdown signal, stopping...")
			wg.Wait()
			return
		default:
		}

		budget := p.cfg.MaxConcurrentJobs - p.runningCount()
		claimed, err := p.jobs.ClaimPending(ctx, budget)
		if err != nil {
			logger.Errorf("Error claiming pending jobs: %v", err)
		} else if len(claimed) > 0 {
			logger.Infof("Claimed %d pending jobs", len(claimed))
			for i := range claimed {
				jobID := claimed[i].ID
				p.addRunning(1)
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer p.addRunning(-1)
					p.processJob(ctx, jobID)
				}()
			}
		}

		select {
		case <-ctx.Done():
			logger.Info("Job processor received shutdown signal, stopping...")
			wg.Wait()
			return
		case <-time.After(interval):
		}
	}
}

func (p *Processor) runningCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) addRunning(delta int) {
	p.mu.Lock()
	p.running += delta
	p.mu.Unlock()
}

// processJob re-reads a claimed job, routes it by type, and absorbs its
// outcome. Nothing that happens inside one job may crash the loop or affect
// sibling jobs.
func (p *Processor) processJob(ctx context.Context, jobID uint) {
	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		logger.Warnf("Job %d not found, skipping: %v", jobID, err)
		return
	}
	if job.Status == models.JobStatusCancelled {
		logger.Infof("Job %d already cancelled, skipping", jobID)
		return
	}

	switch job.JobType {
	case models.JobTypeRepositorySourcing:
		err = p.processRepositorySourcing(ctx, job)
	case models.JobTypeSocialEnrichment:
		err = p.processSocialEnrichment(ctx, job)
	case models.JobTypeStargazerAnalysis:
		err = p.processStargazerAnalysis(ctx, job)
	case models.JobTypeClayPush:
		err = p.processClayPush(ctx, job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.JobType)
	}

	if err == nil {
		return
	}
	if errors.Is(err, ErrJobCancelled) {
		logger.Infof("Job %d cancelled", job.ID)
		if err := p.tracker.FailActive(ctx, job.ID, cancelledMessage); err != nil {
			logger.Errorf("Failed to mark cancelled steps for job %d: %v", job.ID, err)
		}
		return
	}

	logger.Errorf("Error processing job %d: %v", job.ID, err)
	p.failJob(ctx, job, err)
}

// ensureActive re-reads the job's status and raises the cancellation signal
// if an external actor flipped it.
func (p *Processor) ensureActive(ctx context.Context, jobID uint) error {
	status, err := p.jobs.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if status == models.JobStatusCancelled {
		return ErrJobCancelled
	}
	return nil
}

// initJob moves a freshly dispatched job into running state and fixes its
// step count.
func (p *Processor) initJob(ctx context.Context, job *models.SourcingJob, totalSteps int) error {
	if job.Status != models.JobStatusRunning {
		job.Status = models.JobStatusRunning
	}
	if job.StartedAt == nil {
		now := time.Now().UTC()
		job.StartedAt = &now
	}
	if job.TotalSteps == 0 {
		job.TotalSteps = totalSteps
	}
	return p.jobs.Update(ctx, job)
}

// finalizeJob marks a job completed at 100 percent.
func (p *Processor) finalizeJob(ctx context.Context, job *models.SourcingJob) error {
	now := time.Now().UTC()
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &now
	job.Progress = 100
	return p.jobs.Update(ctx, job)
}

// failJob records a terminal failure. Partial progress is retained; each
// unit of work was committed individually.
func (p *Processor) failJob(ctx context.Context, job *models.SourcingJob, cause error) {
	now := time.Now().UTC()
	job.Status = models.JobStatusFailed
	job.ErrorMessage = truncateError(cause.Error())
	job.CompletedAt = &now
	if err := p.jobs.Update(ctx, job); err != nil {
		logger.Errorf("Failed to mark job %d as failed: %v", job.ID, err)
	}
}

// runStep executes one named step of a job: cancellation check, pending step
// row, running transition, the step body, then completed or failed. The body
// returns the completion message. On failure the step is marked failed with
// the error text and the error is returned; on success the job percentage is
// advanced to number/total.
func (p *Processor) runStep(ctx context.Context, job *models.SourcingJob, number int, name string, body func(step *models.JobProgress) (string, error)) error {
	if err := p.ensureActive(ctx, job.ID); err != nil {
		return err
	}
	step, err := p.tracker.CreateStep(ctx, job.ID, number, name)
	if err != nil {
		return err
	}
	if err := p.tracker.UpdateStep(ctx, step, models.StepStatusRunning, "", nil); err != nil {
		return err
	}

	message, err := body(step)
	if err != nil {
		if !errors.Is(err, ErrJobCancelled) {
			if uerr := p.tracker.UpdateStep(ctx, step, models.StepStatusFailed, err.Error(), nil); uerr != nil {
				logger.Errorf("Failed to mark step %d of job %d failed: %v", number, job.ID, uerr)
			}
		}
		return err
	}

	if err := p.tracker.UpdateStep(ctx, step, models.StepStatusCompleted, message, nil); err != nil {
		return err
	}
	return p.tracker.UpdateJobProgress(ctx, job, number, job.TotalSteps)
}

// rescore recomputes one contributor's lead score for one project, reading
// whatever social context exists at the time.
func (p *Processor) rescore(ctx context.Context, projectID uint, contributor *models.Contributor, stats StatsSummary) error {
	social, err := p.scores.GetSocialContext(ctx, contributor.ID)
	if err != nil {
		return err
	}
	signals := SocialSignals{}
	if social != nil {
		signals.Classification = social.Classification
		signals.PositionLevel = social.PositionLevel
	}

	result := p.scorer.Score(contributor, stats, signals)
	return p.scores.UpsertLeadScore(ctx, &models.LeadScore{
		ProjectID:       projectID,
		ContributorID:   contributor.ID,
		OverallScore:    result.Overall,
		ActivityScore:   result.Activity,
		InfluenceScore:  result.Influence,
		PositionScore:   result.Position,
		EngagementScore: result.Engagement,
		IsQualifiedLead: result.Qualified,
		Priority:        result.Priority,
	})
}

// summarizeStats flattens a set of per-repository stats rows into one
// aggregate profile. Maintainer status on any repository carries over.
func summarizeStats(rows []models.ContributorStats) StatsSummary {
	var summary StatsSummary
	for i := range rows {
		summary.TotalCommits += rows[i].TotalCommits
		summary.CommitsLast3Months += rows[i].CommitsLast3Months
		summary.PullRequests += rows[i].PullRequests
		summary.IssuesOpened += rows[i].IssuesOpened
		summary.CodeReviews += rows[i].CodeReviews
		summary.IsMaintainer = summary.IsMaintainer || rows[i].IsMaintainer
	}
	return summary
}

func truncateError(msg string) string {
	if len(msg) > errorMessageLimit {
		return msg[:errorMessageLimit]
	}
	return msg
}
