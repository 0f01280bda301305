package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// ContributorRepository handles database operations for contributors and
// their per-repository stats
type ContributorRepository struct {
	db *gorm.DB
}

// NewContributorRepository creates a new contributor repository instance
func NewContributorRepository(db *gorm.DB) *ContributorRepository {
	return &ContributorRepository{db: db}
}

// Upsert creates the contributor or merges profile fields into the existing
// row keyed by GitHubID. Existing non-empty fields win over empty incoming
// ones; counters always take the incoming value.
func (r *ContributorRepository) Upsert(ctx context.Context, c *models.Contributor) error {
	var existing models.Contributor
	err := r.db.WithContext(ctx).
		Where("git_hub_id = ?", c.GitHubID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(c).Error
	}
	if err != nil {
		return fmt.Errorf("failed to look up contributor: %w", err)
	}

	existing.Username = c.Username
	existing.FullName = firstNonEmpty(c.FullName, existing.FullName)
	existing.Email = firstNonEmpty(c.Email, existing.Email)
	existing.Company = firstNonEmpty(c.Company, existing.Company)
	existing.Location = firstNonEmpty(c.Location, existing.Location)
	existing.Bio = firstNonEmpty(c.Bio, existing.Bio)
	existing.Blog = firstNonEmpty(c.Blog, existing.Blog)
	existing.TwitterUsername = firstNonEmpty(c.TwitterUsername, existing.TwitterUsername)
	existing.AvatarURL = firstNonEmpty(c.AvatarURL, existing.AvatarURL)
	existing.GitHubURL = firstNonEmpty(c.GitHubURL, existing.GitHubURL)
	existing.Followers = c.Followers
	existing.Following = c.Following
	existing.PublicRepos = c.PublicRepos

	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to update contributor: %w", err)
	}
	*c = existing
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// GetByID retrieves a contributor by primary key
func (r *ContributorRepository) GetByID(ctx context.Context, id uint) (*models.Contributor, error) {
	var c models.Contributor
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, fmt.Errorf("contributor not found: %w", err)
	}
	return &c, nil
}

// GetByIDs retrieves contributors by primary keys, preserving only found rows
func (r *ContributorRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Contributor, error) {
	var cs []models.Contributor
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&cs).Error
	return cs, err
}

// EnsureLink creates the repository-contributor link if it does not exist
func (r *ContributorRepository) EnsureLink(ctx context.Context, repositoryID, contributorID uint) error {
	var link models.RepositoryContributor
	err := r.db.WithContext(ctx).
		Where("repository_id = ? AND contributor_id = ?", repositoryID, contributorID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&models.RepositoryContributor{
			RepositoryID:  repositoryID,
			ContributorID: contributorID,
			DiscoveredAt:  time.Now().UTC(),
		}).Error
	}
	return err
}

// UpsertStats writes per-repository stats for a contributor. A row already
// tagged with commit provenance keeps it even when the incoming source is
// stargazer.
func (r *ContributorRepository) UpsertStats(ctx context.Context, stats *models.ContributorStats) error {
	var existing models.ContributorStats
	err := r.db.WithContext(ctx).
		Where("repository_id = ? AND contributor_id = ?", stats.RepositoryID, stats.ContributorID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if stats.Source == "" {
			stats.Source = models.StatsSourceCommit
		}
		stats.CalculatedAt = time.Now().UTC()
		return r.db.WithContext(ctx).Create(stats).Error
	}
	if err != nil {
		return fmt.Errorf("failed to look up stats: %w", err)
	}

	source := stats.Source
	if existing.Source == models.StatsSourceCommit {
		source = models.StatsSourceCommit
	}

	existing.TotalCommits = stats.TotalCommits
	existing.CommitsLast3Months = stats.CommitsLast3Months
	existing.CommitsLast6Months = stats.CommitsLast6Months
	existing.CommitsLastYear = stats.CommitsLastYear
	existing.FirstCommitDate = stats.FirstCommitDate
	existing.LastCommitDate = stats.LastCommitDate
	existing.PullRequests = stats.PullRequests
	existing.IssuesOpened = stats.IssuesOpened
	existing.CodeReviews = stats.CodeReviews
	existing.IsMaintainer = stats.IsMaintainer
	existing.Source = source
	existing.CalculatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	*stats = existing
	return nil
}

// TouchStargazerStats ensures a stats row exists for a stargazer without
// overwriting commit-derived counters.
func (r *ContributorRepository) TouchStargazerStats(ctx context.Context, repositoryID, contributorID uint) error {
	var existing models.ContributorStats
	err := r.db.WithContext(ctx).
		Where("repository_id = ? AND contributor_id = ?", repositoryID, contributorID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&models.ContributorStats{
			RepositoryID:  repositoryID,
			ContributorID: contributorID,
			Source:        models.StatsSourceStargazer,
			CalculatedAt:  time.Now().UTC(),
		}).Error
	}
	if err != nil {
		return err
	}
	if existing.Source != models.StatsSourceCommit {
		existing.Source = models.StatsSourceStargazer
	}
	existing.CalculatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(&existing).Error
}

// FirstStats returns any stats row for the contributor, or nil when none exist
func (r *ContributorRepository) FirstStats(ctx context.Context, contributorID uint) (*models.ContributorStats, error) {
	var stats models.ContributorStats
	err := r.db.WithContext(ctx).
		Where("contributor_id = ?", contributorID).
		First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// StatsForProject returns the contributor's stats rows across every
// repository of the given project
func (r *ContributorRepository) StatsForProject(ctx context.Context, projectID, contributorID uint) ([]models.ContributorStats, error) {
	var stats []models.ContributorStats
	err := r.db.WithContext(ctx).
		Joins("JOIN repositories ON repositories.id = contributor_stats.repository_id").
		Where("repositories.project_id = ? AND contributor_stats.contributor_id = ?", projectID, contributorID).
		Find(&stats).Error
	return stats, err
}

// ProjectIDsFor returns the distinct projects the contributor participates in
func (r *ContributorRepository) ProjectIDsFor(ctx context.Context, contributorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Repository{}).
		Distinct("repositories.project_id").
		Joins("JOIN repository_contributors ON repository_contributors.repository_id = repositories.id").
		Where("repository_contributors.contributor_id = ?", contributorID).
		Pluck("repositories.project_id", &ids).Error
	return ids, err
}

// ContributorIDsForProject returns the distinct contributors linked to any
// repository of the project
func (r *ContributorRepository) ContributorIDsForProject(ctx context.Context, projectID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.RepositoryContributor{}).
		Distinct("repository_contributors.contributor_id").
		Joins("JOIN repositories ON repositories.id = repository_contributors.repository_id").
		Where("repositories.project_id = ?", projectID).
		Pluck("repository_contributors.contributor_id", &ids).Error
	return ids, err
}

// LinkedContributorIDs returns the contributors linked to one repository
func (r *ContributorRepository) LinkedContributorIDs(ctx context.Context, repositoryID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.RepositoryContributor{}).
		Where("repository_id = ?", repositoryID).
		Pluck("contributor_id", &ids).Error
	return ids, err
}
