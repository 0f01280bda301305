package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// ScoreRepository handles database operations for social context and lead
// scores
type ScoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository creates a new score repository instance
func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// GetSocialContext returns the contributor's social context, or nil when the
// contributor has not been enriched yet
func (r *ScoreRepository) GetSocialContext(ctx context.Context, contributorID uint) (*models.SocialContext, error) {
	var sc models.SocialContext
	err := r.db.WithContext(ctx).
		Where("contributor_id = ?", contributorID).
		First(&sc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// UpsertSocialContext creates or replaces the contributor's social context
func (r *ScoreRepository) UpsertSocialContext(ctx context.Context, sc *models.SocialContext) error {
	existing, err := r.GetSocialContext(ctx, sc.ContributorID)
	if err != nil {
		return fmt.Errorf("failed to look up social context: %w", err)
	}
	sc.LastEnrichedAt = time.Now().UTC()
	if existing == nil {
		return r.db.WithContext(ctx).Create(sc).Error
	}
	sc.ID = existing.ID
	sc.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(sc).Error
}

// EnrichedContributorIDs returns the set of contributors that already have a
// social context row
func (r *ScoreRepository) EnrichedContributorIDs(ctx context.Context) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.SocialContext{}).
		Pluck("contributor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// GetLeadScore returns the lead score for a project/contributor pair, or nil
func (r *ScoreRepository) GetLeadScore(ctx context.Context, projectID, contributorID uint) (*models.LeadScore, error) {
	var score models.LeadScore
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND contributor_id = ?", projectID, contributorID).
		First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// UpsertLeadScore creates or updates the score for a project/contributor pair
func (r *ScoreRepository) UpsertLeadScore(ctx context.Context, score *models.LeadScore) error {
	existing, err := r.GetLeadScore(ctx, score.ProjectID, score.ContributorID)
	if err != nil {
		return fmt.Errorf("failed to look up lead score: %w", err)
	}
	score.CalculatedAt = time.Now().UTC()
	if existing == nil {
		return r.db.WithContext(ctx).Create(score).Error
	}
	score.ID = existing.ID
	score.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(score).Error
}
