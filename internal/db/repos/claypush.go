package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// ClayPushRepository handles database operations for webhook push logs
type ClayPushRepository struct {
	db *gorm.DB
}

// NewClayPushRepository creates a new push log repository instance
func NewClayPushRepository(db *gorm.DB) *ClayPushRepository {
	return &ClayPushRepository{db: db}
}

// Log appends one delivery attempt row
func (r *ClayPushRepository) Log(ctx context.Context, entry *models.ClayPushLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// SuccessfulContributorIDs returns the contributors already delivered for a
// project. Auto-export uses this set for exactly-once-per-success dedup.
func (r *ClayPushRepository) SuccessfulContributorIDs(ctx context.Context, projectID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ClayPushLog{}).
		Where("project_id = ? AND status = ?", projectID, models.PushStatusSuccess).
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
