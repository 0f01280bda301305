package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// OrgRepository handles database operations for organizations, memberships
// and settings rows
type OrgRepository struct {
	db *gorm.DB
}

// NewOrgRepository creates a new org repository instance
func NewOrgRepository(db *gorm.DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// OrgIDForUser resolves the org of a user's first membership. Returns 0 when
// the user has no membership.
func (r *OrgRepository) OrgIDForUser(ctx context.Context, userID uint) (uint, error) {
	if userID == 0 {
		return 0, nil
	}
	var member models.OrgMember
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return member.OrgID, nil
}

// OrgSetting returns the org-level override for a key, or "" when unset
func (r *OrgRepository) OrgSetting(ctx context.Context, orgID uint, key string) (string, error) {
	var setting models.OrgSetting
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND key = ?", orgID, key).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// AppSetting returns the global setting for a key, or "" when unset
func (r *OrgRepository) AppSetting(ctx context.Context, key string) (string, error) {
	var setting models.AppSetting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// GetProject retrieves a project by primary key
func (r *OrgRepository) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetRepository retrieves a repository by primary key
func (r *OrgRepository) GetRepository(ctx context.Context, id uint) (*models.Repository, error) {
	var repo models.Repository
	if err := r.db.WithContext(ctx).First(&repo, id).Error; err != nil {
		return nil, err
	}
	return &repo, nil
}

// UpdateRepository persists every field of a repository
func (r *OrgRepository) UpdateRepository(ctx context.Context, repo *models.Repository) error {
	return r.db.WithContext(ctx).Save(repo).Error
}
