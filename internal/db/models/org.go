package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a minimal identity row, referenced by jobs via CreatedBy.
type User struct {
	gorm.Model
	Username string `json:"username" gorm:"uniqueIndex;not null"`
}

// Organization groups users for billing and settings.
type Organization struct {
	gorm.Model
	Name string `json:"name" gorm:"not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`
}

// OrgMember is an organization membership. A user's first membership
// resolves the org used for billing and settings.
type OrgMember struct {
	gorm.Model
	OrgID    uint      `json:"org_id" gorm:"not null;index"`
	UserID   uint      `json:"user_id" gorm:"not null;index"`
	Role     string    `json:"role" gorm:"default:member"`
	JoinedAt time.Time `json:"joined_at"`
}

// AppSetting is a global key/value setting stored in the database.
type AppSetting struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null;default:''"`
	IsSecret  bool      `json:"is_secret" gorm:"default:false"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrgSetting overrides an AppSetting for one organization.
type OrgSetting struct {
	gorm.Model
	OrgID uint   `json:"org_id" gorm:"not null;index:idx_org_setting,unique"`
	Key   string `json:"key" gorm:"not null;index:idx_org_setting,unique"`
	Value string `json:"value" gorm:"type:text;not null;default:''"`
}
