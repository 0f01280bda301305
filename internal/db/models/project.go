package models

import (
	"time"

	"gorm.io/gorm"
)

// Project groups repositories and carries the auto-export policy evaluated
// after sourcing jobs complete.
type Project struct {
	gorm.Model
	OrgID       uint   `json:"org_id" gorm:"index"`
	UserID      uint   `json:"user_id" gorm:"index"`
	Name        string `json:"name" gorm:"not null;index"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`

	AutoExportEnabled         bool       `json:"auto_export_enabled" gorm:"default:false"`
	AutoExportMinScore        *float64   `json:"auto_export_min_score,omitempty"`
	AutoExportClassifications StringList `json:"auto_export_classifications,omitempty" gorm:"type:jsonb"`
}

// Repository is a tracked GitHub repository inside a project.
type Repository struct {
	gorm.Model
	ProjectID     uint       `json:"project_id" gorm:"not null;index"`
	GitHubURL     string     `json:"github_url"`
	FullName      string     `json:"full_name" gorm:"not null;index"`
	Owner         string     `json:"owner" gorm:"not null"`
	RepoName      string     `json:"repo_name" gorm:"not null"`
	Description   string     `json:"description,omitempty" gorm:"type:text"`
	Stars         int        `json:"stars"`
	Forks         int        `json:"forks"`
	OpenIssues    int        `json:"open_issues"`
	Language      string     `json:"language,omitempty"`
	Topics        StringList `json:"topics,omitempty" gorm:"type:jsonb"`
	LastSourcedAt *time.Time `json:"last_sourced_at,omitempty"`
}
