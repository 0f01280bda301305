package models

import (
	"time"

	"gorm.io/gorm"
)

// Stats source constants. Commit provenance is authoritative: a stats row
// tagged 'commit' is never downgraded to 'stargazer'.
const (
	// StatsSourceCommit marks stats derived from commit activity
	StatsSourceCommit = "commit"
	// StatsSourceStargazer marks stats rows created from the stargazer list
	StatsSourceStargazer = "stargazer"
)

// Contributor is a GitHub identity discovered through sourcing.
type Contributor struct {
	gorm.Model
	GitHubID        int64  `json:"github_id" gorm:"uniqueIndex;not null"`
	Username        string `json:"username" gorm:"uniqueIndex;not null"`
	FullName        string `json:"full_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Company         string `json:"company,omitempty"`
	Location        string `json:"location,omitempty"`
	Bio             string `json:"bio,omitempty" gorm:"type:text"`
	Blog            string `json:"blog,omitempty"`
	TwitterUsername string `json:"twitter_username,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	GitHubURL       string `json:"github_url,omitempty"`
	PublicRepos     int    `json:"public_repos"`
	Followers       int    `json:"followers"`
	Following       int    `json:"following"`
}

// RepositoryContributor links a contributor to a repository.
type RepositoryContributor struct {
	gorm.Model
	RepositoryID  uint      `json:"repository_id" gorm:"not null;index:idx_repo_contrib,unique"`
	ContributorID uint      `json:"contributor_id" gorm:"not null;index:idx_repo_contrib,unique"`
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// ContributorStats holds per-repository activity counters for a contributor.
type ContributorStats struct {
	gorm.Model
	RepositoryID       uint       `json:"repository_id" gorm:"not null;index:idx_stats_repo_contrib,unique"`
	ContributorID      uint       `json:"contributor_id" gorm:"not null;index:idx_stats_repo_contrib,unique"`
	TotalCommits       int        `json:"total_commits"`
	CommitsLast3Months int        `json:"commits_last_3_months"`
	CommitsLast6Months int        `json:"commits_last_6_months"`
	CommitsLastYear    int        `json:"commits_last_year"`
	FirstCommitDate    *time.Time `json:"first_commit_date,omitempty"`
	LastCommitDate     *time.Time `json:"last_commit_date,omitempty"`
	PullRequests       int        `json:"pull_requests"`
	IssuesOpened       int        `json:"issues_opened"`
	CodeReviews        int        `json:"code_reviews"`
	IsMaintainer       bool       `json:"is_maintainer"`
	Source             string     `json:"source" gorm:"default:commit"`
	CalculatedAt       time.Time  `json:"calculated_at"`
}
