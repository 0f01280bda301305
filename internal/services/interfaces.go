// Package services implements the job processing engine and its supporting
// business logic.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// RepoMetadata is the repository snapshot returned by the fetcher.
type RepoMetadata struct {
	FullName    string
	Description string
	Stars       int
	Forks       int
	OpenIssues  int
	Language    string
	Topics      []string
}

// ContributorProfile is one GitHub identity returned by the fetcher, either
// from the contributor list or the stargazer list.
type ContributorProfile struct {
	GitHubID        int64
	Username        string
	FullName        string
	Email           string
	Company         string
	Location        string
	Bio             string
	Blog            string
	TwitterUsername string
	AvatarURL       string
	GitHubURL       string
	PublicRepos     int
	Followers       int
	Following       int
	Contributions   int
}

// CommitStats holds per-repository activity counters for one contributor.
type CommitStats struct {
	TotalCommits       int
	CommitsLast3Months int
	CommitsLast6Months int
	CommitsLastYear    int
	FirstCommitDate    *time.Time
	LastCommitDate     *time.Time
	PullRequests       int
	IssuesOpened       int
	IsMaintainer       bool
}

// RepoFetcher retrieves repository data from the source forge. Implementations
// handle their own retries; an error here is treated as a step failure.
type RepoFetcher interface {
	GetRepository(ctx context.Context, owner, repo string) (*RepoMetadata, error)
	GetContributors(ctx context.Context, owner, repo string, limit int) ([]ContributorProfile, error)
	GetBulkCommitStats(ctx context.Context, owner, repo string) (map[string]CommitStats, error)
	GetStargazers(ctx context.Context, owner, repo string, limit int) ([]ContributorProfile, error)
}

// ProfileInfo is the professional profile extracted from raw search results.
type ProfileInfo struct {
	LinkedInURL string
	PhotoURL    string
	Headline    string
	Company     string
	Position    string
}

// Enricher searches the public web for a person and extracts profile signals
// from the raw results.
type Enricher interface {
	SearchPerson(ctx context.Context, name, company, username string) (json.RawMessage, error)
	ExtractProfile(results json.RawMessage) ProfileInfo
}

// StatsSummary is the flattened activity profile fed to classification and
// scoring, possibly aggregated across repositories.
type StatsSummary struct {
	TotalCommits       int
	CommitsLast3Months int
	PullRequests       int
	IssuesOpened       int
	CodeReviews        int
	IsMaintainer       bool
}

// Classification is the outcome of classifying one contributor.
type Classification struct {
	Classification string
	Confidence     float64
	Reasoning      string
	Organization   string
	Industry       string
}

// Classifier assigns a lead classification to a contributor. Implementations
// are expected to degrade internally (the LLM classifier falls back to rules)
// so an error here fails the enrichment step.
type Classifier interface {
	Classify(ctx context.Context, contributor *models.Contributor, stats StatsSummary, profile ProfileInfo) (Classification, error)
}

// LeadPayload is the document POSTed to the webhook for one lead.
type LeadPayload struct {
	EventID  string          `json:"event_id"`
	PushMode string          `json:"push_mode,omitempty"`
	Project  PayloadProject  `json:"project"`
	Lead     PayloadLead     `json:"lead"`
	Score    *PayloadScore   `json:"score,omitempty"`
	Profile  *PayloadProfile `json:"profile,omitempty"`
}

// PayloadProject identifies the project a lead belongs to.
type PayloadProject struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PayloadLead carries the contributor's identity fields.
type PayloadLead struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	Location  string `json:"location,omitempty"`
	GitHubURL string `json:"github_url,omitempty"`
	Followers int    `json:"followers"`
}

// PayloadScore carries the lead's score for the project.
type PayloadScore struct {
	Overall   float64 `json:"overall"`
	Qualified bool    `json:"qualified"`
	Priority  string  `json:"priority,omitempty"`
}

// PayloadProfile carries enrichment signals when the lead has been enriched.
type PayloadProfile struct {
	LinkedInURL    string `json:"linkedin_url,omitempty"`
	Position       string `json:"position,omitempty"`
	PositionLevel  string `json:"position_level,omitempty"`
	Classification string `json:"classification,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

// Pusher delivers one lead payload to the webhook. ok reports delivery
// success; httpStatus is 0 when the request never reached the receiver.
type Pusher interface {
	Push(ctx context.Context, url string, payload LeadPayload) (ok bool, httpStatus int, err error)
}
