package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Contributor classification constants
const (
	// ClassificationDecisionMaker marks C-suite, VPs and directors
	ClassificationDecisionMaker = "DECISION_MAKER"
	// ClassificationKeyContributor marks maintainers and core team members
	ClassificationKeyContributor = "KEY_CONTRIBUTOR"
	// ClassificationHighImpact marks contributors with significant recent activity
	ClassificationHighImpact = "HIGH_IMPACT"
)

// SocialContext holds professional-profile enrichment for a contributor.
// Its presence is what marks a contributor as "already enriched".
type SocialContext struct {
	gorm.Model
	ContributorID uint `json:"contributor_id" gorm:"uniqueIndex;not null"`

	LinkedInURL     string `json:"linkedin_url,omitempty"`
	ProfilePhotoURL string `json:"linkedin_profile_photo_url,omitempty"`
	Headline        string `json:"linkedin_headline,omitempty" gorm:"type:text"`
	CurrentCompany  string `json:"current_company,omitempty"`
	CurrentPosition string `json:"current_position,omitempty"`
	PositionLevel   string `json:"position_level,omitempty"`
	Industry        string `json:"industry,omitempty"`

	Classification           string  `json:"classification,omitempty"`
	ClassificationConfidence float64 `json:"classification_confidence"`
	ClassificationReasoning  string  `json:"classification_reasoning,omitempty" gorm:"type:text"`

	SearchResults  json.RawMessage `json:"search_results,omitempty" gorm:"type:jsonb"`
	LastEnrichedAt time.Time       `json:"last_enriched_at"`
}

// LeadScore is the per-project score of a contributor, recomputed whenever
// stats or social context change.
type LeadScore struct {
	gorm.Model
	ProjectID     uint `json:"project_id" gorm:"not null;index:idx_score_project_contrib,unique"`
	ContributorID uint `json:"contributor_id" gorm:"not null;index:idx_score_project_contrib,unique"`

	OverallScore    float64 `json:"overall_score"`
	ActivityScore   float64 `json:"activity_score"`
	InfluenceScore  float64 `json:"influence_score"`
	PositionScore   float64 `json:"position_score"`
	EngagementScore float64 `json:"engagement_score"`

	IsQualifiedLead bool      `json:"is_qualified_lead"`
	Priority        string    `json:"priority,omitempty"`
	CalculatedAt    time.Time `json:"calculated_at"`
}
