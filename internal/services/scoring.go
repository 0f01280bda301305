package services

import (
	"strings"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// ScoreResult is the outcome of scoring one contributor for one project.
type ScoreResult struct {
	Overall    float64
	Activity   float64
	Influence  float64
	Position   float64
	Engagement float64
	Qualified  bool
	Priority   string
}

// SocialSignals is the slice of a contributor's social context that feeds
// the position score. Zero values score zero.
type SocialSignals struct {
	Classification string
	PositionLevel  string
}

// Scorer computes deterministic lead scores. The component scores are each
// capped at 100 and combined with fixed weights; position dominates because
// purchasing authority matters more than raw activity for lead quality.
type Scorer struct{}

// NewScorer creates a new scorer instance
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the weighted overall score and its components.
func (s *Scorer) Score(contributor *models.Contributor, stats StatsSummary, social SocialSignals) ScoreResult {
	activity := s.activityScore(stats)
	influence := s.influenceScore(contributor)
	position := s.positionScore(social)
	engagement := s.engagementScore(stats)

	overall := position*0.4 + activity*0.25 + influence*0.20 + engagement*0.15

	priority := "low"
	switch {
	case overall >= 80:
		priority = "high"
	case overall >= 60:
		priority = "medium"
	}

	return ScoreResult{
		Overall:    overall,
		Activity:   activity,
		Influence:  influence,
		Position:   position,
		Engagement: engagement,
		Qualified:  overall >= 60,
		Priority:   priority,
	}
}

func (s *Scorer) activityScore(stats StatsSummary) float64 {
	score := 0.0

	switch {
	case stats.CommitsLast3Months >= 50:
		score += 40
	case stats.CommitsLast3Months >= 20:
		score += 30
	case stats.CommitsLast3Months >= 10:
		score += 20
	case stats.CommitsLast3Months >= 5:
		score += 10
	}

	switch {
	case stats.TotalCommits >= 500:
		score += 30
	case stats.TotalCommits >= 200:
		score += 25
	case stats.TotalCommits >= 100:
		score += 20
	case stats.TotalCommits >= 50:
		score += 15
	case stats.TotalCommits >= 10:
		score += 10
	}

	switch {
	case stats.PullRequests >= 50:
		score += 20
	case stats.PullRequests >= 20:
		score += 15
	case stats.PullRequests >= 10:
		score += 10
	case stats.PullRequests >= 5:
		score += 5
	}

	if stats.IsMaintainer {
		score += 10
	}

	return capScore(score)
}

func (s *Scorer) influenceScore(contributor *models.Contributor) float64 {
	score := 0.0

	switch {
	case contributor.Followers >= 1000:
		score += 50
	case contributor.Followers >= 500:
		score += 40
	case contributor.Followers >= 100:
		score += 30
	case contributor.Followers >= 50:
		score += 20
	case contributor.Followers >= 10:
		score += 10
	}

	switch {
	case contributor.PublicRepos >= 50:
		score += 30
	case contributor.PublicRepos >= 20:
		score += 20
	case contributor.PublicRepos >= 10:
		score += 15
	case contributor.PublicRepos >= 5:
		score += 10
	}

	if contributor.Company != "" {
		score += 20
	}

	return capScore(score)
}

func (s *Scorer) positionScore(social SocialSignals) float64 {
	score := 0.0

	switch social.Classification {
	case models.ClassificationDecisionMaker:
		score += 60
	case models.ClassificationKeyContributor:
		score += 40
	case models.ClassificationHighImpact:
		score += 20
	}

	switch social.PositionLevel {
	case "C-Suite":
		score += 40
	case "Director":
		score += 35
	case "Manager":
		score += 25
	case "Lead":
		score += 20
	case "Senior":
		score += 15
	case "Mid":
		score += 10
	case "Entry":
		score += 5
	}

	return capScore(score)
}

func (s *Scorer) engagementScore(stats StatsSummary) float64 {
	score := 0.0

	switch {
	case stats.IssuesOpened >= 20:
		score += 30
	case stats.IssuesOpened >= 10:
		score += 20
	case stats.IssuesOpened >= 5:
		score += 10
	}

	switch {
	case stats.CodeReviews >= 50:
		score += 30
	case stats.CodeReviews >= 20:
		score += 20
	case stats.CodeReviews >= 10:
		score += 10
	}

	var recency float64
	if stats.TotalCommits > 0 {
		recency = float64(stats.CommitsLast3Months) / float64(stats.TotalCommits)
	}
	switch {
	case recency >= 0.5:
		score += 40
	case recency >= 0.3:
		score += 30
	case recency >= 0.2:
		score += 20
	case recency >= 0.1:
		score += 10
	}

	return capScore(score)
}

func capScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	return score
}

// PositionLevel maps a job title to a seniority band by keyword matching.
// Empty titles are Unknown, unmatched titles fall through to Entry.
func PositionLevel(position string) string {
	if position == "" {
		return "Unknown"
	}
	title := strings.ToLower(position)

	contains := func(terms ...string) bool {
		for _, term := range terms {
			if strings.Contains(title, term) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("ceo", "cto", "cfo", "coo", "cmo", "chief", "president", "founder"):
		return "C-Suite"
	case contains("vp", "vice president", "director", "head of"):
		return "Director"
	case contains("manager", "lead", "principal"):
		return "Manager"
	case contains("senior", "sr.", "staff"):
		return "Senior"
	case contains("engineer", "developer", "architect", "analyst"):
		return "Mid"
	}
	return "Entry"
}
