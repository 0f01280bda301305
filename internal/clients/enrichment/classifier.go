package enrichment

import (
	"context"
	"strings"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

// RuleClassifier is the deterministic fallback classification strategy. It
// matches job-title keywords and contribution thresholds and is used
// whenever no LLM is configured or the LLM call fails.
type RuleClassifier struct{}

var _ services.Classifier = (*RuleClassifier)(nil)

// NewRuleClassifier creates a new rule-based classifier instance
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var decisionMakerTerms = []string{
	"ceo", "cto", "cfo", "coo", "vp", "vice president", "director", "head of", "chief",
}

// Classify applies the rules in priority order: leadership title, then
// maintainer or heavy contributor, then recent activity.
func (c *RuleClassifier) Classify(_ context.Context, _ *models.Contributor, stats services.StatsSummary, profile services.ProfileInfo) (services.Classification, error) {
	position := strings.ToLower(profile.Position)
	for _, term := range decisionMakerTerms {
		if strings.Contains(position, term) {
			return services.Classification{
				Classification: models.ClassificationDecisionMaker,
				Confidence:     0.8,
				Reasoning:      "Senior leadership position",
			}, nil
		}
	}

	if stats.IsMaintainer || stats.TotalCommits > 100 {
		return services.Classification{
			Classification: models.ClassificationKeyContributor,
			Confidence:     0.7,
			Reasoning:      "High contribution level and maintainer status",
		}, nil
	}

	if stats.CommitsLast3Months >= 10 {
		return services.Classification{
			Classification: models.ClassificationHighImpact,
			Confidence:     0.6,
			Reasoning:      "Recent active contributions",
		}, nil
	}

	return services.Classification{
		Classification: models.ClassificationHighImpact,
		Confidence:     0.4,
		Reasoning:      "Active contributor",
	}, nil
}
