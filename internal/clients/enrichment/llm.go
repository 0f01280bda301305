package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
	"github.com/leadsourcer/leadsourcer/internal/logger"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

const defaultLLMBaseURL = "https://api.openai.com/v1"

// LLMClassifier classifies contributors through an OpenAI-compatible chat
// completions endpoint. Any failure falls back to the rule-based strategy,
// so classification never blocks enrichment.
type LLMClassifier struct {
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
	fallback services.Classifier
}

var _ services.Classifier = (*LLMClassifier)(nil)

// NewClassifier builds the classification strategy: the LLM classifier when
// an API key is configured, the rule-based one otherwise.
func NewClassifier(apiKey, model string) services.Classifier {
	if apiKey == "" {
		return NewRuleClassifier()
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &LLMClassifier{
		apiKey:   apiKey,
		model:    model,
		baseURL:  defaultLLMBaseURL,
		client:   &http.Client{Timeout: 60 * time.Second},
		fallback: NewRuleClassifier(),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify asks the model for a classification and parses its JSON answer.
func (c *LLMClassifier) Classify(ctx context.Context, contributor *models.Contributor, stats services.StatsSummary, profile services.ProfileInfo) (services.Classification, error) {
	result, err := c.classify(ctx, contributor, stats, profile)
	if err != nil {
		logger.Errorf("Error in LLM classification: %v", err)
		return c.fallback.Classify(ctx, contributor, stats, profile)
	}
	return result, nil
}

func (c *LLMClassifier) classify(ctx context.Context, contributor *models.Contributor, stats services.StatsSummary, profile services.ProfileInfo) (services.Classification, error) {
	var zero services.Classification

	prompt := fmt.Sprintf(`Contributor Information:
- Name: %s
- Username: %s
- Company: %s
- Bio: %s
- GitHub Followers: %d

Activity Stats:
- Total Commits: %d
- Commits (Last 3 months): %d
- Pull Requests: %d
- Is Maintainer: %t

Professional Profile:
- Current Position: %s
- Current Company: %s
- LinkedIn Headline: %s

Based on this information:

1. Classify this contributor into one of these categories:
   - DECISION_MAKER: C-suite, VPs, Directors who can make purchasing decisions
   - KEY_CONTRIBUTOR: Maintainers, core team members, architects with high influence
   - HIGH_IMPACT: Active contributors with significant recent activity

2. Infer their organization and industry from all available signals.

Return ONLY a JSON object with these fields:
{"classification": "DECISION_MAKER|KEY_CONTRIBUTOR|HIGH_IMPACT", "confidence": 0.0-1.0, "reasoning": "Brief explanation", "organization": "Best guess at current employer or null", "industry": "Industry sector or null"}`,
		contributor.FullName, contributor.Username, contributor.Company, contributor.Bio, contributor.Followers,
		stats.TotalCommits, stats.CommitsLast3Months, stats.PullRequests, stats.IsMaintainer,
		profile.Position, profile.Company, profile.Headline)

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert at analyzing professional profiles and classifying leads for B2B sales. Return only valid JSON."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return zero, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("chat completions returned %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return zero, err
	}
	if len(chat.Choices) == 0 {
		return zero, fmt.Errorf("chat completions returned no choices")
	}

	var parsed struct {
		Classification string  `json:"classification"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
		Organization   string  `json:"organization"`
		Industry       string  `json:"industry"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(chat.Choices[0].Message.Content)), &parsed); err != nil {
		return zero, fmt.Errorf("parsing classification: %w", err)
	}

	classification := parsed.Classification
	switch classification {
	case models.ClassificationDecisionMaker, models.ClassificationKeyContributor, models.ClassificationHighImpact:
	default:
		classification = models.ClassificationHighImpact
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return services.Classification{
		Classification: classification,
		Confidence:     confidence,
		Reasoning:      parsed.Reasoning,
		Organization:   parsed.Organization,
		Industry:       parsed.Industry,
	}, nil
}

// stripCodeFences removes a surrounding markdown code block, which models
// add despite instructions.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
