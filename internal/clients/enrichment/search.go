// Package enrichment implements the profile search and classification
// adapters consumed by the enrichment job.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadsourcer/leadsourcer/internal/logger"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

const searchBaseURL = "https://serpapi.com/search"

// headlineLimit bounds the snippet text stored as the profile headline.
const headlineLimit = 200

// Searcher finds public professional profiles through a web search API and
// extracts LinkedIn signals from the results.
type Searcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ services.Enricher = (*Searcher)(nil)

// NewSearcher creates a search client. An empty API key is allowed; searches
// then return empty results and enrichment proceeds on GitHub data alone.
func NewSearcher(apiKey string) *Searcher {
	return &Searcher{
		apiKey:  apiKey,
		baseURL: searchBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// searchResults is the normalized shape persisted on the social context and
// consumed by ExtractProfile.
type searchResults struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Image   string `json:"image,omitempty"`
}

// SearchPerson queries the search API for a person's professional profile.
func (s *Searcher) SearchPerson(ctx context.Context, name, company, username string) (json.RawMessage, error) {
	if s.apiKey == "" {
		logger.Warn("Search API key not configured")
		return json.Marshal(searchResults{})
	}

	parts := []string{name}
	if company != "" {
		parts = append(parts, company)
	}
	if username != "" {
		parts = append(parts, username)
	}
	parts = append(parts, "LinkedIn")

	params := url.Values{
		"q":       {strings.Join(parts, " ")},
		"api_key": {s.apiKey},
		"engine":  {"google"},
		"num":     {"5"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	var raw struct {
		OrganicResults []struct {
			Title     string `json:"title"`
			Link      string `json:"link"`
			Snippet   string `json:"snippet"`
			Thumbnail string `json:"thumbnail"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	normalized := searchResults{Organic: make([]organicResult, 0, len(raw.OrganicResults))}
	for _, r := range raw.OrganicResults {
		normalized.Organic = append(normalized.Organic, organicResult{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
			Image:   r.Thumbnail,
		})
	}
	return json.Marshal(normalized)
}

// ExtractProfile pulls LinkedIn signals out of the first matching search
// result. Titles shaped like "Position - Company" yield both fields; the
// snippet becomes the headline.
func (s *Searcher) ExtractProfile(results json.RawMessage) services.ProfileInfo {
	var info services.ProfileInfo
	if len(results) == 0 {
		return info
	}

	var parsed searchResults
	if err := json.Unmarshal(results, &parsed); err != nil {
		logger.Warnf("Failed to parse search results: %v", err)
		return info
	}

	for _, result := range parsed.Organic {
		if !strings.Contains(result.Link, "linkedin.com/in/") {
			continue
		}
		info.LinkedInURL = result.Link
		info.PhotoURL = result.Image

		if parts := strings.Split(result.Title, " - "); len(parts) >= 2 {
			info.Position = strings.TrimSpace(parts[0])
			info.Company = strings.TrimSpace(parts[1])
		}
		if result.Snippet != "" {
			headline := result.Snippet
			if len(headline) > headlineLimit {
				headline = headline[:headlineLimit]
			}
			info.Headline = headline
		}
		break
	}
	return info
}
