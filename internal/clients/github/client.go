// Package github implements the repository data fetcher against the GitHub
// REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/leadsourcer/leadsourcer/internal/logger"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

const defaultBaseURL = "https://api.github.com"

// statsRetries bounds how long we wait for GitHub to finish computing
// contributor statistics (the stats endpoint returns 202 while it does).
const statsRetries = 3

// Client fetches repository data from the GitHub REST API. All requests go
// through a shared token-bucket limiter to stay under the API quota.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ services.RepoFetcher = (*Client)(nil)

// New creates a GitHub client authenticated with the given token.
func New(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(8), 8),
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, accept string, out interface{}) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if accept == "" {
		accept = "application/vnd.github+json"
	}
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode == http.StatusAccepted {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("github: GET %s returned %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("github: decoding %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

type apiRepo struct {
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
}

type apiUser struct {
	ID              int64  `json:"id"`
	Login           string `json:"login"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	Bio             string `json:"bio"`
	Blog            string `json:"blog"`
	TwitterUsername string `json:"twitter_username"`
	AvatarURL       string `json:"avatar_url"`
	HTMLURL         string `json:"html_url"`
	PublicRepos     int    `json:"public_repos"`
	Followers       int    `json:"followers"`
	Following       int    `json:"following"`
}

type apiContributor struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	HTMLURL       string `json:"html_url"`
	Contributions int    `json:"contributions"`
}

// GetRepository returns the repository snapshot.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*services.RepoMetadata, error) {
	var r apiRepo
	if _, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), nil, "", &r); err != nil {
		return nil, err
	}
	return &services.RepoMetadata{
		FullName:    r.FullName,
		Description: r.Description,
		Stars:       r.StargazersCount,
		Forks:       r.ForksCount,
		OpenIssues:  r.OpenIssuesCount,
		Language:    r.Language,
		Topics:      r.Topics,
	}, nil
}

// GetContributors returns up to limit contributors, each hydrated with the
// full user profile. An individual profile fetch failure keeps the base
// record instead of dropping the contributor.
func (c *Client) GetContributors(ctx context.Context, owner, repo string, limit int) ([]services.ContributorProfile, error) {
	params := url.Values{"per_page": {fmt.Sprintf("%d", limit)}}
	var raw []apiContributor
	if _, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contributors", owner, repo), params, "", &raw); err != nil {
		return nil, err
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}

	profiles := make([]services.ContributorProfile, 0, len(raw))
	for i := range raw {
		profile := services.ContributorProfile{
			GitHubID:      raw[i].ID,
			Username:      raw[i].Login,
			AvatarURL:     raw[i].AvatarURL,
			GitHubURL:     raw[i].HTMLURL,
			Contributions: raw[i].Contributions,
		}
		c.hydrateUser(ctx, &profile)
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (c *Client) hydrateUser(ctx context.Context, profile *services.ContributorProfile) {
	var user apiUser
	if _, err := c.get(ctx, "/users/"+profile.Username, nil, "", &user); err != nil {
		logger.Warnf("Error fetching profile for %s: %v", profile.Username, err)
		return
	}
	profile.GitHubID = user.ID
	profile.Username = user.Login
	profile.FullName = user.Name
	profile.Email = user.Email
	profile.Company = user.Company
	profile.Location = user.Location
	profile.Bio = user.Bio
	profile.Blog = user.Blog
	profile.TwitterUsername = user.TwitterUsername
	profile.AvatarURL = user.AvatarURL
	profile.GitHubURL = user.HTMLURL
	profile.PublicRepos = user.PublicRepos
	profile.Followers = user.Followers
	profile.Following = user.Following
}

type apiContributorStats struct {
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	Total int `json:"total"`
	Weeks []struct {
		Week    int64 `json:"w"`
		Commits int   `json:"c"`
	} `json:"weeks"`
}

// GetBulkCommitStats fetches per-contributor weekly commit activity in one
// call and buckets it into the rolling windows the scorer uses. The stats
// endpoint answers 202 while GitHub computes the data; we retry briefly and
// return an empty map if it never settles.
func (c *Client) GetBulkCommitStats(ctx context.Context, owner, repo string) (map[string]services.CommitStats, error) {
	path := fmt.Sprintf("/repos/%s/%s/stats/contributors", owner, repo)

	var raw []apiContributorStats
	for attempt := 0; ; attempt++ {
		status, err := c.get(ctx, path, nil, "", &raw)
		if err != nil {
			return nil, err
		}
		if status != http.StatusAccepted {
			break
		}
		if attempt >= statsRetries {
			logger.Warnf("Contributor stats for %s/%s not ready, proceeding without", owner, repo)
			return map[string]services.CommitStats{}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	now := time.Now().UTC()
	threeMonthsAgo := now.AddDate(0, -3, 0)
	sixMonthsAgo := now.AddDate(0, -6, 0)
	oneYearAgo := now.AddDate(-1, 0, 0)

	stats := make(map[string]services.CommitStats, len(raw))
	for i := range raw {
		entry := services.CommitStats{TotalCommits: raw[i].Total}
		for _, week := range raw[i].Weeks {
			if week.Commits == 0 {
				continue
			}
			weekStart := time.Unix(week.Week, 0).UTC()
			if entry.FirstCommitDate == nil || weekStart.Before(*entry.FirstCommitDate) {
				t := weekStart
				entry.FirstCommitDate = &t
			}
			if entry.LastCommitDate == nil || weekStart.After(*entry.LastCommitDate) {
				t := weekStart
				entry.LastCommitDate = &t
			}
			if weekStart.After(threeMonthsAgo) {
				entry.CommitsLast3Months += week.Commits
			}
			if weekStart.After(sixMonthsAgo) {
				entry.CommitsLast6Months += week.Commits
			}
			if weekStart.After(oneYearAgo) {
				entry.CommitsLastYear += week.Commits
			}
		}
		stats[raw[i].Author.Login] = entry
	}
	return stats, nil
}

type apiStargazer struct {
	StarredAt time.Time `json:"starred_at"`
	User      apiUser   `json:"user"`
}

// GetStargazers returns up to limit stargazers hydrated with full profiles.
func (c *Client) GetStargazers(ctx context.Context, owner, repo string, limit int) ([]services.ContributorProfile, error) {
	params := url.Values{"per_page": {fmt.Sprintf("%d", limit)}}
	var raw []apiStargazer
	if _, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/stargazers", owner, repo), params, "application/vnd.github.star+json", &raw); err != nil {
		return nil, err
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}

	profiles := make([]services.ContributorProfile, 0, len(raw))
	for i := range raw {
		profile := services.ContributorProfile{
			GitHubID:  raw[i].User.ID,
			Username:  raw[i].User.Login,
			AvatarURL: raw[i].User.AvatarURL,
			GitHubURL: raw[i].User.HTMLURL,
		}
		c.hydrateUser(ctx, &profile)
		profiles = append(profiles, profile)
	}
	return profiles, nil
}
