package services

import (
	"context"
	"os"
	"strconv"

	"github.com/leadsourcer/leadsourcer/internal/db/repos"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// Setting keys resolved at job time rather than process start, so changes
// made through the UI take effect without a restart.
const (
	SettingClayWebhookURL  = "CLAY_WEBHOOK_URL"
	SettingClayRateLimitMS = "CLAY_RATE_LIMIT_MS"
	SettingGitHubToken     = "GITHUB_TOKEN"
)

// Settings resolves configuration values through the chain
// org setting -> app setting -> environment -> default. Read failures at any
// level are logged and skipped, never surfaced to the caller.
type Settings struct {
	orgs *repos.OrgRepository
}

// NewSettingsService creates a new settings service instance
func NewSettingsService(orgs *repos.OrgRepository) *Settings {
	return &Settings{orgs: orgs}
}

// Get resolves a setting for an org. orgID zero skips the org level.
func (s *Settings) Get(ctx context.Context, orgID uint, key, fallback string) string {
	if orgID != 0 {
		value, err := s.orgs.OrgSetting(ctx, orgID, key)
		if err != nil {
			logger.Warnf("Failed to read org setting %s for org %d: %v", key, orgID, err)
		} else if value != "" {
			return value
		}
	}

	value, err := s.orgs.AppSetting(ctx, key)
	if err != nil {
		logger.Warnf("Failed to read setting %s: %v", key, err)
	} else if value != "" {
		return value
	}

	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetInt resolves an integer setting, falling back on parse failure.
func (s *Settings) GetInt(ctx context.Context, orgID uint, key string, fallback int) int {
	raw := s.Get(ctx, orgID, key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warnf("Setting %s has non-integer value %q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}
