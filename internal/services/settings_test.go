package services

import (
	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

func (s *ProcessorTestSuite) TestSettingsResolutionChain() {
	settings := s.processor.settings
	key := "CLAY_WEBHOOK_URL"

	// Nothing configured anywhere: the fallback wins.
	s.Equal("fallback", settings.Get(s.ctx, 1, key, "fallback"))

	// Environment beats the fallback.
	s.T().Setenv(key, "https://env.example/hook")
	s.Equal("https://env.example/hook", settings.Get(s.ctx, 1, key, "fallback"))

	// App setting beats the environment.
	s.setAppSetting(key, "https://app.example/hook")
	s.Equal("https://app.example/hook", settings.Get(s.ctx, 1, key, "fallback"))

	// Org override beats everything, but only for that org.
	s.Require().NoError(s.db.Create(&models.OrgSetting{
		OrgID: 1, Key: key, Value: "https://org.example/hook",
	}).Error)
	s.Equal("https://org.example/hook", settings.Get(s.ctx, 1, key, "fallback"))
	s.Equal("https://app.example/hook", settings.Get(s.ctx, 2, key, "fallback"))

	// Org zero skips the org level entirely.
	s.Equal("https://app.example/hook", settings.Get(s.ctx, 0, key, "fallback"))
}

func (s *ProcessorTestSuite) TestSettingsGetInt() {
	settings := s.processor.settings

	s.Equal(200, settings.GetInt(s.ctx, 0, "CLAY_RATE_LIMIT_MS", 200))

	s.setAppSetting("CLAY_RATE_LIMIT_MS", "50")
	s.Equal(50, settings.GetInt(s.ctx, 0, "CLAY_RATE_LIMIT_MS", 200))

	s.setAppSetting("OTHER_LIMIT", "not-a-number")
	s.Equal(7, settings.GetInt(s.ctx, 0, "OTHER_LIMIT", 7))
}
