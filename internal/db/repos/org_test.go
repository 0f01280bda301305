package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

type OrgRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestOrgRepository(t *testing.T) {
	suite.Run(t, new(OrgRepositoryTestSuite))
}

func (s *OrgRepositoryTestSuite) TestOrgIDForUser() {
	orgID, err := s.orgRepo.OrgIDForUser(s.ctx, 0)
	s.NoError(err)
	s.Zero(orgID)

	orgID, err = s.orgRepo.OrgIDForUser(s.ctx, 5)
	s.NoError(err)
	s.Zero(orgID)

	s.Require().NoError(s.db.Create(&models.OrgMember{OrgID: 7, UserID: 5}).Error)
	s.Require().NoError(s.db.Create(&models.OrgMember{OrgID: 9, UserID: 5}).Error)

	// First membership wins.
	orgID, err = s.orgRepo.OrgIDForUser(s.ctx, 5)
	s.NoError(err)
	s.Equal(uint(7), orgID)
}

func (s *OrgRepositoryTestSuite) TestSettings() {
	value, err := s.orgRepo.OrgSetting(s.ctx, 1, "CLAY_WEBHOOK_URL")
	s.NoError(err)
	s.Empty(value)

	value, err = s.orgRepo.AppSetting(s.ctx, "CLAY_WEBHOOK_URL")
	s.NoError(err)
	s.Empty(value)

	s.Require().NoError(s.db.Create(&models.AppSetting{
		Key: "CLAY_WEBHOOK_URL", Value: "https://app.example/hook",
	}).Error)
	s.Require().NoError(s.db.Create(&models.OrgSetting{
		OrgID: 1, Key: "CLAY_WEBHOOK_URL", Value: "https://org.example/hook",
	}).Error)

	value, err = s.orgRepo.AppSetting(s.ctx, "CLAY_WEBHOOK_URL")
	s.NoError(err)
	s.Equal("https://app.example/hook", value)

	value, err = s.orgRepo.OrgSetting(s.ctx, 1, "CLAY_WEBHOOK_URL")
	s.NoError(err)
	s.Equal("https://org.example/hook", value)

	value, err = s.orgRepo.OrgSetting(s.ctx, 2, "CLAY_WEBHOOK_URL")
	s.NoError(err)
	s.Empty(value)
}

func (s *OrgRepositoryTestSuite) TestRepositoryRoundTrip() {
	project := s.createTestProject("acme")
	repo := s.createTestRepository(project.ID, "acme/api")

	found, err := s.orgRepo.GetRepository(s.ctx, repo.ID)
	s.NoError(err)
	s.Equal(repo.FullName, found.FullName)

	found.Stars = 1234
	s.NoError(s.orgRepo.UpdateRepository(s.ctx, found))

	again, err := s.orgRepo.GetRepository(s.ctx, repo.ID)
	s.NoError(err)
	s.Equal(1234, again.Stars)

	_, err = s.orgRepo.GetRepository(s.ctx, 999)
	s.Error(err)
}
