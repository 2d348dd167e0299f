package repos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/betslib/feedsync/internal/db/models"
)

type IntegrationRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestIntegrationRepository(t *testing.T) {
	suite.Run(t, new(IntegrationRepositoryTestSuite))
}

func (s *IntegrationRepositoryTestSuite) TestGetOrCreate() {
	status, err := s.integrationRepo.GetOrCreate(s.ctx, "odds_feed", 24*time.Hour)
	s.NoError(err)
	s.NotZero(status.ID)
	s.Equal("odds_feed", status.IntegrationName)
	s.Equal(models.HealthUnknown, status.Health)
	s.Equal(24*time.Hour, status.StaleThreshold)
	s.Zero(status.ConsecutiveFailures)
	s.Nil(status.LastSuccessAt)
}

func (s *IntegrationRepositoryTestSuite) TestGetOrCreateIsIdempotent() {
	first := s.createTestIntegration("odds_feed")

	// A second lookup returns the same row, not a new one
	second, err := s.integrationRepo.GetOrCreate(s.ctx, "odds_feed", 48*time.Hour)
	s.NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(24*time.Hour, second.StaleThreshold)
}

func (s *IntegrationRepositoryTestSuite) TestSave() {
	status := s.createTestIntegration("odds_feed")

	now := time.Now().UTC()
	status.Health = models.HealthHealthy
	status.LastSuccessAt = &now
	status.ConsecutiveFailures = 0
	s.NoError(s.integrationRepo.Save(s.ctx, status))

	reloaded, err := s.integrationRepo.GetOrCreate(s.ctx, "odds_feed", 24*time.Hour)
	s.NoError(err)
	s.Equal(models.HealthHealthy, reloaded.Health)
	s.NotNil(reloaded.LastSuccessAt)
}

func (s *IntegrationRepositoryTestSuite) TestList() {
	s.createTestIntegration("stats_feed")
	s.createTestIntegration("odds_feed")

	statuses, err := s.integrationRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(statuses, 2)

	// Ordered by name
	s.Equal("odds_feed", statuses[0].IntegrationName)
	s.Equal("stats_feed", statuses[1].IntegrationName)
}
