package services

import (
	"context"
	"sync"
	"time"

	"github.com/betslib/feedsync/internal/config"
	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/db/repos"
	"github.com/betslib/feedsync/internal/logger"
)

// DegradedFailureThreshold is the number of consecutive failures after which
// an integration's computed health becomes degraded
const DegradedFailureThreshold = 3

// DefaultStaleThreshold is used for integrations first seen outside of configuration
const DefaultStaleThreshold = 24 * time.Hour

// Health tracks the operational state of every provider integration.
// Row updates are read-modify-write, serialized per integration name so a
// sync outcome racing a manual disable cannot lose an update.
type Health struct {
	repo           *repos.IntegrationRepository
	staleDefaults  map[string]time.Duration
	features       map[string][]config.FeatureRequirement
	mu             sync.Mutex
	rowLocks       map[string]*sync.Mutex
	now            func() time.Time
}

// NewHealthService creates a new integration health tracker
func NewHealthService(repo *repos.IntegrationRepository, providers []config.ProviderConfig, features map[string][]config.FeatureRequirement) *Health {
	staleDefaults := make(map[string]time.Duration, len(providers))
	for _, p := range providers {
		staleDefaults[p.Name] = p.StaleAfter
	}
	return &Health{
		repo:          repo,
		staleDefaults: staleDefaults,
		features:      features,
		rowLocks:      make(map[string]*sync.Mutex),
		now:           time.Now,
	}
}

func (s *Health) rowLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.rowLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.rowLocks[name] = lock
	}
	return lock
}

func (s *Health) staleThreshold(name string) time.Duration {
	if d, ok := s.staleDefaults[name]; ok {
		return d
	}
	return DefaultStaleThreshold
}

// GetStatus returns the status row for the integration, creating it with
// unknown health on first access
func (s *Health) GetStatus(ctx context.Context, name string) (*models.IntegrationStatus, error) {
	return s.repo.GetOrCreate(ctx, name, s.staleThreshold(name))
}

// ListStatuses returns all known integration status rows
func (s *Health) ListStatuses(ctx context.Context) ([]models.IntegrationStatus, error) {
	return s.repo.List(ctx)
}

// RecordSuccess records a successful sync attempt for the integration
func (s *Health) RecordSuccess(ctx context.Context, name string, duration time.Duration) error {
	lock := s.rowLock(name)
	lock.Lock()
	defer lock.Unlock()

	status, err := s.GetStatus(ctx, name)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	status.LastSuccessAt = &now
	status.ConsecutiveFailures = 0
	status.Health = s.computeHealth(status)
	if err := s.repo.Save(ctx, status); err != nil {
		return err
	}

	logger.InfoWithFields("Sync succeeded", map[string]interface{}{
		"integration": name,
		"duration":    duration.String(),
	})
	return nil
}

// RecordFailure records a failed sync attempt for the integration
func (s *Health) RecordFailure(ctx context.Context, name, message, details string) error {
	lock := s.rowLock(name)
	lock.Lock()
	defer lock.Unlock()

	status, err := s.GetStatus(ctx, name)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	status.LastFailureAt = &now
	status.ConsecutiveFailures++
	status.LastErrorMessage = message
	status.LastErrorDetails = details
	status.Health = s.computeHealth(status)
	if err := s.repo.Save(ctx, status); err != nil {
		return err
	}

	logger.WarnWithFields("Sync failed", map[string]interface{}{
		"integration":          name,
		"consecutive_failures": status.ConsecutiveFailures,
		"error":                message,
	})
	return nil
}

// IsOperational reports whether the integration may be used at all
func (s *Health) IsOperational(ctx context.Context, name string) (bool, error) {
	status, err := s.GetStatus(ctx, name)
	if err != nil {
		return false, err
	}
	return status.Operational(), nil
}

// HasFreshData reports whether the integration is operational and its last
// successful sync is within the stale threshold
func (s *Health) HasFreshData(ctx context.Context, name string) (bool, error) {
	status, err := s.GetStatus(ctx, name)
	if err != nil {
		return false, err
	}
	return status.Operational() && status.Fresh(s.now().UTC()), nil
}

// Disable manually disables the integration. The manual override wins over
// any computed health until an administrator re-enables it.
func (s *Health) Disable(ctx context.Context, name, reason, actor string) (*models.IntegrationStatus, error) {
	lock := s.rowLock(name)
	lock.Lock()
	defer lock.Unlock()

	status, err := s.GetStatus(ctx, name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status.IsManuallyDisabled = true
	status.DisabledReason = reason
	status.DisabledBy = actor
	status.DisabledAt = &now
	status.Health = models.HealthDisabled
	if err := s.repo.Save(ctx, status); err != nil {
		return nil, err
	}

	logger.WarnWithFields("Integration disabled", map[string]interface{}{
		"integration": name,
		"reason":      reason,
		"actor":       actor,
	})
	return status, nil
}

// Enable clears the manual override. Health resets to unknown so the next
// sync attempt re-derives it instead of optimistically reporting healthy.
func (s *Health) Enable(ctx context.Context, name string) (*models.IntegrationStatus, error) {
	lock := s.rowLock(name)
	lock.Lock()
	defer lock.Unlock()

	status, err := s.GetStatus(ctx, name)
	if err != nil {
		return nil, err
	}

	status.IsManuallyDisabled = false
	status.DisabledReason = ""
	status.DisabledBy = ""
	status.DisabledAt = nil
	status.Health = models.HealthUnknown
	if err := s.repo.Save(ctx, status); err != nil {
		return nil, err
	}

	logger.Infof("Integration %s enabled", name)
	return status, nil
}

// GetDataAvailability aggregates provider health into feature-level booleans
// using the configured feature requirements
func (s *Health) GetDataAvailability(ctx context.Context) (map[string]bool, error) {
	availability := make(map[string]bool, len(s.features))
	for feature, reqs := range s.features {
		available := true
		for _, req := range reqs {
			var ok bool
			var err error
			if req.RequireFresh {
				ok, err = s.HasFreshData(ctx, req.Provider)
			} else {
				ok, err = s.IsOperational(ctx, req.Provider)
			}
			if err != nil {
				return nil, err
			}
			if !ok {
				available = false
				break
			}
		}
		availability[feature] = available
	}
	return availability, nil
}

// computeHealth derives the health state from the row's failure history.
// A manual disable always wins; automated recovery on the next success
// clears a computed degraded state without touching the manual override.
func (s *Health) computeHealth(status *models.IntegrationStatus) models.HealthState {
	if status.IsManuallyDisabled {
		return models.HealthDisabled
	}
	if status.ConsecutiveFailures >= DegradedFailureThreshold {
		return models.HealthDegraded
	}
	if status.LastSuccessAt != nil {
		return models.HealthHealthy
	}
	return models.HealthUnknown
}
