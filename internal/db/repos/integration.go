package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/betslib/feedsync/internal/db/models"
)

// IntegrationRepository provides access to provider integration status rows
type IntegrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new integration repository instance
func NewIntegrationRepository(db *gorm.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// GetOrCreate returns the status row for the named integration, creating it
// with unknown health on first access. Callers never observe a missing row.
func (r *IntegrationRepository) GetOrCreate(ctx context.Context, name string, staleThreshold time.Duration) (*models.IntegrationStatus, error) {
	var status models.IntegrationStatus
	err := r.db.WithContext(ctx).
		Where(&models.IntegrationStatus{IntegrationName: name}).
		First(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get integration %q: %w", name, err)
	}

	status = models.IntegrationStatus{
		IntegrationName: name,
		Health:          models.HealthUnknown,
		StaleThreshold:  staleThreshold,
	}
	if err := r.db.WithContext(ctx).
		Where(&models.IntegrationStatus{IntegrationName: name}).
		FirstOrCreate(&status).Error; err != nil {
		return nil, fmt.Errorf("failed to create integration %q: %w", name, err)
	}
	return &status, nil
}

// Save persists the full status row
func (r *IntegrationRepository) Save(ctx context.Context, status *models.IntegrationStatus) error {
	return r.db.WithContext(ctx).Save(status).Error
}

// List returns all known integration status rows
func (r *IntegrationRepository) List(ctx context.Context) ([]models.IntegrationStatus, error) {
	var statuses []models.IntegrationStatus
	err := r.db.WithContext(ctx).
		Order("integration_name ASC").
		Find(&statuses).Error
	return statuses, err
}
