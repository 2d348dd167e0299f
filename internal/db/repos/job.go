// Package repos provides database repositories for the sync engine
package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/types"
)

// JobFilter narrows job list and count queries
type JobFilter struct {
	Status  *models.JobStatus
	JobType string
}

// JobRepository provides access to background job records
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job record
func (r *JobRepository) Create(ctx context.Context, job *models.BackgroundJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id uint) (*models.BackgroundJob, error) {
	var job models.BackgroundJob
	err := r.db.WithContext(ctx).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *JobRepository) filtered(ctx context.Context, filter JobFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.BackgroundJob{})
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.JobType != "" {
		db = db.Where("job_type = ?", filter.JobType)
	}
	return db
}

// List returns a page of jobs matching the filter, newest first
func (r *JobRepository) List(ctx context.Context, filter JobFilter, opts *models.ListOptions) ([]models.BackgroundJob, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()

	var jobs []models.BackgroundJob
	err := r.filtered(ctx, filter).
		Limit(opts.Limit).Offset(opts.Offset).
		Order(models.JobCreatedAtField + " DESC").
		Find(&jobs).Error
	return jobs, err
}

// Count returns the number of jobs matching the filter
func (r *JobRepository) Count(ctx context.Context, filter JobFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

// Stats returns job counts grouped by status
func (r *JobRepository) Stats(ctx context.Context) (models.JobStats, error) {
	var rows []struct {
		Status models.JobStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.BackgroundJob{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.JobStats{}, fmt.Errorf("failed to get job stats: %w", err)
	}

	var stats models.JobStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.JobStatusPending:
			stats.Pending = row.Count
		case models.JobStatusProcessing:
			stats.Processing = row.Count
		case models.JobStatusCompleted:
			stats.Completed = row.Count
		case models.JobStatusFailed:
			stats.Failed = row.Count
		case models.JobStatusCancelled:
			stats.Cancelled = row.Count
		}
	}
	return stats, nil
}

// Retry transitions a failed or cancelled job back to pending. The update is
// guarded by the source status so that two concurrent retries cannot both
// succeed; the loser observes the conflict as an invalid transition.
func (r *JobRepository) Retry(ctx context.Context, id uint) (*models.BackgroundJob, error) {
	res := r.db.WithContext(ctx).Model(&models.BackgroundJob{}).
		Where("id = ? AND status IN ?", id, models.RetryableStatuses()).
		Updates(map[string]interface{}{
			"status":       models.JobStatusPending,
			"retry_count":  gorm.Expr("retry_count + 1"),
			"last_error":   "",
			"started_at":   nil,
			"completed_at": nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to retry job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.transitionConflict(ctx, id, "retry")
	}
	return r.GetByID(ctx, id)
}

// Cancel transitions a pending or processing job to cancelled
func (r *JobRepository) Cancel(ctx context.Context, id uint) (*models.BackgroundJob, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.BackgroundJob{}).
		Where("id = ? AND status IN ?", id, models.CancellableStatuses()).
		Updates(map[string]interface{}{
			"status":       models.JobStatusCancelled,
			"completed_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to cancel job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.transitionConflict(ctx, id, "cancel")
	}
	return r.GetByID(ctx, id)
}

// transitionConflict distinguishes a missing job from a state machine violation
// after a guarded update matched no rows
func (r *JobRepository) transitionConflict(ctx context.Context, id uint, action string) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("cannot %s job %d in status %q: %w", action, id, job.Status, types.ErrInvalidTransition)
}

// ClaimNextPending atomically claims the oldest pending job for processing.
// Returns nil without error when no pending job exists.
func (r *JobRepository) ClaimNextPending(ctx context.Context) (*models.BackgroundJob, error) {
	var candidates []models.BackgroundJob
	err := r.db.WithContext(ctx).
		Where("status = ?", models.JobStatusPending).
		Order(models.JobCreatedAtField + " ASC").
		Limit(5).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	now := time.Now().UTC()
	for i := range candidates {
		res := r.db.WithContext(ctx).Model(&models.BackgroundJob{}).
			Where("id = ? AND status = ?", candidates[i].ID, models.JobStatusPending).
			Updates(map[string]interface{}{
				"status":     models.JobStatusProcessing,
				"started_at": now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to claim job: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return r.GetByID(ctx, candidates[i].ID)
		}
		// Lost the race for this candidate, try the next one
	}
	return nil, nil
}

// MarkCompleted transitions a processing job to completed
func (r *JobRepository) MarkCompleted(ctx context.Context, id uint) error {
	return r.finishProcessing(ctx, id, models.JobStatusCompleted, "")
}

// MarkFailed transitions a processing job to failed with a diagnostic message
func (r *JobRepository) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	return r.finishProcessing(ctx, id, models.JobStatusFailed, errMsg)
}

func (r *JobRepository) finishProcessing(ctx context.Context, id uint, status models.JobStatus, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&models.BackgroundJob{}).
		Where("id = ? AND status = ?", id, models.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": time.Now().UTC(),
			"last_error":   errMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finish job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The job was cancelled out from under the worker; leave it be
		return r.transitionConflict(ctx, id, "finish")
	}
	return nil
}
