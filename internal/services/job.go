package services

import (
	"context"

	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/db/repos"
	"github.com/betslib/feedsync/internal/logger"
	"github.com/betslib/feedsync/internal/telemetry"
)

// Job provides the administrative surface over background job records
type Job struct {
	repo *repos.JobRepository
}

// NewJobService creates a new job service instance
func NewJobService(repo *repos.JobRepository) *Job {
	return &Job{repo: repo}
}

// GetJob retrieves a job by its ID
func (s *Job) GetJob(ctx context.Context, id uint) (*models.BackgroundJob, error) {
	return s.repo.GetByID(ctx, id)
}

// ListJobs retrieves a paginated list of jobs matching the filter
func (s *Job) ListJobs(ctx context.Context, filter repos.JobFilter, opts *models.ListOptions) ([]models.BackgroundJob, int64, error) {
	jobs, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// GetStats returns job counts grouped by status
func (s *Job) GetStats(ctx context.Context) (models.JobStats, error) {
	return s.repo.Stats(ctx)
}

// RetryJob re-queues a failed or cancelled job. Any other source state is an
// invalid transition: retrying pending or processing work would duplicate it,
// and completed work is already proven correct.
func (s *Job) RetryJob(ctx context.Context, id uint) (*models.BackgroundJob, error) {
	job, err := s.repo.Retry(ctx, id)
	if err != nil {
		return nil, err
	}
	telemetry.JobRetries.Inc()
	logger.InfoWithFields("Job retried", map[string]interface{}{
		"job_id":      job.ID,
		"job_type":    job.JobType,
		"retry_count": job.RetryCount,
	})
	return job, nil
}

// CancelJob cancels a pending or processing job. A failed job must be
// explicitly retried, not cancelled.
func (s *Job) CancelJob(ctx context.Context, id uint) (*models.BackgroundJob, error) {
	job, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.InfoWithFields("Job cancelled", map[string]interface{}{
		"job_id":   job.ID,
		"job_type": job.JobType,
	})
	return job, nil
}
