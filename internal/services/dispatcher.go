package services

import (
	"context"
	"encoding/json"

	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/db/repos"
	"github.com/betslib/feedsync/internal/logger"
	"github.com/betslib/feedsync/internal/telemetry"
)

// JobQueue is the contract for creating and handing off background work.
// The first implementation is the jobs table; a multi-instance deployment can
// swap in a real queue without touching callers.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload json.RawMessage) (*models.BackgroundJob, error)
	Dispatch(ctx context.Context, job *models.BackgroundJob)
}

// Dispatcher creates job records and notifies the pending-job worker.
// Enqueue is fire-and-forget from the caller's perspective: it records that
// the logical operation happened and returns immediately.
type Dispatcher struct {
	jobs *repos.JobRepository
	wake chan struct{}
}

var _ JobQueue = &Dispatcher{}

// NewDispatcher creates a new job dispatcher
func NewDispatcher(jobs *repos.JobRepository) *Dispatcher {
	return &Dispatcher{
		jobs: jobs,
		wake: make(chan struct{}, 1),
	}
}

// Enqueue creates a pending job record and returns it
func (d *Dispatcher) Enqueue(ctx context.Context, jobType string, payload json.RawMessage) (*models.BackgroundJob, error) {
	job := &models.BackgroundJob{
		JobType: jobType,
		Payload: payload,
		Status:  models.JobStatusPending,
	}
	if err := d.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	telemetry.JobsEnqueued.Inc()
	logger.InfoWithFields("Job enqueued", map[string]interface{}{
		"job_id":   job.ID,
		"job_type": jobType,
	})
	return job, nil
}

// Dispatch is a hand-off notification only; it never executes the job.
// Execution belongs to whatever consumes pending jobs. The notification is
// non-blocking so request-handling code can call this synchronously.
func (d *Dispatcher) Dispatch(_ context.Context, job *models.BackgroundJob) {
	select {
	case d.wake <- struct{}{}:
	default:
	}
	logger.Debugf("Dispatched job %d (%s)", job.ID, job.JobType)
}

// Wake exposes the notification channel for the pending-job worker
func (d *Dispatcher) Wake() <-chan struct{} {
	return d.wake
}
