package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/betslib/feedsync/internal/logger"
	"github.com/betslib/feedsync/internal/telemetry"
)

// JobHandler executes one type of background job
type JobHandler func(ctx context.Context, payload json.RawMessage) error

// HandlerRegistry maps job types to their handlers
type HandlerRegistry map[string]JobHandler

// LaunchWorker launches a goroutine that consumes pending jobs and executes
// them through the handler registry. Jobs with no registered handler fail
// with a diagnostic instead of blocking the queue.
func LaunchWorker(ctx context.Context, wg *sync.WaitGroup, jobs *Job, dispatcher *Dispatcher, registry HandlerRegistry, pollInterval time.Duration) {
	defer wg.Done()
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	logger.Info("Job worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Job worker received shutdown signal, stopping...")
			return
		default:
		}

		job, err := jobs.repo.ClaimNextPending(ctx)
		if err != nil {
			logger.Errorf("Worker error claiming job: %v", err)
			// Wait before retrying to avoid spamming logs on persistent DB errors
			sleepOrWake(ctx, dispatcher, pollInterval)
			continue
		}

		if job == nil {
			sleepOrWake(ctx, dispatcher, pollInterval)
			continue
		}

		logger.Infof("Worker processing job %d (%s)", job.ID, job.JobType)

		handler, ok := registry[job.JobType]
		if !ok {
			err = fmt.Errorf("no handler registered for job type %q", job.JobType)
		} else {
			err = runHandler(ctx, handler, job.Payload)
		}

		if err != nil {
			telemetry.JobsFailed.Inc()
			if markErr := jobs.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
				logger.Errorf("Worker failed to mark job %d failed: %v", job.ID, markErr)
			}
			continue
		}

		telemetry.JobsCompleted.Inc()
		if markErr := jobs.repo.MarkCompleted(ctx, job.ID); markErr != nil {
			logger.Errorf("Worker failed to mark job %d completed: %v", job.ID, markErr)
		}
	}
}

// runHandler invokes the handler, converting a panic into an error
func runHandler(ctx context.Context, handler JobHandler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, payload)
}

// sleepOrWake waits for the poll interval, a dispatch notification, or shutdown
func sleepOrWake(ctx context.Context, dispatcher *Dispatcher, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-dispatcher.Wake():
	}
}
