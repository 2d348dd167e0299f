package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/betslib/feedsync/internal/config"
	"github.com/betslib/feedsync/internal/logger"
	"github.com/betslib/feedsync/internal/telemetry"
)

// Syncer is the capability a provider exposes to the scheduler. Each provider
// is a value implementing this single interface, selected by configuration.
type Syncer interface {
	Name() string
	Sync(ctx context.Context) error
}

// NextDailyRun returns the next daily occurrence of hourUTC after now.
// If now is before the target hour the run is today, otherwise tomorrow.
func NextDailyRun(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	run := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if now.Hour() >= hourUTC {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// NextWeeklyRun returns the next occurrence of weekday at hourUTC strictly
// after now. If today is the target weekday but the hour has passed, the run
// rolls to next week.
func NextWeeklyRun(now time.Time, weekday time.Weekday, hourUTC int) time.Time {
	now = now.UTC()
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	run := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	if !run.After(now) {
		run = run.AddDate(0, 0, 7)
	}
	return run
}

// SyncWorker runs one provider's sync routine on its computed schedule.
// Cycles are strictly sequential within a worker; a failed cycle never
// terminates the loop.
type SyncWorker struct {
	syncer     Syncer
	schedule   config.ProviderConfig
	health     *Health
	quota      *QuotaGuard
	dispatcher *Dispatcher
	nextRunAt  time.Time
	now        func() time.Time
}

// NewSyncWorker creates a sync worker for one provider
func NewSyncWorker(syncer Syncer, schedule config.ProviderConfig, health *Health, quota *QuotaGuard, dispatcher *Dispatcher) *SyncWorker {
	return &SyncWorker{
		syncer:     syncer,
		schedule:   schedule,
		health:     health,
		quota:      quota,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// NextRun computes the worker's next run time after now
func (w *SyncWorker) NextRun(now time.Time) time.Time {
	if w.schedule.SyncWeekday != nil {
		return NextWeeklyRun(now, *w.schedule.SyncWeekday, w.schedule.SyncHourUTC)
	}
	return NextDailyRun(now, w.schedule.SyncHourUTC)
}

// Run executes the worker loop until the context is cancelled. The worker
// syncs once immediately on start so data is never older than process uptime.
func (w *SyncWorker) Run(ctx context.Context) {
	name := w.syncer.Name()
	logger.Infof("Sync worker for %s started", name)

	w.runOnce(ctx)

	for {
		w.nextRunAt = w.NextRun(w.now())
		logger.InfoWithFields("Next sync scheduled", map[string]interface{}{
			"integration": name,
			"next_run_at": w.nextRunAt.Format(time.RFC3339),
		})

		timer := time.NewTimer(time.Until(w.nextRunAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Infof("Sync worker for %s received shutdown signal, stopping...", name)
			return
		case <-timer.C:
		}

		w.runOnce(ctx)
	}
}

// runOnce executes a single sync cycle inside a failure-isolating boundary.
// Sync errors and panics are converted into health tracker failure records
// and must never crash the scheduling loop.
func (w *SyncWorker) runOnce(ctx context.Context) {
	name := w.syncer.Name()

	if err := w.quota.Reserve(name, 1); err != nil {
		telemetry.QuotaDenials.Inc()
		logger.Warnf("Skipping sync for %s: %v", name, err)
		return
	}

	start := w.now()
	err := w.invokeSync(ctx)
	duration := w.now().Sub(start)

	if err != nil {
		telemetry.SyncFailures.Inc()
		if recordErr := w.health.RecordFailure(ctx, name, err.Error(), ""); recordErr != nil {
			logger.Errorf("Failed to record sync failure for %s: %v", name, recordErr)
		}
		return
	}

	telemetry.SyncSuccesses.Inc()
	if recordErr := w.health.RecordSuccess(ctx, name, duration); recordErr != nil {
		logger.Errorf("Failed to record sync success for %s: %v", name, recordErr)
	}

	if w.schedule.FollowUpJobType != "" && w.dispatcher != nil {
		job, enqueueErr := w.dispatcher.Enqueue(ctx, w.schedule.FollowUpJobType, nil)
		if enqueueErr != nil {
			logger.Errorf("Failed to enqueue follow-up job for %s: %v", name, enqueueErr)
			return
		}
		w.dispatcher.Dispatch(ctx, job)
	}
}

// invokeSync calls the provider routine, converting a panic into an error
func (w *SyncWorker) invokeSync(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panicked: %v", r)
		}
	}()
	return w.syncer.Sync(ctx)
}

// Manager owns the lifecycle of all sync workers, one goroutine per enabled
// provider. Workers share no mutable state; coordination happens only through
// the health tracker and quota guard.
type Manager struct {
	workers []*SyncWorker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager for the given workers
func NewManager(workers ...*SyncWorker) *Manager {
	return &Manager{workers: workers}
}

// Start launches every worker. Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for _, worker := range m.workers {
		m.wg.Add(1)
		go func(w *SyncWorker) {
			defer m.wg.Done()
			w.Run(ctx)
		}(worker)
	}
}

// Stop cancels every worker's pending sleep and waits for them to exit.
// An in-flight sync call is allowed to complete or abandon at its own
// discretion; it is not force-killed.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
