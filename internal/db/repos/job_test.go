package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/types"
)

type JobRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestJobRepository(t *testing.T) {
	suite.Run(t, new(JobRepositoryTestSuite))
}

func (s *JobRepositoryTestSuite) TestCreate() {
	job := s.createTestJob(models.JobStatusPending)
	s.NotZero(job.ID)
}

func (s *JobRepositoryTestSuite) TestGetByID() {
	original := s.createTestJob(models.JobStatusPending)

	found, err := s.jobRepo.GetByID(s.ctx, original.ID)
	s.NoError(err)
	s.Equal(original.ID, found.ID)
	s.Equal(original.JobType, found.JobType)

	_, err = s.jobRepo.GetByID(s.ctx, 999)
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *JobRepositoryTestSuite) TestList() {
	s.createTestJob(models.JobStatusPending)
	s.createTestJob(models.JobStatusFailed)
	other := &models.BackgroundJob{JobType: "refresh_rankings", Status: models.JobStatusPending}
	s.Require().NoError(s.jobRepo.Create(s.ctx, other))

	// All jobs
	jobs, err := s.jobRepo.List(s.ctx, JobFilter{}, nil)
	s.NoError(err)
	s.Len(jobs, 3)

	// Filter by status
	failed := models.JobStatusFailed
	jobs, err = s.jobRepo.List(s.ctx, JobFilter{Status: &failed}, nil)
	s.NoError(err)
	s.Len(jobs, 1)

	// Filter by job type
	jobs, err = s.jobRepo.List(s.ctx, JobFilter{JobType: "refresh_rankings"}, nil)
	s.NoError(err)
	s.Len(jobs, 1)
	s.Equal(other.ID, jobs[0].ID)

	// Pagination
	jobs, err = s.jobRepo.List(s.ctx, JobFilter{}, &models.ListOptions{Limit: 2})
	s.NoError(err)
	s.Len(jobs, 2)
}

func (s *JobRepositoryTestSuite) TestCount() {
	s.createTestJob(models.JobStatusPending)
	s.createTestJob(models.JobStatusPending)
	s.createTestJob(models.JobStatusFailed)

	count, err := s.jobRepo.Count(s.ctx, JobFilter{})
	s.NoError(err)
	s.Equal(int64(3), count)

	pending := models.JobStatusPending
	count, err = s.jobRepo.Count(s.ctx, JobFilter{Status: &pending})
	s.NoError(err)
	s.Equal(int64(2), count)
}

func (s *JobRepositoryTestSuite) TestStats() {
	s.createTestJob(models.JobStatusPending)
	s.createTestJob(models.JobStatusPending)
	s.createTestJob(models.JobStatusProcessing)
	s.createTestJob(models.JobStatusCompleted)
	s.createTestJob(models.JobStatusFailed)
	s.createTestJob(models.JobStatusCancelled)

	stats, err := s.jobRepo.Stats(s.ctx)
	s.NoError(err)
	s.Equal(int64(2), stats.Pending)
	s.Equal(int64(1), stats.Processing)
	s.Equal(int64(1), stats.Completed)
	s.Equal(int64(1), stats.Failed)
	s.Equal(int64(1), stats.Cancelled)
	s.Equal(int64(6), stats.Total)
}

func (s *JobRepositoryTestSuite) TestRetryFailedJob() {
	job := s.createTestJob(models.JobStatusFailed)
	job.LastError = "upstream timeout"
	s.Require().NoError(s.db.Save(job).Error)

	retried, err := s.jobRepo.Retry(s.ctx, job.ID)
	s.NoError(err)
	s.Equal(models.JobStatusPending, retried.Status)
	s.Equal(1, retried.RetryCount)
	s.Empty(retried.LastError)
	s.Nil(retried.StartedAt)
	s.Nil(retried.CompletedAt)
}

func (s *JobRepositoryTestSuite) TestRetryCancelledJob() {
	job := s.createTestJob(models.JobStatusCancelled)

	retried, err := s.jobRepo.Retry(s.ctx, job.ID)
	s.NoError(err)
	s.Equal(models.JobStatusPending, retried.Status)
	s.Equal(1, retried.RetryCount)
}

func (s *JobRepositoryTestSuite) TestRetryIncrementsCount() {
	job := s.createTestJob(models.JobStatusFailed)

	retried, err := s.jobRepo.Retry(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(1, retried.RetryCount)

	// Fail it again and retry again
	s.Require().NoError(s.db.Model(retried).Update("status", models.JobStatusFailed).Error)
	retried, err = s.jobRepo.Retry(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(2, retried.RetryCount)
}

func (s *JobRepositoryTestSuite) TestRetryInvalidStates() {
	for _, status := range []models.JobStatus{
		models.JobStatusPending,
		models.JobStatusProcessing,
		models.JobStatusCompleted,
	} {
		job := s.createTestJob(status)
		_, err := s.jobRepo.Retry(s.ctx, job.ID)
		s.ErrorIs(err, types.ErrInvalidTransition, "retry from %s should be rejected", status)

		// The job must be untouched
		unchanged, getErr := s.jobRepo.GetByID(s.ctx, job.ID)
		s.Require().NoError(getErr)
		s.Equal(status, unchanged.Status)
		s.Zero(unchanged.RetryCount)
	}
}

func (s *JobRepositoryTestSuite) TestRetryMissingJob() {
	_, err := s.jobRepo.Retry(s.ctx, 12345)
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *JobRepositoryTestSuite) TestCancelPendingJob() {
	job := s.createTestJob(models.JobStatusPending)

	cancelled, err := s.jobRepo.Cancel(s.ctx, job.ID)
	s.NoError(err)
	s.Equal(models.JobStatusCancelled, cancelled.Status)
	s.NotNil(cancelled.CompletedAt)
}

func (s *JobRepositoryTestSuite) TestCancelProcessingJob() {
	job := s.createTestJob(models.JobStatusProcessing)

	cancelled, err := s.jobRepo.Cancel(s.ctx, job.ID)
	s.NoError(err)
	s.Equal(models.JobStatusCancelled, cancelled.Status)
}

func (s *JobRepositoryTestSuite) TestCancelInvalidStates() {
	for _, status := range []models.JobStatus{
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
	} {
		job := s.createTestJob(status)
		_, err := s.jobRepo.Cancel(s.ctx, job.ID)
		s.ErrorIs(err, types.ErrInvalidTransition, "cancel from %s should be rejected", status)
	}
}

func (s *JobRepositoryTestSuite) TestCancelMissingJob() {
	_, err := s.jobRepo.Cancel(s.ctx, 12345)
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *JobRepositoryTestSuite) TestClaimNextPending() {
	first := s.createTestJob(models.JobStatusPending)
	s.createTestJob(models.JobStatusPending)

	claimed, err := s.jobRepo.ClaimNextPending(s.ctx)
	s.NoError(err)
	s.Require().NotNil(claimed)
	s.Equal(first.ID, claimed.ID)
	s.Equal(models.JobStatusProcessing, claimed.Status)
	s.NotNil(claimed.StartedAt)
}

func (s *JobRepositoryTestSuite) TestClaimNextPendingEmpty() {
	s.createTestJob(models.JobStatusCompleted)

	claimed, err := s.jobRepo.ClaimNextPending(s.ctx)
	s.NoError(err)
	s.Nil(claimed)
}

func (s *JobRepositoryTestSuite) TestMarkCompleted() {
	job := s.createTestJob(models.JobStatusProcessing)

	s.NoError(s.jobRepo.MarkCompleted(s.ctx, job.ID))

	updated, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusCompleted, updated.Status)
	s.NotNil(updated.CompletedAt)
}

func (s *JobRepositoryTestSuite) TestMarkFailed() {
	job := s.createTestJob(models.JobStatusProcessing)

	s.NoError(s.jobRepo.MarkFailed(s.ctx, job.ID, "upstream returned 502"))

	updated, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusFailed, updated.Status)
	s.Equal("upstream returned 502", updated.LastError)
}

func (s *JobRepositoryTestSuite) TestMarkCompletedAfterCancel() {
	// A worker finishing a job that was cancelled out from under it must
	// not overwrite the cancellation
	job := s.createTestJob(models.JobStatusProcessing)
	_, err := s.jobRepo.Cancel(s.ctx, job.ID)
	s.Require().NoError(err)

	err = s.jobRepo.MarkCompleted(s.ctx, job.ID)
	s.ErrorIs(err, types.ErrInvalidTransition)

	unchanged, getErr := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(getErr)
	s.Equal(models.JobStatusCancelled, unchanged.Status)
}

// TestJobLifecycle walks a job through fail, retry, claim, cancel and retry
// again, checking the record after every transition.
func (s *JobRepositoryTestSuite) TestJobLifecycle() {
	job := s.createTestJob(models.JobStatusPending)

	// Claim and fail the first attempt
	claimed, err := s.jobRepo.ClaimNextPending(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(claimed)
	s.Require().NoError(s.jobRepo.MarkFailed(s.ctx, claimed.ID, "boom"))

	// Retry puts it back in the queue with a clean slate
	retried, err := s.jobRepo.Retry(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusPending, retried.Status)
	s.Equal(1, retried.RetryCount)
	s.Empty(retried.LastError)

	// An administrator cancels it before the worker picks it up
	cancelled, err := s.jobRepo.Cancel(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusCancelled, cancelled.Status)

	// Cancellation is not terminal, the job can be retried again
	retried, err = s.jobRepo.Retry(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusPending, retried.Status)
	s.Equal(2, retried.RetryCount)

	// Second attempt succeeds
	claimed, err = s.jobRepo.ClaimNextPending(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(claimed)
	s.Require().NoError(s.jobRepo.MarkCompleted(s.ctx, claimed.ID))

	final, err := s.jobRepo.GetByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusCompleted, final.Status)

	// Completed work cannot be retried or cancelled
	_, err = s.jobRepo.Retry(s.ctx, job.ID)
	s.ErrorIs(err, types.ErrInvalidTransition)
	_, err = s.jobRepo.Cancel(s.ctx, job.ID)
	s.ErrorIs(err, types.ErrInvalidTransition)
}
