package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// JobCreatedAtField is the database field name for the job creation timestamp
const JobCreatedAtField = "created_at"

// JobStatus represents the current state of a background job
type JobStatus int

// Job status constants
const (
	// JobStatusUnknown represents an unknown or invalid job status
	JobStatusUnknown JobStatus = iota
	// JobStatusPending indicates the job is waiting to be picked up by a worker
	JobStatusPending
	// JobStatusProcessing indicates the job is currently being executed
	JobStatusProcessing
	// JobStatusCompleted indicates the job has finished successfully
	JobStatusCompleted
	// JobStatusFailed indicates the job has failed
	JobStatusFailed
	// JobStatusCancelled indicates the job was cancelled by an administrator
	JobStatusCancelled
)

var jobStatusNames = []string{
	"unknown",
	"pending",
	"processing",
	"completed",
	"failed",
	"cancelled",
}

// BackgroundJob represents a unit of background work in the system.
// Jobs are never physically deleted; they are retained for audit history.
type BackgroundJob struct {
	gorm.Model
	JobType     string          `json:"job_type" gorm:"not null;index"`
	Payload     json.RawMessage `json:"payload,omitempty" gorm:"type:jsonb"`
	Status      JobStatus       `json:"status" gorm:"index"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	RetryCount  int             `json:"retry_count" gorm:"not null;default:0"`
	LastError   string          `json:"last_error,omitempty" gorm:"type:text"`
}

// CanRetry reports whether the job is in a state that permits a retry.
// Cancellation is an administrative pause, not a terminal verdict, so
// cancelled jobs are retryable; completed work is not re-run.
func (j *BackgroundJob) CanRetry() bool {
	return j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// CanCancel reports whether the job is in a state that permits cancellation
func (j *BackgroundJob) CanCancel() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing
}

// RetryableStatuses lists the source states a retry transition accepts
func RetryableStatuses() []JobStatus {
	return []JobStatus{JobStatusFailed, JobStatusCancelled}
}

// CancellableStatuses lists the source states a cancel transition accepts
func CancellableStatuses() []JobStatus {
	return []JobStatus{JobStatusPending, JobStatusProcessing}
}

// ParseJobStatus converts a string representation of a job status to JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	for i, status := range jobStatusNames {
		if status == str {
			return JobStatus(i), nil
		}
	}
	return JobStatusUnknown, fmt.Errorf("invalid job status: %s", str)
}

func (s JobStatus) String() string {
	if int(s) < 0 || int(s) >= len(jobStatusNames) {
		return jobStatusNames[JobStatusUnknown]
	}
	return jobStatusNames[s]
}

// MarshalJSON implements the json.Marshaler interface for JobStatus
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// JobStats holds the number of jobs per status
type JobStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
	Total      int64 `json:"total"`
}
