// Package mock provides a mock implementation of the API client for testing
package mock

import (
	"context"
	"fmt"

	"github.com/betslib/feedsync/internal/api/v1/handlers"
	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/pkg/api/v1/client"
)

// MockClient is a scriptable implementation of the client.Client interface.
// Each method delegates to the corresponding Fn field and records the call.
type MockClient struct {
	HealthCheckFn        func(ctx context.Context) (map[string]string, error)
	GetJobsFn            func(ctx context.Context, params client.JobListParams) (handlers.JobListData, error)
	GetJobStatsFn        func(ctx context.Context) (models.JobStats, error)
	GetJobFn             func(ctx context.Context, id string) (models.BackgroundJob, error)
	RetryJobFn           func(ctx context.Context, id string) (models.BackgroundJob, error)
	CancelJobFn          func(ctx context.Context, id string) (models.BackgroundJob, error)
	GetIntegrationsFn    func(ctx context.Context) ([]models.IntegrationStatus, error)
	GetAvailabilityFn    func(ctx context.Context) (map[string]bool, error)
	EnableIntegrationFn  func(ctx context.Context, name string) (models.IntegrationStatus, error)
	DisableIntegrationFn func(ctx context.Context, name, reason string) (models.IntegrationStatus, error)

	HealthCheckCalls        int
	GetJobsCalls            []client.JobListParams
	GetJobStatsCalls        int
	GetJobCalls             []string
	RetryJobCalls           []string
	CancelJobCalls          []string
	GetIntegrationsCalls    int
	GetAvailabilityCalls    int
	EnableIntegrationCalls  []string
	DisableIntegrationCalls []string
}

var _ client.Client = &MockClient{}

// HealthCheck delegates to HealthCheckFn
func (m *MockClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	m.HealthCheckCalls++
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return nil, fmt.Errorf("HealthCheckFn not set")
}

// GetJobs delegates to GetJobsFn
func (m *MockClient) GetJobs(ctx context.Context, params client.JobListParams) (handlers.JobListData, error) {
	m.GetJobsCalls = append(m.GetJobsCalls, params)
	if m.GetJobsFn != nil {
		return m.GetJobsFn(ctx, params)
	}
	return handlers.JobListData{}, fmt.Errorf("GetJobsFn not set")
}

// GetJobStats delegates to GetJobStatsFn
func (m *MockClient) GetJobStats(ctx context.Context) (models.JobStats, error) {
	m.GetJobStatsCalls++
	if m.GetJobStatsFn != nil {
		return m.GetJobStatsFn(ctx)
	}
	return models.JobStats{}, fmt.Errorf("GetJobStatsFn not set")
}

// GetJob delegates to GetJobFn
func (m *MockClient) GetJob(ctx context.Context, id string) (models.BackgroundJob, error) {
	m.GetJobCalls = append(m.GetJobCalls, id)
	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, id)
	}
	return models.BackgroundJob{}, fmt.Errorf("GetJobFn not set")
}

// RetryJob delegates to RetryJobFn
func (m *MockClient) RetryJob(ctx context.Context, id string) (models.BackgroundJob, error) {
	m.RetryJobCalls = append(m.RetryJobCalls, id)
	if m.RetryJobFn != nil {
		return m.RetryJobFn(ctx, id)
	}
	return models.BackgroundJob{}, fmt.Errorf("RetryJobFn not set")
}

// CancelJob delegates to CancelJobFn
func (m *MockClient) CancelJob(ctx context.Context, id string) (models.BackgroundJob, error) {
	m.CancelJobCalls = append(m.CancelJobCalls, id)
	if m.CancelJobFn != nil {
		return m.CancelJobFn(ctx, id)
	}
	return models.BackgroundJob{}, fmt.Errorf("CancelJobFn not set")
}

// GetIntegrations delegates to GetIntegrationsFn
func (m *MockClient) GetIntegrations(ctx context.Context) ([]models.IntegrationStatus, error) {
	m.GetIntegrationsCalls++
	if m.GetIntegrationsFn != nil {
		return m.GetIntegrationsFn(ctx)
	}
	return nil, fmt.Errorf("GetIntegrationsFn not set")
}

// GetAvailability delegates to GetAvailabilityFn
func (m *MockClient) GetAvailability(ctx context.Context) (map[string]bool, error) {
	m.GetAvailabilityCalls++
	if m.GetAvailabilityFn != nil {
		return m.GetAvailabilityFn(ctx)
	}
	return nil, fmt.Errorf("GetAvailabilityFn not set")
}

// EnableIntegration delegates to EnableIntegrationFn
func (m *MockClient) EnableIntegration(ctx context.Context, name string) (models.IntegrationStatus, error) {
	m.EnableIntegrationCalls = append(m.EnableIntegrationCalls, name)
	if m.EnableIntegrationFn != nil {
		return m.EnableIntegrationFn(ctx, name)
	}
	return models.IntegrationStatus{}, fmt.Errorf("EnableIntegrationFn not set")
}

// DisableIntegration delegates to DisableIntegrationFn
func (m *MockClient) DisableIntegration(ctx context.Context, name, reason string) (models.IntegrationStatus, error) {
	m.DisableIntegrationCalls = append(m.DisableIntegrationCalls, name)
	if m.DisableIntegrationFn != nil {
		return m.DisableIntegrationFn(ctx, name, reason)
	}
	return models.IntegrationStatus{}, fmt.Errorf("DisableIntegrationFn not set")
}
