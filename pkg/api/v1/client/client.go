// Package client provides the API client for interacting with the feedsync admin API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/betslib/feedsync/internal/api/v1/handlers"
	"github.com/betslib/feedsync/internal/api/v1/routes"
	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/types"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// JobListParams narrows a job list request
type JobListParams struct {
	Status   string
	JobType  string
	Page     int
	PageSize int
}

// Client is the interface for the admin API client
type Client interface {
	// Health check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Job endpoints
	GetJobs(ctx context.Context, params JobListParams) (handlers.JobListData, error)
	GetJobStats(ctx context.Context) (models.JobStats, error)
	GetJob(ctx context.Context, id string) (models.BackgroundJob, error)
	RetryJob(ctx context.Context, id string) (models.BackgroundJob, error)
	CancelJob(ctx context.Context, id string) (models.BackgroundJob, error)

	// Integration endpoints
	GetIntegrations(ctx context.Context) ([]models.IntegrationStatus, error)
	GetAvailability(ctx context.Context) (map[string]bool, error)
	EnableIntegration(ctx context.Context, name string) (models.IntegrationStatus, error)
	DisableIntegration(ctx context.Context, name, reason string) (models.IntegrationStatus, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// apiResponse mirrors the handlers.Response envelope with a raw data payload
type apiResponse struct {
	Slug  handlers.Slug   `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// createAgent creates a new fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the request and decodes the response data payload into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", statusCode, err)
	}

	if statusCode == fiber.StatusTooManyRequests {
		return fmt.Errorf("request failed (status %d): %w", statusCode, types.ErrRateLimited)
	}

	if statusCode < 200 || statusCode > 299 {
		if resp.Error != "" {
			return fmt.Errorf("request failed (status %d, %s): %s", statusCode, resp.Slug, resp.Error)
		}
		return fmt.Errorf("request failed with status %d", statusCode)
	}

	if v != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, v); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *APIClient) get(ctx context.Context, endpoint string, v interface{}) error {
	agent, err := c.createAgent(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.doRequest(agent, v)
}

func (c *APIClient) post(ctx context.Context, endpoint string, body, v interface{}) error {
	agent, err := c.createAgent(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return c.doRequest(agent, v)
}

// HealthCheck checks the health of the API server
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthCheckURL(), nil)
	if err != nil {
		return nil, err
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", statusCode)
	}

	var health map[string]string
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return health, nil
}

// GetJobs retrieves a page of jobs
func (c *APIClient) GetJobs(ctx context.Context, params JobListParams) (handlers.JobListData, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.JobType != "" {
		query.Set("jobType", params.JobType)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(params.PageSize))
	}

	var data handlers.JobListData
	err := c.get(ctx, routes.GetJobsURL(query), &data)
	return data, err
}

// GetJobStats retrieves job counts grouped by status
func (c *APIClient) GetJobStats(ctx context.Context) (models.JobStats, error) {
	var stats models.JobStats
	err := c.get(ctx, routes.GetJobStatsURL(), &stats)
	return stats, err
}

// GetJob retrieves a job by ID
func (c *APIClient) GetJob(ctx context.Context, id string) (models.BackgroundJob, error) {
	var job models.BackgroundJob
	err := c.get(ctx, routes.GetJobURL(id), &job)
	return job, err
}

// RetryJob retries a failed or cancelled job
func (c *APIClient) RetryJob(ctx context.Context, id string) (models.BackgroundJob, error) {
	var job models.BackgroundJob
	err := c.post(ctx, routes.RetryJobURL(id), nil, &job)
	return job, err
}

// CancelJob cancels a pending or processing job
func (c *APIClient) CancelJob(ctx context.Context, id string) (models.BackgroundJob, error) {
	var job models.BackgroundJob
	err := c.post(ctx, routes.CancelJobURL(id), nil, &job)
	return job, err
}

// GetIntegrations retrieves all known provider health rows
func (c *APIClient) GetIntegrations(ctx context.Context) ([]models.IntegrationStatus, error) {
	var statuses []models.IntegrationStatus
	err := c.get(ctx, routes.GetIntegrationsURL(), &statuses)
	return statuses, err
}

// GetAvailability retrieves feature-level availability booleans
func (c *APIClient) GetAvailability(ctx context.Context) (map[string]bool, error) {
	var availability map[string]bool
	err := c.get(ctx, routes.GetAvailabilityURL(), &availability)
	return availability, err
}

// EnableIntegration clears a manual disable
func (c *APIClient) EnableIntegration(ctx context.Context, name string) (models.IntegrationStatus, error) {
	var status models.IntegrationStatus
	err := c.post(ctx, routes.EnableIntegrationURL(name), nil, &status)
	return status, err
}

// DisableIntegration manually disables an integration
func (c *APIClient) DisableIntegration(ctx context.Context, name, reason string) (models.IntegrationStatus, error) {
	var status models.IntegrationStatus
	err := c.post(ctx, routes.DisableIntegrationURL(name), handlers.DisableIntegrationRequest{Reason: reason}, &status)
	return status, err
}
