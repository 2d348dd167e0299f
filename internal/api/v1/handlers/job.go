package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/db/repos"
	"github.com/betslib/feedsync/internal/services"
	"github.com/betslib/feedsync/internal/types"
)

// JobHandler handles HTTP requests for background job administration
type JobHandler struct {
	service    *services.Job
	dispatcher *services.Dispatcher
}

// NewJobHandler creates a new job handler instance
func NewJobHandler(service *services.Job, dispatcher *services.Dispatcher) *JobHandler {
	return &JobHandler{service: service, dispatcher: dispatcher}
}

// ListJobs handles the request to list jobs with optional status and type filters
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	var (
		page     = c.QueryInt("page", 1)
		pageSize = c.QueryInt("pageSize", models.DefaultLimit)
	)

	filter := repos.JobFilter{JobType: c.Query("jobType")}
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := models.ParseJobStatus(statusStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(errInvalidInput("invalid job status"))
		}
		filter.Status = &status
	}

	opts := getPaginationOptions(page, pageSize)
	jobs, total, err := h.service.ListJobs(c.Context(), filter, opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: JobListData{
			Jobs:     jobs,
			Total:    total,
			Page:     page,
			PageSize: opts.Limit,
		},
	})
}

// GetJobStats handles the request for job counts grouped by status
func (h *JobHandler) GetJobStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: stats,
	})
}

// GetJob handles the request to get a single job by ID
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := c.ParamsInt("id")
	if err != nil || jobID < 1 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	job, err := h.service.GetJob(c.Context(), uint(jobID))
	if err != nil {
		return jobError(c, err)
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: job,
	})
}

// RetryJob handles the request to retry a failed or cancelled job
func (h *JobHandler) RetryJob(c *fiber.Ctx) error {
	jobID, err := c.ParamsInt("id")
	if err != nil || jobID < 1 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	job, err := h.service.RetryJob(c.Context(), uint(jobID))
	if err != nil {
		return jobError(c, err)
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: job,
	})
}

// CancelJob handles the request to cancel a pending or processing job
func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	jobID, err := c.ParamsInt("id")
	if err != nil || jobID < 1 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	job, err := h.service.CancelJob(c.Context(), uint(jobID))
	if err != nil {
		return jobError(c, err)
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: job,
	})
}

// EnqueueJob handles the request to enqueue a new background job
func (h *JobHandler) EnqueueJob(c *fiber.Ctx) error {
	var req EnqueueJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}
	if req.JobType == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("job_type is required"))
	}

	job, err := h.dispatcher.Enqueue(c.Context(), req.JobType, req.Payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}
	h.dispatcher.Dispatch(c.Context(), job)

	return c.Status(fiber.StatusCreated).
		JSON(Response{
			Slug: SuccessSlug,
			Data: job,
		})
}

// jobError maps service errors onto the API error taxonomy
func jobError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errNotFound(err.Error()))
	case errors.Is(err, types.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidTransition(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(errServer(err.Error()))
	}
}
