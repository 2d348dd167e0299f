// Package handlers provides HTTP request handling for the admin API
package handlers

import (
	"encoding/json"

	"github.com/betslib/feedsync/internal/db/models"
)

// Slug identifies the outcome category of an API response
type Slug string

const (
	SuccessSlug           Slug = "success"
	ErrorSlug             Slug = "error"
	InvalidInputSlug      Slug = "invalid-input"
	NotFoundSlug          Slug = "not-found"
	InvalidTransitionSlug Slug = "invalid-transition"
	RateLimitedSlug       Slug = "rate-limited"
	ServerErrorSlug       Slug = "server-error"
)

// Response is the envelope for all API responses
type Response struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// JobListData is the payload of a job list response
type JobListData struct {
	Jobs     []models.BackgroundJob `json:"jobs"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// DisableIntegrationRequest is the body of an integration disable request
type DisableIntegrationRequest struct {
	Reason string `json:"reason"`
}

// EnqueueJobRequest is the body of a job enqueue request
type EnqueueJobRequest struct {
	JobType string          `json:"job_type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func errInvalidInput(msg string) Response {
	return Response{
		Slug:  InvalidInputSlug,
		Error: msg,
	}
}

func errNotFound(msg string) Response {
	return Response{
		Slug:  NotFoundSlug,
		Error: msg,
	}
}

func errInvalidTransition(msg string) Response {
	return Response{
		Slug:  InvalidTransitionSlug,
		Error: msg,
	}
}

func errServer(msg string) Response {
	return Response{
		Slug:  ServerErrorSlug,
		Error: msg,
	}
}
