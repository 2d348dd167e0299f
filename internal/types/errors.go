// Package types provides shared types used across the sync engine
package types

import "errors"

// Error taxonomy for the sync engine. Services wrap these with context via
// fmt.Errorf("%w"); handlers unwrap with errors.Is to pick the response code.
var (
	// ErrNotFound indicates the requested job or integration does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a job state machine violation
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrQuotaExhausted indicates the outbound daily budget for a provider is unavailable.
	// Callers should defer the work rather than retry immediately.
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrRateLimited indicates inbound admission was denied
	ErrRateLimited = errors.New("rate limited")
)
