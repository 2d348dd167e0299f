// Package models defines the database models for the sync engine
package models

// Pagination constants
const (
	// DefaultLimit is the default number of items to return in a list request
	DefaultLimit = 50
	// MaxLimit is the maximum number of items to return in a list request
	MaxLimit = 500
)

// ListOptions represents pagination options for list operations
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize clamps the options to sane bounds
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
