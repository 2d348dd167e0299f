package handlers

import "github.com/betslib/feedsync/internal/db/models"

// getPaginationOptions returns a ListOptions struct with validated pagination parameters
func getPaginationOptions(page, pageSize int) *models.ListOptions {
	if page < 1 {
		page = 1
	}

	opts := &models.ListOptions{Limit: pageSize}
	opts.Normalize()
	opts.Offset = (page - 1) * opts.Limit
	return opts
}
