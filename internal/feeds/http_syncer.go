// Package feeds provides concrete sync routines for external data providers
package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/betslib/feedsync/internal/logger"
)

// DefaultFetchTimeout bounds a single feed pull
const DefaultFetchTimeout = 2 * time.Minute

// HTTPSyncer pulls a provider feed over HTTP. The response body is handed to
// an optional consumer; by default a successful pull is only recorded.
type HTTPSyncer struct {
	name    string
	url     string
	client  *http.Client
	consume func(ctx context.Context, body io.Reader) error
}

// Option configures an HTTPSyncer
type Option func(*HTTPSyncer)

// WithClient overrides the HTTP client
func WithClient(client *http.Client) Option {
	return func(s *HTTPSyncer) { s.client = client }
}

// WithConsumer sets the function that ingests the fetched feed body
func WithConsumer(consume func(ctx context.Context, body io.Reader) error) Option {
	return func(s *HTTPSyncer) { s.consume = consume }
}

// NewHTTPSyncer creates a syncer that fetches the given URL
func NewHTTPSyncer(name, url string, opts ...Option) *HTTPSyncer {
	s := &HTTPSyncer{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: DefaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider name
func (s *HTTPSyncer) Name() string {
	return s.name
}

// Sync fetches the feed once
func (s *HTTPSyncer) Sync(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("feed fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	if s.consume != nil {
		if err := s.consume(ctx, resp.Body); err != nil {
			return fmt.Errorf("feed ingestion failed: %w", err)
		}
		return nil
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read feed body: %w", err)
	}
	logger.Debugf("Fetched %d bytes from %s", n, s.name)
	return nil
}
